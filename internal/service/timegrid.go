package service

import (
	"fmt"
	"time"

	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

// DefaultSegments is the stock lab booking grid. The overnight segment wraps
// past midnight; together the four segments cover every hour of the day
// exactly once.
func DefaultSegments() []models.TimeSegment {
	return []models.TimeSegment{
		{Label: "11 PM - 7 AM", StartHour: 23, EndHour: 7},
		{Label: "7 AM - 12 PM", StartHour: 7, EndHour: 12},
		{Label: "12 PM - 6 PM", StartHour: 12, EndHour: 18},
		{Label: "6 PM - 11 PM", StartHour: 18, EndHour: 23},
	}
}

// TimeGrid resolves (date, segment index) pairs to absolute instants.
type TimeGrid struct {
	segments []models.TimeSegment
	loc      *time.Location
}

// NewTimeGrid validates that the segment set partitions the 24h day and
// returns a grid anchored to the given location.
func NewTimeGrid(segments []models.TimeSegment, loc *time.Location) (*TimeGrid, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(segments) == 0 {
		segments = DefaultSegments()
	}

	covered := make(map[int]int, 24)
	for _, seg := range segments {
		if seg.StartHour < 0 || seg.StartHour > 23 || seg.EndHour < 0 || seg.EndHour > 23 {
			return nil, fmt.Errorf("segment %q has out-of-range hours", seg.Label)
		}
		for h := seg.StartHour; h != seg.EndHour; h = (h + 1) % 24 {
			covered[h]++
		}
	}
	for h := 0; h < 24; h++ {
		if covered[h] != 1 {
			return nil, fmt.Errorf("segments do not partition the day: hour %d covered %d times", h, covered[h])
		}
	}

	return &TimeGrid{segments: segments, loc: loc}, nil
}

// Segments returns the configured ordered segment list.
func (g *TimeGrid) Segments() []models.TimeSegment {
	return g.segments
}

// Location returns the timezone the grid is anchored to.
func (g *TimeGrid) Location() *time.Location {
	return g.loc
}

// IndexByLabel looks a segment up by its display label.
func (g *TimeGrid) IndexByLabel(label string) (int, bool) {
	for i, seg := range g.segments {
		if seg.Label == label {
			return i, true
		}
	}
	return 0, false
}

// ResolveSegment returns the absolute [start, end) instants of the segment on
// the given calendar date. Segments whose end hour is numerically below their
// start hour end on the following day.
func (g *TimeGrid) ResolveSegment(date time.Time, segmentIndex int) (time.Time, time.Time, error) {
	if segmentIndex < 0 || segmentIndex >= len(g.segments) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidSegmentIndex,
			fmt.Sprintf("segment index %d out of range [0,%d)", segmentIndex, len(g.segments)))
	}

	seg := g.segments[segmentIndex]
	year, month, day := date.In(g.loc).Date()
	start := time.Date(year, month, day, seg.StartHour, 0, 0, 0, g.loc)
	end := time.Date(year, month, day, seg.EndHour, 0, 0, 0, g.loc)
	if seg.CrossesMidnight() {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// IsExpired reports whether the segment's slot on the given date has fully
// elapsed at the reference time.
func (g *TimeGrid) IsExpired(date time.Time, segmentIndex int, now time.Time) (bool, error) {
	_, end, err := g.ResolveSegment(date, segmentIndex)
	if err != nil {
		return false, err
	}
	return now.After(end), nil
}
