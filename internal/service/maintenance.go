package service

import (
	"strings"
	"time"

	"github.com/opticlab/labres-api/internal/models"
)

const allDayLabel = "All Day"

// MaintenanceResolver turns device maintenance descriptors into absolute
// windows and tests them against slots. Descriptors look like
// "All Day/2025-03-22" or "7 AM - 12 PM/2025-03-22"; anything unparseable is
// treated as no maintenance so a bad record can never block the calendar.
type MaintenanceResolver struct {
	grid *TimeGrid
}

// NewMaintenanceResolver builds a resolver over the given grid.
func NewMaintenanceResolver(grid *TimeGrid) *MaintenanceResolver {
	return &MaintenanceResolver{grid: grid}
}

// ParseBoundary resolves one maintenance descriptor to an instant. The end
// boundary of an all-day descriptor is the last millisecond of the date; the
// end boundary of a segment descriptor follows the segment's cross-midnight
// rule. Returns nil for empty or malformed descriptors.
func (r *MaintenanceResolver) ParseBoundary(descriptor *string, isEndBoundary bool) *time.Time {
	if descriptor == nil || strings.TrimSpace(*descriptor) == "" {
		return nil
	}

	parts := strings.SplitN(*descriptor, "/", 2)
	if len(parts) != 2 {
		return nil
	}
	label := strings.TrimSpace(parts[0])
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[1]), r.grid.Location())
	if err != nil {
		return nil
	}

	if label == allDayLabel {
		if isEndBoundary {
			t := date.Add(24*time.Hour - time.Millisecond)
			return &t
		}
		return &date
	}

	idx, ok := r.grid.IndexByLabel(label)
	if !ok {
		return nil
	}
	start, end, err := r.grid.ResolveSegment(date, idx)
	if err != nil {
		return nil
	}
	if isEndBoundary {
		return &end
	}
	return &start
}

// Window resolves a device's maintenance descriptors into one absolute
// interval, or nil when the device carries none (or they are malformed).
func (r *MaintenanceResolver) Window(device models.Device) *models.MaintenanceWindow {
	start := r.ParseBoundary(device.MaintenanceStart, false)
	end := r.ParseBoundary(device.MaintenanceEnd, true)
	if start == nil || end == nil {
		return nil
	}

	// End segment earlier in the day than the start segment means the
	// window runs past midnight into the next day.
	resolvedEnd := *end
	if resolvedEnd.Before(*start) {
		resolvedEnd = resolvedEnd.AddDate(0, 0, 1)
	}
	if !resolvedEnd.After(*start) {
		return nil
	}

	allDay := device.MaintenanceStart != nil && strings.HasPrefix(*device.MaintenanceStart, allDayLabel) &&
		device.MaintenanceEnd != nil && strings.HasPrefix(*device.MaintenanceEnd, allDayLabel)

	return &models.MaintenanceWindow{Start: *start, End: resolvedEnd, AllDay: allDay}
}

// Overlaps reports whether the slot [slotStart, slotEnd) is blocked by the
// device's maintenance window. Only devices flagged Maintenance block slots.
// All-day windows swallow whole slots (containment); segment windows use
// strict interval overlap.
func (r *MaintenanceResolver) Overlaps(slotStart, slotEnd time.Time, device models.Device) bool {
	if device.Status != models.DeviceMaintenance {
		return false
	}
	window := r.Window(device)
	if window == nil {
		return false
	}

	if window.AllDay {
		return !slotStart.Before(window.Start) && !slotEnd.After(window.End)
	}
	return slotStart.Before(window.End) && slotEnd.After(window.Start)
}
