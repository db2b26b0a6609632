package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type deviceDirectory interface {
	List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error)
}

type bookingStore interface {
	ListWindow(ctx context.Context, start, end time.Time) ([]models.Booking, error)
}

// TimelineService renders the booking calendar: it classifies every
// (date, segment, device) slot from immutable device/booking snapshots.
type TimelineService struct {
	grid        *TimeGrid
	maintenance *MaintenanceResolver
	devices     deviceDirectory
	bookings    bookingStore
	validator   *validator.Validate
	logger      *zap.Logger
	horizonDays int
	now         func() time.Time
}

// TimelineServiceConfig tunes the calendar surface.
type TimelineServiceConfig struct {
	HorizonDays int
	Now         func() time.Time
}

// NewTimelineService wires the calendar dependencies.
func NewTimelineService(
	grid *TimeGrid,
	maintenance *MaintenanceResolver,
	devices deviceDirectory,
	bookings bookingStore,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimelineServiceConfig,
) *TimelineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TimelineService{
		grid:        grid,
		maintenance: maintenance,
		devices:     devices,
		bookings:    bookings,
		validator:   validate,
		logger:      logger,
		horizonDays: cfg.HorizonDays,
		now:         cfg.Now,
	}
}

// ClassifySlot derives the display state of one slot. The precedence is
// load-bearing: maintenance, then expiry, then booking occupancy. A slot with
// two or more overlapping live bookings renders as conflicting with every
// owner named. Malformed inputs classify as if absent; the calendar never
// fails closed.
func (s *TimelineService) ClassifySlot(date time.Time, segmentIndex int, device models.Device, bookings []models.Booking, now time.Time) (models.SlotState, error) {
	slotStart, slotEnd, err := s.grid.ResolveSegment(date, segmentIndex)
	if err != nil {
		return models.SlotState{}, err
	}

	if s.maintenance.Overlaps(slotStart, slotEnd, device) {
		return models.SlotState{Content: "Maintenance", Class: models.SlotMaintenance}, nil
	}

	if now.After(slotEnd) {
		return models.SlotState{Class: models.SlotExpired}, nil
	}

	var matched []models.Booking
	for _, b := range bookings {
		if b.DeviceType != device.Type || b.DeviceName != device.Name {
			continue
		}
		if !b.Occupies() {
			continue
		}
		if b.Overlaps(slotStart, slotEnd) {
			matched = append(matched, b)
		}
	}

	switch len(matched) {
	case 0:
		return models.SlotState{Class: models.SlotFree}, nil
	case 1:
		return s.classifySingle(matched[0]), nil
	default:
		names := make([]string, 0, len(matched))
		for _, b := range matched {
			names = append(names, b.DisplayName())
		}
		return models.SlotState{Content: strings.Join(names, " & "), Class: models.SlotConflicting}, nil
	}
}

func (s *TimelineService) classifySingle(b models.Booking) models.SlotState {
	switch strings.ToLower(string(b.Status)) {
	case "pending":
		return models.SlotState{Content: b.DisplayName(), Class: models.SlotMyPending}
	case "confirmed":
		return models.SlotState{Content: b.DisplayName(), Class: models.SlotMyConfirmed}
	case "conflicting":
		// Upstream already persisted the conflict.
		return models.SlotState{Content: b.DisplayName(), Class: models.SlotConflicting}
	case "cancelled", "rejected":
		// Unreachable after the occupancy filter; classify as free anyway.
		return models.SlotState{Class: models.SlotFree}
	default:
		return models.SlotState{Content: b.DisplayName(), Class: models.SlotMyPending}
	}
}

// WeekTimeline builds the calendar grid starting at the queried date. The
// booking snapshot is fetched once and shared by every slot classification so
// the result is a pure function of that snapshot.
func (s *TimelineService) WeekTimeline(ctx context.Context, query dto.TimelineQuery) (*dto.TimelineResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeline query")
	}

	now := s.now()
	start := now
	if query.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", query.Date, s.grid.Location())
		if err == nil {
			start = parsed
		}
		// Malformed dates fall back to today rather than failing the view.
	}
	year, month, day := start.In(s.grid.Location()).Date()
	start = time.Date(year, month, day, 0, 0, 0, 0, s.grid.Location())

	days := query.Days
	if days <= 0 {
		days = s.horizonDays
	}

	devices, err := s.devices.List(ctx, models.DeviceFilter{Type: query.DeviceType})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device directory")
	}
	models.SortDevices(devices)

	windowEnd := start.AddDate(0, 0, days+1) // +1 so cross-midnight tails are covered
	bookings, err := s.bookings.ListWindow(ctx, start, windowEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	resp := &dto.TimelineResponse{
		Start:    start.Format("2006-01-02"),
		Days:     days,
		Segments: s.grid.Segments(),
		Devices:  make([]models.DeviceTimeline, 0, len(devices)),
	}

	for _, device := range devices {
		timeline := models.DeviceTimeline{
			DeviceType: device.Type,
			DeviceName: device.Name,
			Days:       make([]models.DaySlots, 0, days),
		}
		for d := 0; d < days; d++ {
			date := start.AddDate(0, 0, d)
			daySlots := models.DaySlots{
				Date:  date.Format("2006-01-02"),
				Slots: make([]models.SlotState, 0, len(s.grid.Segments())),
			}
			for idx := range s.grid.Segments() {
				state, err := s.ClassifySlot(date, idx, device, bookings, now)
				if err != nil {
					return nil, err
				}
				daySlots.Slots = append(daySlots.Slots, state)
			}
			timeline.Days = append(timeline.Days, daySlots)
		}
		resp.Devices = append(resp.Devices, timeline)
	}

	return resp, nil
}
