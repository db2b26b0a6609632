package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type sessionStore interface {
	SaveTopology(ctx context.Context, sessionID string, saved models.SavedTopology) error
	ListTopologies(ctx context.Context, sessionID string) ([]models.SavedTopology, error)
	DeleteTopology(ctx context.Context, sessionID, name string) error
	DismissBooking(ctx context.Context, sessionID string, bookingID int64) error
	DismissedBookings(ctx context.Context, sessionID string) ([]int64, error)
	Overrides(ctx context.Context, sessionID string) ([]models.OverrideRecord, error)
}

// SessionService manages per-session planning state: saved topologies,
// dismissed bookings and the override audit trail.
type SessionService struct {
	store     sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService wires the session state service.
func NewSessionService(store sessionStore, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, validator: validate, logger: logger, now: time.Now}
}

// SaveTopology stores a named logical topology; an existing name is replaced.
func (s *SessionService) SaveTopology(ctx context.Context, req dto.SaveTopologyRequest) (*models.SavedTopology, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save topology request")
	}

	saved := models.SavedTopology{
		Name:     req.Name,
		Topology: req.Topology,
		SavedAt:  s.now().UTC(),
	}
	if err := s.store.SaveTopology(ctx, req.SessionID, saved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save topology")
	}
	return &saved, nil
}

// ListTopologies returns the session's saved topologies, newest first.
func (s *SessionService) ListTopologies(ctx context.Context, sessionID string) ([]models.SavedTopology, error) {
	saved, err := s.store.ListTopologies(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topologies")
	}
	sort.SliceStable(saved, func(i, j int) bool {
		return saved[i].SavedAt.After(saved[j].SavedAt)
	})
	return saved, nil
}

// DeleteTopology removes one saved topology by name.
func (s *SessionService) DeleteTopology(ctx context.Context, sessionID, name string) error {
	if err := s.store.DeleteTopology(ctx, sessionID, name); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete topology")
	}
	return nil
}

// DismissBooking hides a booking from the session's timeline view.
func (s *SessionService) DismissBooking(ctx context.Context, req dto.DismissBookingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dismiss request")
	}
	if err := s.store.DismissBooking(ctx, req.SessionID, req.BookingID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss booking")
	}
	return nil
}

// DismissedBookings returns the booking ids the session has hidden.
func (s *SessionService) DismissedBookings(ctx context.Context, sessionID string) ([]int64, error) {
	ids, err := s.store.DismissedBookings(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dismissed bookings")
	}
	return ids, nil
}

// Overrides returns the session's override audit trail.
func (s *SessionService) Overrides(ctx context.Context, sessionID string) ([]models.OverrideRecord, error) {
	records, err := s.store.Overrides(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	return records, nil
}
