package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type overrideRecorder interface {
	RecordOverride(ctx context.Context, sessionID string, record models.OverrideRecord) error
}

// OverrideService applies manual candidate substitutions to mappings and
// keeps a per-session audit trail of them.
type OverrideService struct {
	sessions  overrideRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewOverrideService wires the override controller.
func NewOverrideService(sessions overrideRecorder, validate *validator.Validate, logger *zap.Logger) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{sessions: sessions, validator: validate, logger: logger, now: time.Now}
}

// Override substitutes the candidate for the named logical node and recomputes
// the total fit score. Pure function of its inputs: a stale logical node id is
// a silent no-op (the caller's view may lag the mapping), the mapping id is
// preserved, and only the targeted node changes.
func Override(mapping models.Mapping, logicalNodeID string, candidate models.Candidate) models.Mapping {
	out := mapping
	out.NodeMappings = make([]models.NodeMapping, len(mapping.NodeMappings))
	copy(out.NodeMappings, mapping.NodeMappings)

	for i, nm := range out.NodeMappings {
		if nm.LogicalNodeID != logicalNodeID {
			continue
		}
		nm.PhysicalDeviceID = candidate.DeviceID
		nm.PhysicalDeviceName = candidate.DeviceName
		nm.PhysicalDeviceType = candidate.DeviceType
		nm.FitScore = candidate.FitScore
		nm.Confidence = models.ConfidenceFor(candidate.FitScore)
		nm.Explanation = candidate.Explanation
		out.NodeMappings[i] = nm
		out.RecomputeTotalFitScore()
		return out
	}
	return out
}

// Apply validates the request, applies the substitution and records it
// against the session. Recording failures are logged but do not undo the
// override; the audit trail is advisory.
func (s *OverrideService) Apply(ctx context.Context, req dto.OverrideRequest) (models.Mapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Mapping{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override request")
	}

	updated := Override(req.Mapping, req.LogicalNodeID, req.Candidate)

	if s.sessions != nil {
		record := models.OverrideRecord{
			MappingID:     updated.MappingID,
			LogicalNodeID: req.LogicalNodeID,
			DeviceID:      req.Candidate.DeviceID,
			DeviceName:    req.Candidate.DeviceName,
			OverriddenAt:  s.now(),
		}
		if err := s.sessions.RecordOverride(ctx, req.SessionID, record); err != nil {
			s.logger.Warn("failed to record override",
				zap.String("session_id", req.SessionID),
				zap.String("mapping_id", updated.MappingID),
				zap.Error(err))
		}
	}

	return updated, nil
}
