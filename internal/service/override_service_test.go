package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type overrideRecorderStub struct {
	records []models.OverrideRecord
	session string
	err     error
}

func (s *overrideRecorderStub) RecordOverride(ctx context.Context, sessionID string, record models.OverrideRecord) error {
	if s.err != nil {
		return s.err
	}
	s.session = sessionID
	s.records = append(s.records, record)
	return nil
}

func twoNodeMapping() models.Mapping {
	m := models.Mapping{
		MappingID: "greedy-best-fit",
		NodeMappings: []models.NodeMapping{
			{LogicalNodeID: "a", PhysicalDeviceID: 1, PhysicalDeviceName: "ROADM-1", PhysicalDeviceType: "roadm", FitScore: 0.9, Confidence: models.ConfidenceHigh},
			{LogicalNodeID: "b", PhysicalDeviceID: 2, PhysicalDeviceName: "ROADM-2", PhysicalDeviceType: "roadm", FitScore: 0.7, Confidence: models.ConfidenceMedium},
		},
	}
	m.RecomputeTotalFitScore()
	return m
}

func TestOverrideReplacesNodeAndRecomputesTotal(t *testing.T) {
	mapping := twoNodeMapping()
	require.InDelta(t, 0.8, mapping.TotalFitScore, 1e-9)

	candidate := models.Candidate{
		DeviceID:    3,
		DeviceName:  "ROADM-3",
		DeviceType:  "roadm",
		FitScore:    0.5,
		Available:   true,
		Explanation: "type match | available | status ok",
	}
	updated := Override(mapping, "b", candidate)

	assert.Equal(t, "greedy-best-fit", updated.MappingID)
	require.Len(t, updated.NodeMappings, 2)
	assert.Equal(t, int64(1), updated.NodeMappings[0].PhysicalDeviceID)
	assert.Equal(t, int64(3), updated.NodeMappings[1].PhysicalDeviceID)
	assert.Equal(t, "ROADM-3", updated.NodeMappings[1].PhysicalDeviceName)
	assert.Equal(t, 0.5, updated.NodeMappings[1].FitScore)
	assert.Equal(t, models.ConfidenceMedium, updated.NodeMappings[1].Confidence)
	assert.Equal(t, candidate.Explanation, updated.NodeMappings[1].Explanation)
	assert.InDelta(t, 0.7, updated.TotalFitScore, 1e-9)
}

func TestOverrideDoesNotMutateInput(t *testing.T) {
	mapping := twoNodeMapping()
	Override(mapping, "b", models.Candidate{DeviceID: 3, FitScore: 0.1})

	assert.Equal(t, int64(2), mapping.NodeMappings[1].PhysicalDeviceID)
	assert.Equal(t, 0.7, mapping.NodeMappings[1].FitScore)
	assert.InDelta(t, 0.8, mapping.TotalFitScore, 1e-9)
}

func TestOverrideStaleLogicalNodeIsNoOp(t *testing.T) {
	mapping := twoNodeMapping()
	updated := Override(mapping, "ghost", models.Candidate{DeviceID: 3, FitScore: 0.1})

	assert.Equal(t, mapping, updated)
}

func TestOverrideBlendsLinkScores(t *testing.T) {
	mapping := twoNodeMapping()
	mapping.LinkMappings = []models.LinkMapping{
		{LogicalEdgeID: "a-b", SourceNodeID: "a", TargetNodeID: "b", FitScore: 1.0},
	}
	updated := Override(mapping, "b", models.Candidate{DeviceID: 3, FitScore: 0.5})

	// 0.7 * mean(0.9, 0.5) + 0.3 * 1.0
	assert.InDelta(t, 0.79, updated.TotalFitScore, 1e-9)
}

func TestApplyRecordsOverride(t *testing.T) {
	recorder := &overrideRecorderStub{}
	svc := NewOverrideService(recorder, validator.New(), nil)

	req := dto.OverrideRequest{
		SessionID:     "sess-1",
		Mapping:       twoNodeMapping(),
		LogicalNodeID: "b",
		Candidate:     models.Candidate{DeviceID: 3, DeviceName: "ROADM-3", DeviceType: "roadm", FitScore: 0.5},
	}
	updated, err := svc.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, updated.TotalFitScore, 1e-9)

	assert.Equal(t, "sess-1", recorder.session)
	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, "greedy-best-fit", record.MappingID)
	assert.Equal(t, "b", record.LogicalNodeID)
	assert.Equal(t, int64(3), record.DeviceID)
	assert.Equal(t, "ROADM-3", record.DeviceName)
	assert.False(t, record.OverriddenAt.IsZero())
}

func TestApplyRecorderFailureIsAdvisory(t *testing.T) {
	recorder := &overrideRecorderStub{err: errors.New("redis down")}
	svc := NewOverrideService(recorder, validator.New(), nil)

	req := dto.OverrideRequest{
		SessionID:     "sess-1",
		Mapping:       twoNodeMapping(),
		LogicalNodeID: "b",
		Candidate:     models.Candidate{DeviceID: 3, FitScore: 0.5},
	}
	updated, err := svc.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, updated.TotalFitScore, 1e-9)
}

func TestApplyRejectsMissingSession(t *testing.T) {
	svc := NewOverrideService(&overrideRecorderStub{}, validator.New(), nil)

	_, err := svc.Apply(context.Background(), dto.OverrideRequest{
		Mapping:       twoNodeMapping(),
		LogicalNodeID: "b",
		Candidate:     models.Candidate{DeviceID: 3},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
