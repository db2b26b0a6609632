package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type statsStub struct {
	byDevice map[int64]models.BookingStats
	byType   map[string]models.BookingStats
}

func (s *statsStub) StatsForDevice(ctx context.Context, deviceID int64, daysBack int) (models.BookingStats, error) {
	if stats, ok := s.byDevice[deviceID]; ok {
		return stats, nil
	}
	return models.BookingStats{}, errors.New("no device history")
}

func (s *statsStub) StatsForType(ctx context.Context, deviceType string, daysBack int) (models.BookingStats, error) {
	if stats, ok := s.byType[deviceType]; ok {
		return stats, nil
	}
	return models.BookingStats{}, errors.New("no type history")
}

type forecastStub struct {
	forecasts map[int64]models.Forecast
	err       error
	calls     int
}

func (s *forecastStub) Forecasts(ctx context.Context, deviceIDs []int64, start, end time.Time) (map[int64]models.Forecast, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.forecasts, nil
}

func newRecommendationFixture(t *testing.T, devices []models.Device, stats statsSource, forecasts ForecastSource) *RecommendationService {
	t.Helper()
	return NewRecommendationService(
		newTopologyFixture(t, devices, nil),
		stats,
		forecasts,
		validator.New(),
		nil,
		nil,
		RecommendationWeights{},
		0,
	)
}

func suggestRequest(annotate bool) dto.SuggestTopologyRequest {
	return dto.SuggestTopologyRequest{
		ResolveTopologyRequest: resolveRequest(
			[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil),
		Annotate: annotate,
	}
}

func perfectHistory() models.BookingStats {
	return models.BookingStats{TotalBookings: 10, Confirmed: 10}
}

func TestSuggestScoresAndRationale(t *testing.T) {
	stats := &statsStub{byDevice: map[int64]models.BookingStats{1: perfectHistory()}}
	svc := newRecommendationFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, stats, nil)

	resp, err := svc.Suggest(context.Background(), suggestRequest(false))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)

	rec := resp.Recommendations[0]
	assert.Equal(t, 1.0, rec.PerformanceScore)
	assert.Equal(t, 1.0, rec.AvailabilityScore)
	// One unique device for one node.
	assert.Equal(t, 0.75, rec.EfficiencyScore)
	assert.Equal(t, 1.0, rec.ReliabilityScore)
	assert.Equal(t, 0.938, rec.RecommendationScore)
	assert.Equal(t,
		"Excellent performance fit | All devices available | Efficient resource usage | High historical reliability",
		rec.Rationale)
	assert.Nil(t, rec.EarliestAvailableSlot)
	assert.Nil(t, resp.Forecasts)
}

func TestSuggestTieBreaksOnMappingID(t *testing.T) {
	svc := newRecommendationFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, nil, nil)

	resp, err := svc.Suggest(context.Background(), suggestRequest(false))
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 3)

	// All three strategies produce identical scores here, so the mapping id
	// decides the order.
	assert.Equal(t, "balanced-distribution", resp.Recommendations[0].Mapping.MappingID)
	assert.Equal(t, "connection-optimized", resp.Recommendations[1].Mapping.MappingID)
	assert.Equal(t, "greedy-best-fit", resp.Recommendations[2].Mapping.MappingID)
}

func TestSuggestForecastOverlay(t *testing.T) {
	slot := time.Date(2025, 6, 3, 7, 0, 0, 0, time.UTC)
	forecasts := &forecastStub{forecasts: map[int64]models.Forecast{
		1: {AvailabilityProbability: 0.4, Confidence: 0.9, EarliestAvailableSlot: &slot},
	}}
	svc := newRecommendationFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, nil, forecasts)

	resp, err := svc.Suggest(context.Background(), suggestRequest(true))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)

	rec := resp.Recommendations[0]
	assert.Equal(t, 0.4, rec.AvailabilityScore)
	assert.Contains(t, rec.Rationale, "Limited availability")
	require.NotNil(t, rec.EarliestAvailableSlot)
	assert.True(t, rec.EarliestAvailableSlot.Equal(slot))
	assert.Equal(t, forecasts.forecasts, resp.Forecasts)
}

func TestSuggestForecastErrorDegrades(t *testing.T) {
	forecasts := &forecastStub{err: errors.New("connection refused")}
	svc := newRecommendationFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, nil, forecasts)

	resp, err := svc.Suggest(context.Background(), suggestRequest(true))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)

	// Ranking falls back to the snapshot availability.
	assert.Equal(t, 1.0, resp.Recommendations[0].AvailabilityScore)
	assert.Nil(t, resp.Forecasts)
}

func TestSuggestWithoutAnnotateSkipsCollaborator(t *testing.T) {
	forecasts := &forecastStub{}
	svc := newRecommendationFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, nil, forecasts)

	resp, err := svc.Suggest(context.Background(), suggestRequest(false))
	require.NoError(t, err)
	assert.Zero(t, forecasts.calls)
	assert.Nil(t, resp.Forecasts)
}

func TestSuggestInfeasibleTopology(t *testing.T) {
	svc := newRecommendationFixture(t, nil, nil, nil)

	_, err := svc.Suggest(context.Background(), suggestRequest(false))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoFeasibleMapping.Code, appErrors.FromError(err).Code)
}

func TestAnnotateRequiresCollaborator(t *testing.T) {
	svc := newRecommendationFixture(t, nil, nil, nil)

	_, err := svc.Annotate(context.Background(), models.Mapping{}, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCollaboratorUnavailable.Code, appErrors.FromError(err).Code)

	svc = newRecommendationFixture(t, nil, nil, &forecastStub{err: errors.New("timeout")})
	_, err = svc.Annotate(context.Background(), models.Mapping{}, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCollaboratorUnavailable.Code, appErrors.FromError(err).Code)
}

func TestEfficiencyRewardsReuse(t *testing.T) {
	reused := models.Mapping{NodeMappings: []models.NodeMapping{
		{LogicalNodeID: "a", PhysicalDeviceID: 1},
		{LogicalNodeID: "b", PhysicalDeviceID: 1},
	}}
	spread := models.Mapping{NodeMappings: []models.NodeMapping{
		{LogicalNodeID: "a", PhysicalDeviceID: 1},
		{LogicalNodeID: "b", PhysicalDeviceID: 2},
	}}

	assert.Equal(t, 1.0, efficiencyScore(reused))
	assert.Equal(t, 0.75, efficiencyScore(spread))
	assert.Equal(t, 0.0, efficiencyScore(models.Mapping{}))
}

func TestReliabilityFallbackChain(t *testing.T) {
	stats := &statsStub{
		byType: map[string]models.BookingStats{
			"roadm": {TotalBookings: 10, Confirmed: 8, Conflicting: 2},
		},
	}
	svc := newRecommendationFixture(t, nil, stats, nil)

	// No per-device history, so the type history decides:
	// 0.8 * (1 - 0.2*0.5) = 0.72.
	mapping := models.Mapping{NodeMappings: []models.NodeMapping{
		{LogicalNodeID: "a", PhysicalDeviceID: 42, PhysicalDeviceType: "roadm"},
	}}
	assert.InDelta(t, 0.72, svc.reliabilityScore(context.Background(), mapping), 1e-9)

	// No history at all is neutral.
	mapping.NodeMappings[0].PhysicalDeviceType = "otdr"
	assert.Equal(t, 0.5, svc.reliabilityScore(context.Background(), mapping))
}

func TestEarliestMappingSlotIsLatestPerDevice(t *testing.T) {
	early := time.Date(2025, 6, 3, 7, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

	mapping := models.Mapping{NodeMappings: []models.NodeMapping{
		{LogicalNodeID: "a", PhysicalDeviceID: 1},
		{LogicalNodeID: "b", PhysicalDeviceID: 2},
	}}
	forecasts := map[int64]models.Forecast{
		1: {EarliestAvailableSlot: &late},
		2: {EarliestAvailableSlot: &early},
	}

	got := earliestMappingSlot(mapping, forecasts)
	require.NotNil(t, got)
	assert.True(t, got.Equal(late))

	assert.Nil(t, earliestMappingSlot(mapping, nil))
}

func TestRationaleStandardConfiguration(t *testing.T) {
	assert.Equal(t, "Standard configuration", rationale(0.5, 0.6, 0.5, 0.6))
}
