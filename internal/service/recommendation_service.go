package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type statsSource interface {
	StatsForDevice(ctx context.Context, deviceID int64, daysBack int) (models.BookingStats, error)
	StatsForType(ctx context.Context, deviceType string, daysBack int) (models.BookingStats, error)
}

// ForecastSource supplies availability forecasts from the collaborator.
type ForecastSource interface {
	Forecasts(ctx context.Context, deviceIDs []int64, start, end time.Time) (map[int64]models.Forecast, error)
}

// RecommendationWeights controls the blend of the four ranking axes. The
// weights are normalized by their sum, so any positive values work.
type RecommendationWeights struct {
	Performance  float64
	Availability float64
	Efficiency   float64
	Reliability  float64
}

// DefaultRecommendationWeights weighs the four axes equally.
func DefaultRecommendationWeights() RecommendationWeights {
	return RecommendationWeights{Performance: 0.25, Availability: 0.25, Efficiency: 0.25, Reliability: 0.25}
}

func (w RecommendationWeights) sum() float64 {
	return w.Performance + w.Availability + w.Efficiency + w.Reliability
}

// RecommendationService ranks resolver mappings on performance, availability,
// resource efficiency and historical reliability.
type RecommendationService struct {
	topology    *TopologyService
	stats       statsSource
	forecasts   ForecastSource
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	weights     RecommendationWeights
	historyDays int
}

// NewRecommendationService wires the ranking engine. The forecast provider is
// optional; without one, availability falls back to the snapshot flags.
func NewRecommendationService(
	topology *TopologyService,
	stats statsSource,
	forecasts ForecastSource,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
	weights RecommendationWeights,
	historyDays int,
) *RecommendationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if weights.sum() <= 0 {
		weights = DefaultRecommendationWeights()
	}
	if historyDays <= 0 {
		historyDays = 90
	}
	return &RecommendationService{
		topology:    topology,
		stats:       stats,
		forecasts:   forecasts,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		weights:     weights,
		historyDays: historyDays,
	}
}

// Suggest resolves the topology and ranks the resulting mappings. Forecast
// annotation is best-effort here: a dead collaborator degrades to snapshot
// availability instead of failing the suggestion.
func (s *RecommendationService) Suggest(ctx context.Context, req dto.SuggestTopologyRequest) (*dto.SuggestTopologyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion request")
	}

	graph, err := s.topology.buildGraph(ctx, req.WindowStart, req.WindowEnd)
	if err != nil {
		return nil, err
	}
	mappings := s.topology.resolveOnGraph(graph, req.Topology())
	if len(mappings) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoFeasibleMapping,
			"no feasible mapping: nothing to rank for the requested topology")
	}

	var forecasts map[int64]models.Forecast
	if req.Annotate && s.forecasts != nil {
		forecasts, err = s.forecasts.Forecasts(ctx, mappedDeviceIDs(mappings), req.WindowStart, req.WindowEnd)
		if err != nil {
			s.logger.Warn("forecast collaborator unavailable, ranking without overlay", zap.Error(err))
			s.metrics.RecordForecastError()
			forecasts = nil
		}
	}

	recommendations := make([]models.Recommendation, 0, len(mappings))
	for _, mapping := range mappings {
		rec := s.scoreMapping(ctx, mapping, forecasts)
		recommendations = append(recommendations, rec)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].RecommendationScore != recommendations[j].RecommendationScore {
			return recommendations[i].RecommendationScore > recommendations[j].RecommendationScore
		}
		if recommendations[i].Mapping.TotalFitScore != recommendations[j].Mapping.TotalFitScore {
			return recommendations[i].Mapping.TotalFitScore > recommendations[j].Mapping.TotalFitScore
		}
		return recommendations[i].Mapping.MappingID < recommendations[j].Mapping.MappingID
	})

	resp := &dto.SuggestTopologyResponse{Recommendations: recommendations}
	if req.Annotate {
		resp.Forecasts = forecasts
	}
	return resp, nil
}

// Annotate fetches the forecast overlay for every device a mapping touches.
// The overlay never feeds back into fit scores; devices the collaborator has
// no data for are simply absent from the result.
func (s *RecommendationService) Annotate(ctx context.Context, mapping models.Mapping, start, end time.Time) (map[int64]models.Forecast, error) {
	if s.forecasts == nil {
		return nil, appErrors.Clone(appErrors.ErrCollaboratorUnavailable, "forecast collaborator is not configured")
	}
	forecasts, err := s.forecasts.Forecasts(ctx, mappedDeviceIDs([]models.Mapping{mapping}), start, end)
	if err != nil {
		s.metrics.RecordForecastError()
		return nil, appErrors.Wrap(err, appErrors.ErrCollaboratorUnavailable.Code, appErrors.ErrCollaboratorUnavailable.Status,
			"forecast collaborator unavailable")
	}
	return forecasts, nil
}

func (s *RecommendationService) scoreMapping(ctx context.Context, mapping models.Mapping, forecasts map[int64]models.Forecast) models.Recommendation {
	performance := performanceScore(mapping)
	availability := availabilityScore(mapping, forecasts)
	efficiency := efficiencyScore(mapping)
	reliability := s.reliabilityScore(ctx, mapping)

	total := s.weights.sum()
	combined := (performance*s.weights.Performance +
		availability*s.weights.Availability +
		efficiency*s.weights.Efficiency +
		reliability*s.weights.Reliability) / total

	return models.Recommendation{
		Mapping:               mapping,
		PerformanceScore:      round3(performance),
		AvailabilityScore:     round3(availability),
		EfficiencyScore:       round3(efficiency),
		ReliabilityScore:      round3(reliability),
		RecommendationScore:   round3(combined),
		Rationale:             rationale(performance, availability, efficiency, reliability),
		EarliestAvailableSlot: earliestMappingSlot(mapping, forecasts),
	}
}

// performanceScore is the mean node fit score.
func performanceScore(mapping models.Mapping) float64 {
	if len(mapping.NodeMappings) == 0 {
		return 0
	}
	var sum float64
	for _, nm := range mapping.NodeMappings {
		sum += nm.FitScore
	}
	return sum / float64(len(mapping.NodeMappings))
}

// availabilityScore is the share of available primary devices. When a forecast
// covers a device, its probability replaces the binary snapshot flag.
func availabilityScore(mapping models.Mapping, forecasts map[int64]models.Forecast) float64 {
	if len(mapping.NodeMappings) == 0 {
		return 0
	}
	var sum float64
	for _, nm := range mapping.NodeMappings {
		if f, ok := forecasts[nm.PhysicalDeviceID]; ok {
			sum += f.AvailabilityProbability
			continue
		}
		// A positive fit score implies the resolver saw the device free.
		if nm.FitScore > 0 {
			sum += 1
		}
	}
	return sum / float64(len(mapping.NodeMappings))
}

// efficiencyScore rewards device reuse: fewer unique devices per logical node
// scores higher.
func efficiencyScore(mapping models.Mapping) float64 {
	total := len(mapping.NodeMappings)
	if total == 0 {
		return 0
	}
	unique := make(map[int64]bool, total)
	for _, nm := range mapping.NodeMappings {
		unique[nm.PhysicalDeviceID] = true
	}
	efficiency := 1.0 - (float64(len(unique))/float64(total)-0.5)*0.5
	return math.Max(0, math.Min(1, efficiency))
}

// reliabilityScore averages per-device historical reliability, falling back to
// the device type's history and then to the neutral 0.5.
func (s *RecommendationService) reliabilityScore(ctx context.Context, mapping models.Mapping) float64 {
	if len(mapping.NodeMappings) == 0 {
		return 0
	}
	if s.stats == nil {
		return 0.5
	}
	var sum float64
	for _, nm := range mapping.NodeMappings {
		sum += s.deviceReliability(ctx, nm)
	}
	return sum / float64(len(mapping.NodeMappings))
}

func (s *RecommendationService) deviceReliability(ctx context.Context, nm models.NodeMapping) float64 {
	if nm.PhysicalDeviceID != 0 {
		if stats, err := s.stats.StatsForDevice(ctx, nm.PhysicalDeviceID, s.historyDays); err == nil {
			return stats.ReliabilityScore()
		}
	}
	if nm.PhysicalDeviceType != "" {
		if stats, err := s.stats.StatsForType(ctx, nm.PhysicalDeviceType, s.historyDays); err == nil {
			return stats.ReliabilityScore()
		}
	}
	return 0.5
}

func rationale(performance, availability, efficiency, reliability float64) string {
	var parts []string

	if performance >= 0.8 {
		parts = append(parts, "Excellent performance fit")
	} else if performance >= 0.6 {
		parts = append(parts, "Good performance fit")
	}

	if availability >= 0.9 {
		parts = append(parts, "All devices available")
	} else if availability >= 0.7 {
		parts = append(parts, "Most devices available")
	} else if availability < 0.5 {
		parts = append(parts, "Limited availability")
	}

	if efficiency >= 0.7 {
		parts = append(parts, "Efficient resource usage")
	}

	if reliability >= 0.8 {
		parts = append(parts, "High historical reliability")
	} else if reliability < 0.5 {
		parts = append(parts, "Lower reliability (check alternatives)")
	}

	if len(parts) == 0 {
		return "Standard configuration"
	}
	return strings.Join(parts, " | ")
}

// earliestMappingSlot is the instant every mapped device is forecast free: the
// latest of the per-device earliest slots. Nil when no forecast offers one.
func earliestMappingSlot(mapping models.Mapping, forecasts map[int64]models.Forecast) *time.Time {
	var latest *time.Time
	for _, nm := range mapping.NodeMappings {
		f, ok := forecasts[nm.PhysicalDeviceID]
		if !ok || f.EarliestAvailableSlot == nil {
			continue
		}
		if latest == nil || f.EarliestAvailableSlot.After(*latest) {
			slot := *f.EarliestAvailableSlot
			latest = &slot
		}
	}
	return latest
}

func mappedDeviceIDs(mappings []models.Mapping) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, m := range mappings {
		for _, nm := range m.NodeMappings {
			if !seen[nm.PhysicalDeviceID] {
				seen[nm.PhysicalDeviceID] = true
				ids = append(ids, nm.PhysicalDeviceID)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
