package models

import "time"

// Forecast is the availability estimate for one physical device. It is an
// overlay signal only and never feeds back into fit scores.
type Forecast struct {
	AvailabilityProbability float64    `json:"availability_probability"`
	Confidence              float64    `json:"confidence"`
	EarliestAvailableSlot   *time.Time `json:"earliest_available_slot,omitempty"`
	Factors                 []string   `json:"factors,omitempty"`
}

// Recommendation is a mapping annotated with multi-criteria scores and a
// composite ranking score.
type Recommendation struct {
	Mapping               Mapping    `json:"mapping"`
	PerformanceScore      float64    `json:"performance_score"`
	AvailabilityScore     float64    `json:"availability_score"`
	EfficiencyScore       float64    `json:"efficiency_score"`
	ReliabilityScore      float64    `json:"reliability_score"`
	RecommendationScore   float64    `json:"recommendation_score"`
	Rationale             string     `json:"rationale"`
	EarliestAvailableSlot *time.Time `json:"earliest_available_slot,omitempty"`
}

// SavedTopology is an operator-saved logical topology, persisted through the
// session repository rather than browser-local storage.
type SavedTopology struct {
	Name     string          `json:"name"`
	Topology LogicalTopology `json:"topology"`
	SavedAt  time.Time       `json:"saved_at"`
}
