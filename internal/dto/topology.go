package dto

import (
	"time"

	"github.com/opticlab/labres-api/internal/models"
)

// ResolveTopologyRequest asks for physical mappings of a logical topology
// within a reservation window.
type ResolveTopologyRequest struct {
	Nodes       []models.LogicalNode `json:"nodes" validate:"required,min=1,dive"`
	Edges       []models.LogicalEdge `json:"edges" validate:"dive"`
	WindowStart time.Time            `json:"window_start" validate:"required"`
	WindowEnd   time.Time            `json:"window_end" validate:"required,gtfield=WindowStart"`
}

// Topology groups the request nodes and edges.
func (r ResolveTopologyRequest) Topology() models.LogicalTopology {
	return models.LogicalTopology{Nodes: r.Nodes, Edges: r.Edges}
}

// ResolveTopologyResponse carries the raw mapping options.
type ResolveTopologyResponse struct {
	Mappings     []models.Mapping `json:"mappings"`
	TotalOptions int              `json:"total_options"`
}

// SuggestTopologyRequest asks for ranked recommendations; Annotate controls
// whether the forecast overlay is attached.
type SuggestTopologyRequest struct {
	ResolveTopologyRequest
	Annotate bool `json:"annotate"`
}

// SuggestTopologyResponse carries ranked recommendations plus any forecast
// overlay keyed by physical device id.
type SuggestTopologyResponse struct {
	Recommendations []models.Recommendation    `json:"recommendations"`
	Forecasts       map[int64]models.Forecast  `json:"forecasts,omitempty"`
}

// OverrideRequest substitutes a candidate for one logical node of a mapping.
type OverrideRequest struct {
	SessionID     string           `json:"session_id" validate:"required"`
	Mapping       models.Mapping   `json:"mapping" validate:"required"`
	LogicalNodeID string           `json:"logical_node_id" validate:"required"`
	Candidate     models.Candidate `json:"candidate" validate:"required"`
}

// SaveTopologyRequest stores a named logical topology for a session.
type SaveTopologyRequest struct {
	SessionID string                 `json:"session_id" validate:"required"`
	Name      string                 `json:"name" validate:"required"`
	Topology  models.LogicalTopology `json:"topology" validate:"required"`
}

// DismissBookingRequest hides a booking id from a session's timeline.
type DismissBookingRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	BookingID int64  `json:"booking_id" validate:"required"`
}
