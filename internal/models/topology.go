package models

// LogicalNode is one requested node in a logical topology.
type LogicalNode struct {
	ID         string            `json:"id"`
	DeviceType string            `json:"device_type"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// LogicalEdge is one requested connection between two logical nodes.
type LogicalEdge struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// LogicalTopology is the transient graph a reservation request describes.
// It only exists during resolution and is never persisted.
type LogicalTopology struct {
	Nodes []LogicalNode `json:"nodes"`
	Edges []LogicalEdge `json:"edges"`
}

// Confidence buckets a node mapping's fit score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor buckets a fit score: >=0.8 high, >=0.5 medium, else low.
func ConfidenceFor(fitScore float64) Confidence {
	switch {
	case fitScore >= 0.8:
		return ConfidenceHigh
	case fitScore >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Candidate is one physical device considered for a logical node.
type Candidate struct {
	DeviceID    int64   `json:"device_id"`
	DeviceName  string  `json:"device_name"`
	DeviceType  string  `json:"device_type"`
	FitScore    float64 `json:"fit_score"`
	Available   bool    `json:"available"`
	Explanation string  `json:"explanation,omitempty"`
}

// NodeMapping assigns a logical node to a physical device.
type NodeMapping struct {
	LogicalNodeID      string      `json:"logical_node_id"`
	PhysicalDeviceID   int64       `json:"physical_device_id"`
	PhysicalDeviceName string      `json:"physical_device_name"`
	PhysicalDeviceType string      `json:"physical_device_type"`
	FitScore           float64     `json:"fit_score"`
	Confidence         Confidence  `json:"confidence"`
	Alternatives       []Candidate `json:"alternatives,omitempty"`
	Explanation        string      `json:"explanation,omitempty"`
}

// LinkMapping assigns a logical edge to a physical connection.
type LinkMapping struct {
	LogicalEdgeID  string  `json:"logical_edge_id"`
	SourceNodeID   string  `json:"source_node_id"`
	TargetNodeID   string  `json:"target_node_id"`
	PhysicalLinkID string  `json:"physical_link_id,omitempty"`
	FitScore       float64 `json:"fit_score"`
	Explanation    string  `json:"explanation,omitempty"`
}

// Mapping is a complete assignment of a logical topology onto physical devices.
type Mapping struct {
	MappingID     string        `json:"mapping_id"`
	TotalFitScore float64       `json:"total_fit_score"`
	NodeMappings  []NodeMapping `json:"node_mappings"`
	LinkMappings  []LinkMapping `json:"link_mappings"`
	Notes         string        `json:"notes,omitempty"`
}

// RecomputeTotalFitScore refreshes TotalFitScore from the per-node and
// per-link scores: a 70/30 node/link blend, falling back to the plain node
// mean when the mapping has no links.
func (m *Mapping) RecomputeTotalFitScore() {
	if len(m.NodeMappings) == 0 {
		m.TotalFitScore = 0
		return
	}
	var nodeSum float64
	for _, nm := range m.NodeMappings {
		nodeSum += nm.FitScore
	}
	nodeMean := nodeSum / float64(len(m.NodeMappings))

	if len(m.LinkMappings) == 0 {
		m.TotalFitScore = nodeMean
		return
	}
	var linkSum float64
	for _, lm := range m.LinkMappings {
		linkSum += lm.FitScore
	}
	linkMean := linkSum / float64(len(m.LinkMappings))
	m.TotalFitScore = nodeMean*0.7 + linkMean*0.3
}
