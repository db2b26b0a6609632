package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type inventorySnapshot interface {
	Snapshot(ctx context.Context, start, end time.Time) ([]models.Device, []models.Booking, error)
}

// compatibleTypes enumerates which device types can be cabled together.
// ROADM↔Fiber/ILA/Transceiver/Switch, Fiber↔ILA/OTDR, Transceiver↔Switch.
var compatibleTypes = map[[2]string]bool{
	{"roadm", "fiber"}:        true,
	{"roadm", "ila"}:          true,
	{"roadm", "transceiver"}:  true,
	{"roadm", "switch"}:       true,
	{"fiber", "ila"}:          true,
	{"fiber", "otdr"}:         true,
	{"transceiver", "switch"}: true,
}

func typesCompatible(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return compatibleTypes[[2]string{a, b}] || compatibleTypes[[2]string{b, a}]
}

// physicalGraph is an in-memory snapshot of the inventory for one resolution
// pass: every device as a node, compatibility-derived adjacency as edges.
type physicalGraph struct {
	nodes     map[int64]graphNode
	adjacency map[int64]map[int64]bool
}

type graphNode struct {
	device    models.Device
	available bool
}

func (g *physicalGraph) hasEdge(a, b int64) bool {
	return g.adjacency[a][b]
}

// shortestPathLen returns the hop count between two nodes, or -1 when no path
// exists. Plain BFS; inventories are small enough that this stays cheap.
func (g *physicalGraph) shortestPathLen(from, to int64) int {
	if from == to {
		return 0
	}
	visited := map[int64]bool{from: true}
	frontier := []int64{from}
	depth := 0
	for len(frontier) > 0 {
		depth++
		var next []int64
		for _, id := range frontier {
			for neighbor := range g.adjacency[id] {
				if visited[neighbor] {
					continue
				}
				if neighbor == to {
					return depth
				}
				visited[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return -1
}

// TopologyService maps logical topologies onto the physical inventory.
type TopologyService struct {
	inventory   inventorySnapshot
	maintenance *MaintenanceResolver
	validator   *validator.Validate
	logger      *zap.Logger
	maxOptions  int
}

// NewTopologyService wires the resolver.
func NewTopologyService(inventory inventorySnapshot, maintenance *MaintenanceResolver, validate *validator.Validate, logger *zap.Logger, maxOptions int) *TopologyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxOptions <= 0 {
		maxOptions = 3
	}
	return &TopologyService{
		inventory:   inventory,
		maintenance: maintenance,
		validator:   validate,
		logger:      logger,
		maxOptions:  maxOptions,
	}
}

// Resolve maps the requested logical topology onto physical devices within the
// reservation window. Up to maxOptions mappings come back sorted by total fit
// score; an empty result is surfaced as NO_FEASIBLE_MAPPING rather than a
// fabricated placeholder.
func (s *TopologyService) Resolve(ctx context.Context, req dto.ResolveTopologyRequest) (*dto.ResolveTopologyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topology request")
	}

	graph, err := s.buildGraph(ctx, req.WindowStart, req.WindowEnd)
	if err != nil {
		return nil, err
	}

	mappings := s.resolveOnGraph(graph, req.Topology())
	if len(mappings) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoFeasibleMapping,
			"no feasible mapping: no devices in the inventory match the requested topology types")
	}

	return &dto.ResolveTopologyResponse{Mappings: mappings, TotalOptions: len(mappings)}, nil
}

// resolveOnGraph runs the strategies against an already-built graph. The
// recommendation engine uses this to share one snapshot per request.
//
// Pools hold every device of a type, available or not: an all-booked type
// still resolves, with the best unavailable candidate assigned at a zero fit
// score and low confidence. Only a type with no devices at all is infeasible.
func (s *TopologyService) resolveOnGraph(graph *physicalGraph, topology models.LogicalTopology) []models.Mapping {
	devicesByType := make(map[string][]int64)
	ids := make([]int64, 0, len(graph.nodes))
	for id := range graph.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		t := strings.ToLower(graph.nodes[id].device.Type)
		devicesByType[t] = append(devicesByType[t], id)
	}

	var mappings []models.Mapping
	seen := make(map[string]bool)
	strategies := []struct {
		name string
		run  func(models.LogicalTopology, map[string][]int64, *physicalGraph) *models.Mapping
	}{
		{"greedy-best-fit", s.greedyMapping},
		{"balanced-distribution", s.balancedMapping},
		{"connection-optimized", s.connectionOptimizedMapping},
	}
	for _, strat := range strategies {
		m := strat.run(topology, devicesByType, graph)
		if m == nil {
			continue
		}
		m.MappingID = strat.name
		if seen[m.MappingID] {
			m.MappingID = fmt.Sprintf("%s-%s", strat.name, uuid.NewString()[:8])
		}
		seen[m.MappingID] = true
		mappings = append(mappings, *m)
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].TotalFitScore > mappings[j].TotalFitScore
	})
	if len(mappings) > s.maxOptions {
		mappings = mappings[:s.maxOptions]
	}
	return mappings
}

// buildGraph snapshots the inventory and derives type-compatibility adjacency.
func (s *TopologyService) buildGraph(ctx context.Context, start, end time.Time) (*physicalGraph, error) {
	devices, bookings, err := s.inventory.Snapshot(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot inventory")
	}

	graph := &physicalGraph{
		nodes:     make(map[int64]graphNode, len(devices)),
		adjacency: make(map[int64]map[int64]bool),
	}

	bookingsByDevice := make(map[string][]models.Booking)
	for _, b := range bookings {
		if !b.Occupies() {
			continue
		}
		key := b.DeviceType + "/" + b.DeviceName
		bookingsByDevice[key] = append(bookingsByDevice[key], b)
	}

	for _, device := range devices {
		graph.nodes[device.ID] = graphNode{
			device:    device,
			available: s.deviceAvailable(device, bookingsByDevice[device.Type+"/"+device.Name], start, end),
		}
		graph.adjacency[device.ID] = make(map[int64]bool)
	}

	for i, a := range devices {
		for _, b := range devices[i+1:] {
			if typesCompatible(a.Type, b.Type) {
				graph.adjacency[a.ID][b.ID] = true
				graph.adjacency[b.ID][a.ID] = true
			}
		}
	}

	return graph, nil
}

func (s *TopologyService) deviceAvailable(device models.Device, bookings []models.Booking, start, end time.Time) bool {
	switch device.Status {
	case models.DeviceOffline:
		return false
	case models.DeviceMaintenance:
		if s.maintenance.Overlaps(start, end, device) {
			return false
		}
	}
	for _, b := range bookings {
		if b.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// matchNode scores every type-matching device and returns candidates sorted by
// fit score. Unavailable devices stay in the list with a zero score so the
// alternatives remain informative.
func (s *TopologyService) matchNode(node models.LogicalNode, deviceIDs []int64, graph *physicalGraph) []models.Candidate {
	var candidates []models.Candidate
	for _, id := range deviceIDs {
		gn, ok := graph.nodes[id]
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(gn.device.Type), strings.TrimSpace(node.DeviceType)) {
			continue
		}
		score, explanation := s.fitScore(node, gn)
		candidates = append(candidates, models.Candidate{
			DeviceID:    id,
			DeviceName:  gn.device.Name,
			DeviceType:  gn.device.Type,
			FitScore:    score,
			Available:   gn.available,
			Explanation: explanation,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FitScore > candidates[j].FitScore
	})
	return candidates
}

// fitScore rates one (logical node, physical device) pair in [0, 1] with a
// human-readable factor trail. Type match is a precondition of being called;
// unavailability zeroes the score outright.
func (s *TopologyService) fitScore(node models.LogicalNode, gn graphNode) (float64, string) {
	factors := []string{"type match"}

	if !gn.available {
		factors = append(factors, "unavailable in window")
		return 0, strings.Join(factors, " | ")
	}
	factors = append(factors, "available")

	if gn.device.Status == models.DeviceAvailable {
		factors = append(factors, "status ok")
	} else {
		factors = append(factors, "status "+strings.ToLower(string(gn.device.Status)))
	}

	var paramFactors []string
	if node.Parameters["length"] != "" {
		paramFactors = append(paramFactors, "length acceptable")
	}
	if node.Parameters["gain"] != "" {
		paramFactors = append(paramFactors, "gain acceptable")
	}
	if len(paramFactors) > 0 {
		factors = append(factors, "attributes: "+strings.Join(paramFactors, ", "))
	}

	return 1.0, strings.Join(factors, " | ")
}

func (s *TopologyService) greedyMapping(topology models.LogicalTopology, devicesByType map[string][]int64, graph *physicalGraph) *models.Mapping {
	var nodeMappings []models.NodeMapping
	used := make(map[int64]bool)

	for _, node := range topology.Nodes {
		pool := devicesByType[strings.ToLower(node.DeviceType)]
		candidates := unusedFirst(pool, used)

		matches := s.matchNode(node, candidates, graph)
		if len(matches) == 0 {
			return nil
		}

		best := matches[0]
		used[best.DeviceID] = true
		nodeMappings = append(nodeMappings, newNodeMapping(node.ID, best, alternatives(matches)))
	}

	linkMappings := s.linkMappings(topology.Edges, nodeMappings, graph)
	return assembleMapping(nodeMappings, linkMappings,
		"Greedy best-fit mapping. All nodes matched to best available devices.")
}

func (s *TopologyService) balancedMapping(topology models.LogicalTopology, devicesByType map[string][]int64, graph *physicalGraph) *models.Mapping {
	var nodeMappings []models.NodeMapping
	usage := make(map[int64]int)

	for _, node := range topology.Nodes {
		pool := devicesByType[strings.ToLower(node.DeviceType)]
		if len(pool) == 0 {
			return nil
		}

		matches := s.matchNode(node, pool, graph)
		if len(matches) == 0 {
			return nil
		}

		// Reuse penalty of 0.1 per prior assignment steers the strategy
		// toward spreading load across the inventory.
		adjusted := make([]models.Candidate, len(matches))
		copy(adjusted, matches)
		sort.SliceStable(adjusted, func(i, j int) bool {
			si := adjusted[i].FitScore - float64(usage[adjusted[i].DeviceID])*0.1
			sj := adjusted[j].FitScore - float64(usage[adjusted[j].DeviceID])*0.1
			return si > sj
		})

		best := adjusted[0]
		usage[best.DeviceID]++
		nodeMappings = append(nodeMappings, newNodeMapping(node.ID, best, alternatives(adjusted)))
	}

	linkMappings := s.linkMappings(topology.Edges, nodeMappings, graph)
	return assembleMapping(nodeMappings, linkMappings,
		"Balanced distribution mapping. Tries to use different devices when possible.")
}

func (s *TopologyService) connectionOptimizedMapping(topology models.LogicalTopology, devicesByType map[string][]int64, graph *physicalGraph) *models.Mapping {
	var nodeMappings []models.NodeMapping
	used := make(map[int64]bool)

	logicalAdjacency := make(map[string]map[string]bool)
	addAdj := func(a, b string) {
		if logicalAdjacency[a] == nil {
			logicalAdjacency[a] = make(map[string]bool)
		}
		logicalAdjacency[a][b] = true
	}
	for _, edge := range topology.Edges {
		addAdj(edge.Source, edge.Target)
		addAdj(edge.Target, edge.Source)
	}

	for _, node := range topology.Nodes {
		pool := devicesByType[strings.ToLower(node.DeviceType)]
		candidates := unusedFirst(pool, used)

		matches := s.matchNode(node, candidates, graph)
		if len(matches) == 0 {
			return nil
		}

		// 0.1 bonus per already-mapped logical neighbor with a physical
		// edge to this device, capped at 1.0.
		boosted := make([]models.Candidate, len(matches))
		copy(boosted, matches)
		for i := range boosted {
			bonus := 0.0
			for neighborID := range logicalAdjacency[node.ID] {
				for _, nm := range nodeMappings {
					if nm.LogicalNodeID == neighborID && graph.hasEdge(boosted[i].DeviceID, nm.PhysicalDeviceID) {
						bonus += 0.1
						break
					}
				}
			}
			boosted[i].FitScore = math.Min(1.0, boosted[i].FitScore+bonus)
		}
		sort.SliceStable(boosted, func(i, j int) bool {
			return boosted[i].FitScore > boosted[j].FitScore
		})

		best := boosted[0]
		used[best.DeviceID] = true
		nodeMappings = append(nodeMappings, newNodeMapping(node.ID, best, alternatives(boosted)))
	}

	linkMappings := s.linkMappings(topology.Edges, nodeMappings, graph)
	return assembleMapping(nodeMappings, linkMappings,
		"Connection-optimized mapping. Prefers physically connected devices.")
}

// linkMappings scores each logical edge against the chosen devices: 1.0 for a
// direct physical edge, a path-length decay floored at 0.5 for reachable
// pairs, 0.3 for unreachable pairs and 0.0 when an endpoint is unmapped.
func (s *TopologyService) linkMappings(edges []models.LogicalEdge, nodeMappings []models.NodeMapping, graph *physicalGraph) []models.LinkMapping {
	lookup := make(map[string]int64, len(nodeMappings))
	for _, nm := range nodeMappings {
		lookup[nm.LogicalNodeID] = nm.PhysicalDeviceID
	}

	var links []models.LinkMapping
	for _, edge := range edges {
		edgeID := edge.ID
		if edgeID == "" {
			edgeID = edge.Source + "-" + edge.Target
		}
		lm := models.LinkMapping{
			LogicalEdgeID: edgeID,
			SourceNodeID:  edge.Source,
			TargetNodeID:  edge.Target,
		}

		source, sourceOK := lookup[edge.Source]
		target, targetOK := lookup[edge.Target]
		switch {
		case !sourceOK || !targetOK:
			lm.FitScore = 0.0
			lm.Explanation = "Source or target device not mapped"
		case graph.hasEdge(source, target):
			lm.FitScore = 1.0
			lm.Explanation = "Direct physical connection"
			lm.PhysicalLinkID = fmt.Sprintf("link-%d-%d", source, target)
		default:
			if pathLen := graph.shortestPathLen(source, target); pathLen > 0 {
				lm.FitScore = math.Max(0.5, 1.0-float64(pathLen-1)*0.2)
				lm.Explanation = fmt.Sprintf("Indirect connection (path length: %d)", pathLen)
			} else {
				lm.FitScore = 0.3
				lm.Explanation = "No physical path (may require additional configuration)"
			}
			lm.PhysicalLinkID = fmt.Sprintf("link-%d-%d", source, target)
		}
		lm.FitScore = round2(lm.FitScore)
		links = append(links, lm)
	}
	return links
}

func newNodeMapping(logicalID string, best models.Candidate, alts []models.Candidate) models.NodeMapping {
	return models.NodeMapping{
		LogicalNodeID:      logicalID,
		PhysicalDeviceID:   best.DeviceID,
		PhysicalDeviceName: best.DeviceName,
		PhysicalDeviceType: best.DeviceType,
		FitScore:           best.FitScore,
		Confidence:         models.ConfidenceFor(best.FitScore),
		Alternatives:       alts,
		Explanation:        best.Explanation,
	}
}

// alternatives keeps the top three runners-up.
func alternatives(matches []models.Candidate) []models.Candidate {
	if len(matches) <= 1 {
		return nil
	}
	rest := matches[1:]
	if len(rest) > 3 {
		rest = rest[:3]
	}
	out := make([]models.Candidate, len(rest))
	copy(out, rest)
	return out
}

func unusedFirst(pool []int64, used map[int64]bool) []int64 {
	var unused []int64
	for _, id := range pool {
		if !used[id] {
			unused = append(unused, id)
		}
	}
	if len(unused) > 0 {
		return unused
	}
	// Everything is taken; reuse is preferable to failing the strategy.
	return pool
}

func assembleMapping(nodeMappings []models.NodeMapping, linkMappings []models.LinkMapping, notes string) *models.Mapping {
	m := &models.Mapping{
		NodeMappings: nodeMappings,
		LinkMappings: linkMappings,
		Notes:        notes,
	}
	m.RecomputeTotalFitScore()
	m.TotalFitScore = round2(m.TotalFitScore)
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
