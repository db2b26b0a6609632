package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

type inventoryStub struct {
	devices  []models.Device
	bookings []models.Booking
	err      error
}

func (s *inventoryStub) Snapshot(ctx context.Context, start, end time.Time) ([]models.Device, []models.Booking, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.devices, s.bookings, nil
}

func newTopologyFixture(t *testing.T, devices []models.Device, bookings []models.Booking) *TopologyService {
	t.Helper()
	return NewTopologyService(
		&inventoryStub{devices: devices, bookings: bookings},
		NewMaintenanceResolver(mustGrid(t)),
		validator.New(),
		nil,
		0,
	)
}

func labDevice(id int64, deviceType, name string) models.Device {
	return models.Device{ID: id, Type: deviceType, Name: name, Status: models.DeviceAvailable}
}

func resolveRequest(nodes []models.LogicalNode, edges []models.LogicalEdge) dto.ResolveTopologyRequest {
	return dto.ResolveTopologyRequest{
		Nodes:       nodes,
		Edges:       edges,
		WindowStart: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestResolveSingleNode(t *testing.T) {
	svc := newTopologyFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)
	require.Len(t, resp.Mappings, 3)
	assert.Equal(t, 3, resp.TotalOptions)

	// Equal scores keep the strategy order stable.
	assert.Equal(t, "greedy-best-fit", resp.Mappings[0].MappingID)
	assert.Equal(t, "balanced-distribution", resp.Mappings[1].MappingID)
	assert.Equal(t, "connection-optimized", resp.Mappings[2].MappingID)

	for _, m := range resp.Mappings {
		assert.Equal(t, 1.0, m.TotalFitScore)
		require.Len(t, m.NodeMappings, 1)
		nm := m.NodeMappings[0]
		assert.Equal(t, "a", nm.LogicalNodeID)
		assert.Equal(t, int64(1), nm.PhysicalDeviceID)
		assert.Equal(t, 1.0, nm.FitScore)
		assert.Equal(t, models.ConfidenceHigh, nm.Confidence)
		assert.Equal(t, "type match | available | status ok", nm.Explanation)
		assert.Empty(t, nm.Alternatives)
	}
}

func TestResolveNoTypeMatch(t *testing.T) {
	svc := newTopologyFixture(t, []models.Device{labDevice(1, "fiber", "FIBER-1")}, nil)

	_, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoFeasibleMapping.Code, appErrors.FromError(err).Code)
}

func TestResolveOfflineDeviceFallsBackLowConfidence(t *testing.T) {
	offline := labDevice(1, "roadm", "ROADM-1")
	offline.Status = models.DeviceOffline
	svc := newTopologyFixture(t, []models.Device{offline}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Mappings)

	for _, m := range resp.Mappings {
		require.Len(t, m.NodeMappings, 1)
		nm := m.NodeMappings[0]
		assert.Equal(t, int64(1), nm.PhysicalDeviceID)
		assert.Equal(t, 0.0, nm.FitScore)
		assert.Equal(t, models.ConfidenceLow, nm.Confidence)
		assert.Equal(t, "type match | unavailable in window", nm.Explanation)
	}
}

func TestResolveFullyBookedDeviceFallsBack(t *testing.T) {
	device := labDevice(1, "roadm", "ROADM-1")
	booking := models.Booking{
		ID:         1,
		DeviceType: "roadm",
		DeviceName: "ROADM-1",
		StartTime:  time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Status:     models.BookingConfirmed,
	}

	// The only matching device is booked inside the window; the resolver
	// still assigns it rather than failing, at zero fit and low confidence.
	svc := newTopologyFixture(t, []models.Device{device}, []models.Booking{booking})
	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Mappings)
	for _, m := range resp.Mappings {
		require.Len(t, m.NodeMappings, 1)
		assert.Equal(t, 0.0, m.NodeMappings[0].FitScore)
		assert.Equal(t, models.ConfidenceLow, m.NodeMappings[0].Confidence)
		assert.Equal(t, 0.0, m.TotalFitScore)
	}

	// A cancelled booking does not occupy the window.
	booking.Status = models.BookingCancelled
	svc = newTopologyFixture(t, []models.Device{device}, []models.Booking{booking})
	resp, err = svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Mappings)
	assert.Equal(t, models.ConfidenceHigh, resp.Mappings[0].NodeMappings[0].Confidence)
}

func TestResolvePrefersAvailableOverBooked(t *testing.T) {
	free := labDevice(1, "roadm", "ROADM-1")
	booked := labDevice(2, "roadm", "ROADM-2")
	booking := models.Booking{
		ID:         1,
		DeviceType: "roadm",
		DeviceName: "ROADM-2",
		StartTime:  time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Status:     models.BookingConfirmed,
	}
	svc := newTopologyFixture(t, []models.Device{free, booked}, []models.Booking{booking})

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)

	for _, m := range resp.Mappings {
		require.Len(t, m.NodeMappings, 1)
		nm := m.NodeMappings[0]
		assert.Equal(t, int64(1), nm.PhysicalDeviceID)
		assert.Equal(t, 1.0, nm.FitScore)
		// The booked device stays visible as a zero-score alternative.
		require.Len(t, nm.Alternatives, 1)
		assert.Equal(t, int64(2), nm.Alternatives[0].DeviceID)
		assert.Equal(t, 0.0, nm.Alternatives[0].FitScore)
		assert.False(t, nm.Alternatives[0].Available)
	}
}

func TestResolveMaintenanceWindowDegradesDevice(t *testing.T) {
	device := maintenanceDevice("All Day/2025-06-02", "All Day/2025-06-02")
	svc := newTopologyFixture(t, []models.Device{device}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Mappings)
	assert.Equal(t, models.ConfidenceLow, resp.Mappings[0].NodeMappings[0].Confidence)

	// Maintenance on another day leaves the window open.
	device = maintenanceDevice("All Day/2025-06-10", "All Day/2025-06-10")
	svc = newTopologyFixture(t, []models.Device{device}, nil)
	resp, err = svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Mappings)
	assert.Equal(t, models.ConfidenceHigh, resp.Mappings[0].NodeMappings[0].Confidence)
}

func TestBalancedDistributionSpreadsDevices(t *testing.T) {
	svc := newTopologyFixture(t, []models.Device{
		labDevice(1, "roadm", "ROADM-1"),
		labDevice(2, "roadm", "ROADM-2"),
	}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{
			{ID: "a", DeviceType: "roadm"},
			{ID: "b", DeviceType: "roadm"},
		}, nil))
	require.NoError(t, err)

	var balanced *models.Mapping
	for i := range resp.Mappings {
		if resp.Mappings[i].MappingID == "balanced-distribution" {
			balanced = &resp.Mappings[i]
		}
	}
	require.NotNil(t, balanced)
	require.Len(t, balanced.NodeMappings, 2)
	assert.NotEqual(t, balanced.NodeMappings[0].PhysicalDeviceID, balanced.NodeMappings[1].PhysicalDeviceID)
}

func TestLinkScoreDirectConnection(t *testing.T) {
	svc := newTopologyFixture(t, []models.Device{
		labDevice(1, "roadm", "ROADM-1"),
		labDevice(2, "fiber", "FIBER-1"),
	}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{
			{ID: "a", DeviceType: "roadm"},
			{ID: "b", DeviceType: "fiber"},
		},
		[]models.LogicalEdge{{ID: "a-b", Source: "a", Target: "b"}}))
	require.NoError(t, err)

	for _, m := range resp.Mappings {
		require.Len(t, m.LinkMappings, 1)
		lm := m.LinkMappings[0]
		assert.Equal(t, 1.0, lm.FitScore)
		assert.Equal(t, "Direct physical connection", lm.Explanation)
		assert.Equal(t, "link-1-2", lm.PhysicalLinkID)
		assert.Equal(t, 1.0, m.TotalFitScore)
	}
}

func TestLinkScoreIndirectPathDecays(t *testing.T) {
	// ROADM and OTDR are not directly compatible but both connect to fiber,
	// so the shortest path is two hops.
	svc := newTopologyFixture(t, []models.Device{
		labDevice(1, "roadm", "ROADM-1"),
		labDevice(2, "fiber", "FIBER-1"),
		labDevice(3, "otdr", "OTDR-1"),
	}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{
			{ID: "a", DeviceType: "roadm"},
			{ID: "b", DeviceType: "otdr"},
		},
		[]models.LogicalEdge{{Source: "a", Target: "b"}}))
	require.NoError(t, err)

	for _, m := range resp.Mappings {
		require.Len(t, m.LinkMappings, 1)
		lm := m.LinkMappings[0]
		assert.Equal(t, "a-b", lm.LogicalEdgeID)
		assert.Equal(t, 0.8, lm.FitScore)
		assert.Equal(t, "Indirect connection (path length: 2)", lm.Explanation)
		// 0.7*1.0 + 0.3*0.8
		assert.Equal(t, 0.94, m.TotalFitScore)
	}
}

func TestLinkScoreNoPhysicalPath(t *testing.T) {
	// Transceivers connect to ROADMs and switches, OTDRs to fiber; with
	// nothing in between the two ends are unreachable.
	svc := newTopologyFixture(t, []models.Device{
		labDevice(1, "transceiver", "TRX-1"),
		labDevice(2, "otdr", "OTDR-1"),
	}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{
			{ID: "a", DeviceType: "transceiver"},
			{ID: "b", DeviceType: "otdr"},
		},
		[]models.LogicalEdge{{Source: "a", Target: "b"}}))
	require.NoError(t, err)

	for _, m := range resp.Mappings {
		require.Len(t, m.LinkMappings, 1)
		lm := m.LinkMappings[0]
		assert.Equal(t, 0.3, lm.FitScore)
		assert.Equal(t, "No physical path (may require additional configuration)", lm.Explanation)
	}
}

func TestLinkScoreUnmappedEndpoint(t *testing.T) {
	svc := newTopologyFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}},
		[]models.LogicalEdge{{Source: "a", Target: "ghost"}}))
	require.NoError(t, err)

	for _, m := range resp.Mappings {
		require.Len(t, m.LinkMappings, 1)
		lm := m.LinkMappings[0]
		assert.Equal(t, 0.0, lm.FitScore)
		assert.Equal(t, "Source or target device not mapped", lm.Explanation)
		assert.Empty(t, lm.PhysicalLinkID)
		// 0.7*1.0 + 0.3*0.0
		assert.Equal(t, 0.7, m.TotalFitScore)
	}
}

func TestAlternativesCappedAtThree(t *testing.T) {
	svc := newTopologyFixture(t, []models.Device{
		labDevice(1, "roadm", "ROADM-1"),
		labDevice(2, "roadm", "ROADM-2"),
		labDevice(3, "roadm", "ROADM-3"),
		labDevice(4, "roadm", "ROADM-4"),
		labDevice(5, "roadm", "ROADM-5"),
	}, nil)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)

	for _, m := range resp.Mappings {
		require.Len(t, m.NodeMappings, 1)
		assert.Len(t, m.NodeMappings[0].Alternatives, 3)
	}
}

func TestResolveMaxOptionsCap(t *testing.T) {
	svc := NewTopologyService(
		&inventoryStub{devices: []models.Device{labDevice(1, "roadm", "ROADM-1")}},
		NewMaintenanceResolver(mustGrid(t)),
		validator.New(),
		nil,
		2,
	)

	resp, err := svc.Resolve(context.Background(), resolveRequest(
		[]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil))
	require.NoError(t, err)
	assert.Len(t, resp.Mappings, 2)
}

func TestResolveRejectsInvertedWindow(t *testing.T) {
	svc := newTopologyFixture(t, []models.Device{labDevice(1, "roadm", "ROADM-1")}, nil)

	req := resolveRequest([]models.LogicalNode{{ID: "a", DeviceType: "roadm"}}, nil)
	req.WindowStart, req.WindowEnd = req.WindowEnd, req.WindowStart
	_, err := svc.Resolve(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfidenceBuckets(t *testing.T) {
	assert.Equal(t, models.ConfidenceHigh, models.ConfidenceFor(0.8))
	assert.Equal(t, models.ConfidenceMedium, models.ConfidenceFor(0.5))
	assert.Equal(t, models.ConfidenceLow, models.ConfidenceFor(0.49))
}
