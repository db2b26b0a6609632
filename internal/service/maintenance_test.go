package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticlab/labres-api/internal/models"
)

func strptr(s string) *string { return &s }

func maintenanceDevice(start, end string) models.Device {
	return models.Device{
		ID:               1,
		Type:             "roadm",
		Name:             "ROADM-1",
		Status:           models.DeviceMaintenance,
		MaintenanceStart: strptr(start),
		MaintenanceEnd:   strptr(end),
	}
}

func TestParseBoundaryAllDay(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))

	start := r.ParseBoundary(strptr("All Day/2025-03-22"), false)
	require.NotNil(t, start)
	assert.Equal(t, time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC), *start)

	end := r.ParseBoundary(strptr("All Day/2025-03-22"), true)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC).Add(-time.Millisecond), *end)
}

func TestParseBoundarySegment(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))

	start := r.ParseBoundary(strptr("7 AM - 12 PM/2025-03-22"), false)
	require.NotNil(t, start)
	assert.Equal(t, time.Date(2025, 3, 22, 7, 0, 0, 0, time.UTC), *start)

	// End boundary of the overnight segment lands on the next day.
	end := r.ParseBoundary(strptr("11 PM - 7 AM/2025-03-22"), true)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2025, 3, 23, 7, 0, 0, 0, time.UTC), *end)
}

func TestParseBoundaryMalformed(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))

	for _, descriptor := range []string{"", "All Day", "bogus/2025-03-22", "All Day/22-03-2025", "7 AM - 12 PM/not-a-date"} {
		d := descriptor
		assert.Nil(t, r.ParseBoundary(&d, false), "descriptor %q", descriptor)
	}
	assert.Nil(t, r.ParseBoundary(nil, false))
}

func TestWindowEndBeforeStartRollsForward(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))

	// Evening start, morning end: the window runs past midnight.
	device := maintenanceDevice("6 PM - 11 PM/2025-03-22", "7 AM - 12 PM/2025-03-22")
	w := r.Window(device)
	require.NotNil(t, w)
	assert.Equal(t, time.Date(2025, 3, 22, 18, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 3, 23, 12, 0, 0, 0, time.UTC), w.End)
	assert.False(t, w.AllDay)
}

func TestWindowAllDayFlag(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))

	w := r.Window(maintenanceDevice("All Day/2025-03-22", "All Day/2025-03-23"))
	require.NotNil(t, w)
	assert.True(t, w.AllDay)
}

func TestWindowMalformedDescriptorsIgnored(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))

	assert.Nil(t, r.Window(maintenanceDevice("garbage", "All Day/2025-03-22")))
	assert.Nil(t, r.Window(models.Device{Status: models.DeviceMaintenance}))
}

func TestOverlapsRequiresMaintenanceStatus(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))

	device := maintenanceDevice("All Day/2025-03-22", "All Day/2025-03-22")
	device.Status = models.DeviceAvailable

	slotStart := time.Date(2025, 3, 22, 7, 0, 0, 0, time.UTC)
	slotEnd := time.Date(2025, 3, 22, 12, 0, 0, 0, time.UTC)
	assert.False(t, r.Overlaps(slotStart, slotEnd, device))

	device.Status = models.DeviceMaintenance
	assert.True(t, r.Overlaps(slotStart, slotEnd, device))
}

func TestOverlapsSegmentWindowUsesStrictOverlap(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))
	device := maintenanceDevice("7 AM - 12 PM/2025-03-22", "12 PM - 6 PM/2025-03-22")

	// Adjacent slot after the window does not overlap.
	assert.False(t, r.Overlaps(
		time.Date(2025, 3, 22, 18, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 22, 23, 0, 0, 0, time.UTC),
		device))

	// Slot inside the window overlaps.
	assert.True(t, r.Overlaps(
		time.Date(2025, 3, 22, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 22, 18, 0, 0, 0, time.UTC),
		device))
}

func TestOverlapsAllDaySwallowsContainedSlots(t *testing.T) {
	r := NewMaintenanceResolver(mustGrid(t))
	device := maintenanceDevice("All Day/2025-03-22", "All Day/2025-03-22")

	// Contained slot is blocked.
	assert.True(t, r.Overlaps(
		time.Date(2025, 3, 22, 7, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 22, 12, 0, 0, 0, time.UTC),
		device))

	// The overnight slot ends on the next day and is not contained.
	assert.False(t, r.Overlaps(
		time.Date(2025, 3, 22, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 23, 7, 0, 0, 0, time.UTC),
		device))
}
