package repository

import (
	"context"
	"time"

	"github.com/opticlab/labres-api/internal/models"
)

// InventoryRepository combines the device directory and booking store into a
// single consistent snapshot for topology resolution.
type InventoryRepository struct {
	devices  *DeviceRepository
	bookings *BookingRepository
}

// NewInventoryRepository constructs an InventoryRepository.
func NewInventoryRepository(devices *DeviceRepository, bookings *BookingRepository) *InventoryRepository {
	return &InventoryRepository{devices: devices, bookings: bookings}
}

// Snapshot returns every device plus all bookings overlapping [start, end).
func (r *InventoryRepository) Snapshot(ctx context.Context, start, end time.Time) ([]models.Device, []models.Booking, error) {
	devices, err := r.devices.List(ctx, models.DeviceFilter{})
	if err != nil {
		return nil, nil, err
	}
	bookings, err := r.bookings.ListWindow(ctx, start, end)
	if err != nil {
		return nil, nil, err
	}
	return devices, bookings, nil
}
