package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/opticlab/labres-api/internal/models"
)

const bookingColumns = "id, device_type, device_name, start_time, end_time, status, user_id, username, created_at"

// BookingRepository manages persistence for reservations.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListWindow returns every booking overlapping [start, end), regardless of
// status. Callers filter by occupancy themselves.
func (r *BookingRepository) ListWindow(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	const query = "SELECT " + bookingColumns + " FROM bookings WHERE end_time > $1 AND start_time < $2 ORDER BY start_time"
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, start, end); err != nil {
		return nil, fmt.Errorf("list bookings in window: %w", err)
	}
	return bookings, nil
}

// List returns bookings matching the filter, newest first.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE 1=1"
	var args []interface{}

	if filter.DeviceType != "" {
		query += fmt.Sprintf(" AND device_type = $%d", len(args)+1)
		args = append(args, filter.DeviceType)
	}
	if filter.DeviceName != "" {
		query += fmt.Sprintf(" AND device_name = $%d", len(args)+1)
		args = append(args, filter.DeviceName)
	}
	if filter.UserID != 0 {
		query += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if !filter.Start.IsZero() {
		query += fmt.Sprintf(" AND end_time > $%d", len(args)+1)
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		query += fmt.Sprintf(" AND start_time < $%d", len(args)+1)
		args = append(args, filter.End)
	}

	query += " ORDER BY start_time DESC"

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

const statsColumns = `COUNT(*) AS total_bookings,
		COUNT(*) FILTER (WHERE UPPER(b.status) = 'CONFIRMED') AS confirmed,
		COUNT(*) FILTER (WHERE UPPER(b.status) = 'CANCELLED') AS cancelled,
		COUNT(*) FILTER (WHERE UPPER(b.status) = 'CONFLICTING') AS conflicting,
		COALESCE(SUM(EXTRACT(EPOCH FROM (b.end_time - b.start_time)) / 3600), 0) AS total_booked_hours`

// StatsForDevice aggregates booking outcomes for one device over the trailing
// daysBack days.
func (r *BookingRepository) StatsForDevice(ctx context.Context, deviceID int64, daysBack int) (models.BookingStats, error) {
	query := `SELECT ` + statsColumns + `
		FROM bookings b
		JOIN devices d ON d.device_type = b.device_type AND d.device_name = b.device_name
		WHERE d.id = $1 AND b.created_at >= $2`

	var stats models.BookingStats
	since := time.Now().AddDate(0, 0, -daysBack)
	if err := r.db.GetContext(ctx, &stats, query, deviceID, since); err != nil {
		return models.BookingStats{}, fmt.Errorf("stats for device %d: %w", deviceID, err)
	}
	return stats, nil
}

// StatsForType aggregates booking outcomes for a device type over the
// trailing daysBack days.
func (r *BookingRepository) StatsForType(ctx context.Context, deviceType string, daysBack int) (models.BookingStats, error) {
	query := `SELECT ` + statsColumns + `
		FROM bookings b
		WHERE LOWER(b.device_type) = LOWER($1) AND b.created_at >= $2`

	var stats models.BookingStats
	since := time.Now().AddDate(0, 0, -daysBack)
	if err := r.db.GetContext(ctx, &stats, query, deviceType, since); err != nil {
		return models.BookingStats{}, fmt.Errorf("stats for type %s: %w", deviceType, err)
	}
	return stats, nil
}
