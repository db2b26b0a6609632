package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/opticlab/labres-api/internal/models"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "device_type", "device_name", "start_time", "end_time", "status", "user_id", "username", "created_at"})
}

func TestBookingRepositoryListWindow(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	repo := NewBookingRepository(db)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	rows := bookingRows().
		AddRow(1, "roadm", "ROADM-1", start.Add(7*time.Hour), start.Add(12*time.Hour), "CONFIRMED", 3, "alice", time.Now()).
		AddRow(2, "fiber", "FIBER-1", start.Add(12*time.Hour), start.Add(18*time.Hour), "CANCELLED", 4, "bob", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE end_time > $1 AND start_time < $2 ORDER BY start_time")).
		WithArgs(start, end).
		WillReturnRows(rows)

	bookings, err := repo.ListWindow(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	require.Equal(t, models.BookingConfirmed, bookings[0].Status)
	// Cancelled bookings come back too; occupancy is the caller's concern.
	require.Equal(t, models.BookingCancelled, bookings[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	repo := NewBookingRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE 1=1 AND device_type = $1 AND user_id = $2 ORDER BY start_time DESC")).
		WithArgs("roadm", int64(3)).
		WillReturnRows(bookingRows())

	_, err := repo.List(context.Background(), models.BookingFilter{DeviceType: "roadm", UserID: 3})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryStatsForDevice(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	repo := NewBookingRepository(db)
	rows := sqlmock.NewRows([]string{"total_bookings", "confirmed", "cancelled", "conflicting", "total_booked_hours"}).
		AddRow(10, 8, 1, 1, 42.5)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN devices d ON d.device_type = b.device_type AND d.device_name = b.device_name")).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stats, err := repo.StatsForDevice(context.Background(), 7, 90)
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalBookings)
	require.Equal(t, 8, stats.Confirmed)
	require.InDelta(t, 42.5, stats.TotalBookedHours, 1e-9)
	require.InDelta(t, 0.8, stats.SuccessRate(), 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryStatsForType(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	repo := NewBookingRepository(db)
	rows := sqlmock.NewRows([]string{"total_bookings", "confirmed", "cancelled", "conflicting", "total_booked_hours"}).
		AddRow(0, 0, 0, 0, 0.0)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(b.device_type) = LOWER($1) AND b.created_at >= $2")).
		WithArgs("roadm", sqlmock.AnyArg()).
		WillReturnRows(rows)

	stats, err := repo.StatsForType(context.Background(), "roadm", 90)
	require.NoError(t, err)
	require.Zero(t, stats.TotalBookings)
	require.Equal(t, 0.5, stats.ReliabilityScore())
	require.NoError(t, mock.ExpectationsWereMet())
}
