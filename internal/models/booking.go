package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus enumerates the reservation lifecycle.
type BookingStatus string

const (
	BookingPending     BookingStatus = "PENDING"
	BookingConfirmed   BookingStatus = "CONFIRMED"
	BookingCancelled   BookingStatus = "CANCELLED"
	BookingRejected    BookingStatus = "REJECTED"
	BookingConflicting BookingStatus = "CONFLICTING"
)

// Booking is a reservation of one device for a time interval [StartTime, EndTime).
type Booking struct {
	ID         int64         `db:"id" json:"id"`
	DeviceType string        `db:"device_type" json:"device_type"`
	DeviceName string        `db:"device_name" json:"device_name"`
	StartTime  time.Time     `db:"start_time" json:"start_time"`
	EndTime    time.Time     `db:"end_time" json:"end_time"`
	Status     BookingStatus `db:"status" json:"status"`
	UserID     int64         `db:"user_id" json:"user_id"`
	Username   string        `db:"username" json:"username,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// Occupies reports whether the booking counts toward slot occupancy.
// Cancelled and rejected bookings never occupy a slot; the comparison is
// case-insensitive because upstream systems persist mixed-case statuses.
func (b Booking) Occupies() bool {
	switch strings.ToLower(string(b.Status)) {
	case "cancelled", "rejected":
		return false
	}
	return true
}

// Overlaps reports strict interval overlap with [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// DisplayName is the label the calendar shows for the booking owner.
func (b Booking) DisplayName() string {
	if b.Username != "" {
		return b.Username
	}
	return fmt.Sprintf("User %d", b.UserID)
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	DeviceType string
	DeviceName string
	UserID     int64
	Start      time.Time
	End        time.Time
}

// BookingStats aggregates historical booking outcomes for a device or type.
type BookingStats struct {
	TotalBookings    int     `db:"total_bookings" json:"total_bookings"`
	Confirmed        int     `db:"confirmed" json:"confirmed"`
	Cancelled        int     `db:"cancelled" json:"cancelled"`
	Conflicting      int     `db:"conflicting" json:"conflicting"`
	TotalBookedHours float64 `db:"total_booked_hours" json:"total_booked_hours"`
}

// SuccessRate is the share of confirmed bookings.
func (s BookingStats) SuccessRate() float64 {
	if s.TotalBookings == 0 {
		return 0
	}
	return float64(s.Confirmed) / float64(s.TotalBookings)
}

// ConflictRate is the share of conflicting bookings.
func (s BookingStats) ConflictRate() float64 {
	if s.TotalBookings == 0 {
		return 0
	}
	return float64(s.Conflicting) / float64(s.TotalBookings)
}

// ReliabilityScore combines success rate and conflict rate; conflicts weigh
// half as much as failures. Neutral 0.5 when there is no history.
func (s BookingStats) ReliabilityScore() float64 {
	if s.TotalBookings == 0 {
		return 0.5
	}
	return s.SuccessRate() * (1 - s.ConflictRate()*0.5)
}
