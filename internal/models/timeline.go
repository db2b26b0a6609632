package models

import "time"

// TimeSegment is one fixed sub-day booking window. A segment whose EndHour is
// numerically below its StartHour spans into the following calendar day.
type TimeSegment struct {
	Label     string `json:"label"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// CrossesMidnight reports whether the segment wraps into the next day.
func (s TimeSegment) CrossesMidnight() bool {
	return s.EndHour < s.StartHour
}

// SlotClass enumerates the render states of a calendar slot, in the
// precedence order the classifier applies them.
type SlotClass string

const (
	SlotMaintenance SlotClass = "maintenance"
	SlotExpired     SlotClass = "expired"
	SlotFree        SlotClass = "free"
	SlotMyPending   SlotClass = "my-pending"
	SlotMyConfirmed SlotClass = "my-confirmed"
	SlotConflicting SlotClass = "conflicting"
)

// SlotState is the derived display state of one (date, segment, device) slot.
type SlotState struct {
	Content string    `json:"content"`
	Class   SlotClass `json:"class"`
}

// DaySlots holds the classified segments of one device for one date.
type DaySlots struct {
	Date  string      `json:"date"`
	Slots []SlotState `json:"slots"`
}

// DeviceTimeline is the weekly calendar row-set for one device.
type DeviceTimeline struct {
	DeviceType string     `json:"device_type"`
	DeviceName string     `json:"device_name"`
	Days       []DaySlots `json:"days"`
}

// MaintenanceWindow is a resolved absolute maintenance interval.
type MaintenanceWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`
}
