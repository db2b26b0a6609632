package dto

import "github.com/opticlab/labres-api/internal/models"

// TimelineQuery selects the calendar window. Date is deliberately left
// unvalidated; malformed values fall back to today inside the service.
type TimelineQuery struct {
	Date       string `form:"date"`
	DeviceType string `form:"deviceType"`
	Days       int    `form:"days" validate:"omitempty,min=1,max=31"`
}

// TimelineResponse is the weekly booking calendar for the selected devices.
type TimelineResponse struct {
	Start    string                  `json:"start"`
	Days     int                     `json:"days"`
	Segments []models.TimeSegment    `json:"segments"`
	Devices  []models.DeviceTimeline `json:"devices"`
}
