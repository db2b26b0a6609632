package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/response"
)

type bookingLister interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
}

// BookingHandler exposes reservation listings.
type BookingHandler struct {
	service bookingLister
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingLister) *BookingHandler {
	return &BookingHandler{service: service}
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param deviceType query string false "Filter by device type"
// @Param deviceName query string false "Filter by device name"
// @Param userId query int false "Filter by user id"
// @Param start query string false "Window start (RFC3339)"
// @Param end query string false "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter := models.BookingFilter{
		DeviceType: c.Query("deviceType"),
		DeviceName: c.Query("deviceName"),
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "userId must be numeric"))
			return
		}
		filter.UserID = id
	}
	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start must be RFC3339"))
			return
		}
		filter.Start = start
	}
	if raw := c.Query("end"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be RFC3339"))
			return
		}
		filter.End = end
	}

	bookings, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}
