package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opticlab/labres-api/internal/dto"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/response"
)

type timelineService interface {
	WeekTimeline(ctx context.Context, query dto.TimelineQuery) (*dto.TimelineResponse, error)
}

// TimelineHandler exposes the booking calendar.
type TimelineHandler struct {
	service         timelineService
	refreshInterval time.Duration
}

// NewTimelineHandler builds a new handler.
func NewTimelineHandler(service timelineService, refreshInterval time.Duration) *TimelineHandler {
	return &TimelineHandler{service: service, refreshInterval: refreshInterval}
}

// Get godoc
// @Summary Weekly booking calendar
// @Description Classified slot grid per device for the requested window
// @Tags Timeline
// @Produce json
// @Param date query string false "Start date (YYYY-MM-DD)"
// @Param deviceType query string false "Filter by device type"
// @Param days query int false "Number of days (default 7)"
// @Success 200 {object} response.Envelope
// @Router /timeline [get]
func (h *TimelineHandler) Get(c *gin.Context) {
	var query dto.TimelineQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timeline query"))
		return
	}

	timeline, err := h.service.WeekTimeline(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Clients poll on this cadence; the server holds no push channel.
	meta := map[string]interface{}{
		"refresh_interval_seconds": int(h.refreshInterval.Seconds()),
	}
	response.JSON(c, http.StatusOK, timeline, nil, meta)
}
