package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/response"
)

type sessionService interface {
	SaveTopology(ctx context.Context, req dto.SaveTopologyRequest) (*models.SavedTopology, error)
	ListTopologies(ctx context.Context, sessionID string) ([]models.SavedTopology, error)
	DeleteTopology(ctx context.Context, sessionID, name string) error
	DismissBooking(ctx context.Context, req dto.DismissBookingRequest) error
	DismissedBookings(ctx context.Context, sessionID string) ([]int64, error)
	Overrides(ctx context.Context, sessionID string) ([]models.OverrideRecord, error)
}

// SessionHandler exposes per-session planning state.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler builds a new handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// SaveTopology godoc
// @Summary Save a logical topology
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SaveTopologyRequest true "Topology to save"
// @Success 201 {object} response.Envelope
// @Router /sessions/{id}/topologies [post]
func (h *SessionHandler) SaveTopology(c *gin.Context) {
	var req dto.SaveTopologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid topology payload"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.Param("id")
	}
	if req.SessionID != c.Param("id") {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id mismatch between path and body"))
		return
	}

	saved, err := h.service.SaveTopology(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// ListTopologies godoc
// @Summary List saved topologies
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/topologies [get]
func (h *SessionHandler) ListTopologies(c *gin.Context) {
	saved, err := h.service.ListTopologies(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// DeleteTopology godoc
// @Summary Delete a saved topology
// @Tags Sessions
// @Param id path string true "Session ID"
// @Param name path string true "Topology name"
// @Success 204
// @Router /sessions/{id}/topologies/{name} [delete]
func (h *SessionHandler) DeleteTopology(c *gin.Context) {
	if err := h.service.DeleteTopology(c.Request.Context(), c.Param("id"), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DismissBooking godoc
// @Summary Hide a booking from the session timeline
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.DismissBookingRequest true "Booking to dismiss"
// @Success 204
// @Router /sessions/{id}/dismissed [post]
func (h *SessionHandler) DismissBooking(c *gin.Context) {
	var req dto.DismissBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dismiss payload"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.Param("id")
	}

	if err := h.service.DismissBooking(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DismissedBookings godoc
// @Summary List dismissed booking ids
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/dismissed [get]
func (h *SessionHandler) DismissedBookings(c *gin.Context) {
	ids, err := h.service.DismissedBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"booking_ids": ids}, nil)
}

// Overrides godoc
// @Summary List the session override audit trail
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/overrides [get]
func (h *SessionHandler) Overrides(c *gin.Context) {
	records, err := h.service.Overrides(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
