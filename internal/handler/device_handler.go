package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/response"
)

type deviceService interface {
	List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error)
	FindByID(ctx context.Context, id int64) (*models.Device, error)
	Types(ctx context.Context) ([]string, error)
}

// DeviceHandler exposes the physical inventory.
type DeviceHandler struct {
	service deviceService
}

// NewDeviceHandler builds a new handler.
func NewDeviceHandler(service deviceService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

// List godoc
// @Summary List devices
// @Tags Devices
// @Produce json
// @Param type query string false "Filter by device type"
// @Param status query string false "Filter by status"
// @Param search query string false "Substring match on device name"
// @Success 200 {object} response.Envelope
// @Router /devices [get]
func (h *DeviceHandler) List(c *gin.Context) {
	filter := models.DeviceFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	devices, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	models.SortDevices(devices)
	response.JSON(c, http.StatusOK, devices, nil)
}

// Get godoc
// @Summary Get device by ID
// @Tags Devices
// @Produce json
// @Param id path int true "Device ID"
// @Success 200 {object} response.Envelope
// @Router /devices/{id} [get]
func (h *DeviceHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "device id must be numeric"))
		return
	}
	device, err := h.service.FindByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device, nil)
}

// Types godoc
// @Summary List device types
// @Tags Devices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /devices/types [get]
func (h *DeviceHandler) Types(c *gin.Context) {
	types, err := h.service.Types(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}
