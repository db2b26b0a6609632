package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	"github.com/opticlab/labres-api/internal/service"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/response"
)

type exportService interface {
	BookingsCSV(ctx context.Context, start, end time.Time) ([]byte, error)
	MappingReportPDF(mapping models.Mapping) ([]byte, error)
}

type exportJobService interface {
	Enqueue(ctx context.Context, req dto.ExportJobRequest) (*models.ExportJob, error)
	Job(id string) (*models.ExportJob, error)
	Download(token string) (*service.ExportDownload, error)
}

// ExportHandler serves downloadable booking and mapping reports, both
// synchronously and through background export jobs.
type ExportHandler struct {
	service exportService
	jobs    exportJobService
	enabled bool
}

// NewExportHandler builds a new handler.
func NewExportHandler(service exportService, jobs exportJobService, enabled bool) *ExportHandler {
	return &ExportHandler{service: service, jobs: jobs, enabled: enabled}
}

// BookingsCSV godoc
// @Summary Export bookings as CSV
// @Tags Exports
// @Produce text/csv
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {string} string "CSV payload"
// @Router /exports/bookings.csv [get]
func (h *ExportHandler) BookingsCSV(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil || !end.After(start) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be RFC3339 and after start"))
		return
	}

	payload, err := h.service.BookingsCSV(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="bookings.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// MappingReportPDF godoc
// @Summary Export a mapping report as PDF
// @Tags Exports
// @Accept json
// @Produce application/pdf
// @Param payload body models.Mapping true "Mapping to report on"
// @Success 200 {string} string "PDF payload"
// @Router /exports/mapping.pdf [post]
func (h *ExportHandler) MappingReportPDF(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	var mapping models.Mapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mapping payload"))
		return
	}

	payload, err := h.service.MappingReportPDF(mapping)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="mapping-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// CreateJob godoc
// @Summary Queue a background export
// @Description Renders a bookings CSV or mapping PDF off the request path
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportJobRequest true "Export kind and parameters"
// @Success 201 {object} response.Envelope
// @Router /exports/jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	var req dto.ExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	job, err := h.jobs.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// JobStatus godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/jobs/{id} [get]
func (h *ExportHandler) JobStatus(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	job, err := h.jobs.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a rendered export artifact
// @Tags Exports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {string} string "Artifact payload"
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	download, err := h.jobs.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat artifact"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, nil)
}
