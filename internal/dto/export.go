package dto

import (
	"time"

	"github.com/opticlab/labres-api/internal/models"
)

// ExportJobRequest queues a background report render. Start/End bound the
// booking window for CSV exports; Mapping is the subject of PDF reports.
type ExportJobRequest struct {
	Kind    models.ExportKind `json:"kind" validate:"required,oneof=bookings-csv mapping-pdf"`
	Start   *time.Time        `json:"start,omitempty"`
	End     *time.Time        `json:"end,omitempty"`
	Mapping *models.Mapping   `json:"mapping,omitempty"`
}
