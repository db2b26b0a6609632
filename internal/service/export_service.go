package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/export"
)

// ExportService renders bookings and mapping reports into downloadable files.
type ExportService struct {
	bookings bookingStore
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService wires the exporters.
func NewExportService(bookings bookingStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings: bookings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// BookingsCSV exports every booking overlapping [start, end) as CSV.
func (s *ExportService) BookingsCSV(ctx context.Context, start, end time.Time) ([]byte, error) {
	bookings, err := s.bookings.ListWindow(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings for export")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Device Type", "Device Name", "Start", "End", "Status", "User"},
	}
	for _, b := range bookings {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":          strconv.FormatInt(b.ID, 10),
			"Device Type": b.DeviceType,
			"Device Name": b.DeviceName,
			"Start":       b.StartTime.Format(time.RFC3339),
			"End":         b.EndTime.Format(time.RFC3339),
			"Status":      string(b.Status),
			"User":        b.DisplayName(),
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render bookings csv")
	}
	return payload, nil
}

// MappingReportPDF renders a mapping's node and link assignments as a PDF
// report for attaching to change requests.
func (s *ExportService) MappingReportPDF(mapping models.Mapping) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"Logical", "Physical Device", "Type", "Fit", "Confidence", "Explanation"},
	}
	for _, nm := range mapping.NodeMappings {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Logical":         nm.LogicalNodeID,
			"Physical Device": nm.PhysicalDeviceName,
			"Type":            nm.PhysicalDeviceType,
			"Fit":             fmt.Sprintf("%.2f", nm.FitScore),
			"Confidence":      string(nm.Confidence),
			"Explanation":     nm.Explanation,
		})
	}
	for _, lm := range mapping.LinkMappings {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Logical":         lm.LogicalEdgeID,
			"Physical Device": lm.PhysicalLinkID,
			"Type":            "link",
			"Fit":             fmt.Sprintf("%.2f", lm.FitScore),
			"Confidence":      "",
			"Explanation":     lm.Explanation,
		})
	}

	title := fmt.Sprintf("Mapping %s (total fit %.2f)", mapping.MappingID, mapping.TotalFitScore)
	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render mapping pdf")
	}
	return payload, nil
}
