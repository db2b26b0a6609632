package models

import "time"

// ExportKind enumerates the report types the export pipeline renders.
type ExportKind string

const (
	ExportBookingsCSV ExportKind = "bookings-csv"
	ExportMappingPDF  ExportKind = "mapping-pdf"
)

// ExportStatus is the lifecycle of an export job.
type ExportStatus string

const (
	ExportQueued  ExportStatus = "queued"
	ExportRunning ExportStatus = "running"
	ExportDone    ExportStatus = "done"
	ExportFailed  ExportStatus = "failed"
)

// ExportJob tracks one background report render. Jobs live in memory only;
// the rendered artifact and its signed download token outlive the process,
// the job record does not.
type ExportJob struct {
	ID           string       `json:"id"`
	Kind         ExportKind   `json:"kind"`
	Status       ExportStatus `json:"status"`
	ArtifactPath string       `json:"-"`
	DownloadURL  string       `json:"download_url,omitempty"`
	Error        string       `json:"error,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}
