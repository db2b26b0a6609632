package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/storage"
)

func newExportJobFixture(t *testing.T, bookings []models.Booking) *ExportJobService {
	t.Helper()
	store, err := storage.NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	svc := NewExportJobService(
		NewExportService(&bookingStoreStub{bookings: bookings}, nil),
		store,
		storage.NewTokenSigner("test-secret", time.Hour),
		validator.New(),
		nil,
		ExportJobConfig{Workers: 1},
	)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})
	return svc
}

func waitForJob(t *testing.T, svc *ExportJobService, id string) *models.ExportJob {
	t.Helper()
	var job *models.ExportJob
	require.Eventually(t, func() bool {
		current, err := svc.Job(id)
		if err != nil {
			return false
		}
		job = current
		return job.Status == models.ExportDone || job.Status == models.ExportFailed
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestExportJobBookingsCSVRoundTrip(t *testing.T) {
	start := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Hour)
	bookings := []models.Booking{{
		ID: 1, DeviceType: "roadm", DeviceName: "ROADM-1",
		StartTime: start, EndTime: end,
		Status: models.BookingConfirmed, UserID: 3, Username: "alice",
	}}
	svc := newExportJobFixture(t, bookings)

	windowEnd := start.AddDate(0, 0, 7)
	job, err := svc.Enqueue(context.Background(), dto.ExportJobRequest{
		Kind:  models.ExportBookingsCSV,
		Start: &start,
		End:   &windowEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExportQueued, job.Status)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, models.ExportDone, done.Status)
	require.NotNil(t, done.ExpiresAt)
	require.NotNil(t, done.FinishedAt)
	require.Contains(t, done.DownloadURL, "/api/v1/exports/download/")

	token := done.DownloadURL[strings.LastIndex(done.DownloadURL, "/")+1:]
	download, err := svc.Download(token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))
}

func TestExportJobMappingPDF(t *testing.T) {
	svc := newExportJobFixture(t, nil)

	job, err := svc.Enqueue(context.Background(), dto.ExportJobRequest{
		Kind: models.ExportMappingPDF,
		Mapping: &models.Mapping{
			MappingID:     "greedy-best-fit",
			TotalFitScore: 1.0,
			NodeMappings: []models.NodeMapping{
				{LogicalNodeID: "a", PhysicalDeviceID: 1, PhysicalDeviceName: "ROADM-1", PhysicalDeviceType: "roadm", FitScore: 1.0, Confidence: models.ConfidenceHigh},
			},
		},
	})
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, models.ExportDone, done.Status)

	token := done.DownloadURL[strings.LastIndex(done.DownloadURL, "/")+1:]
	download, err := svc.Download(token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
}

func TestExportJobValidation(t *testing.T) {
	svc := newExportJobFixture(t, nil)
	now := time.Now()

	cases := []dto.ExportJobRequest{
		{},
		{Kind: "unknown"},
		{Kind: models.ExportBookingsCSV},
		{Kind: models.ExportBookingsCSV, Start: &now, End: &now},
		{Kind: models.ExportMappingPDF},
		{Kind: models.ExportMappingPDF, Mapping: &models.Mapping{}},
	}
	for _, req := range cases {
		_, err := svc.Enqueue(context.Background(), req)
		require.Error(t, err, "request %+v", req)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestExportJobUnknownID(t *testing.T) {
	svc := newExportJobFixture(t, nil)

	_, err := svc.Job("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportJobDownloadBadToken(t *testing.T) {
	svc := newExportJobFixture(t, nil)

	_, err := svc.Download("garbage")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
