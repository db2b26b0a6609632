package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/jobs"
	"github.com/opticlab/labres-api/pkg/storage"
)

type artifactStore interface {
	Save(name string, payload []byte) (string, error)
	Open(name string) (*os.File, error)
	Sweep(ttl time.Duration) ([]string, error)
}

// ExportDownload is a resolved artifact handle ready to stream to a client.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ExportJobConfig tunes the background export pipeline.
type ExportJobConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Workers   int
}

// ExportJobService renders reports off the request path. A job is queued,
// picked up by a worker, rendered through the ExportService and persisted as
// an artifact reachable through a signed download token.
type ExportJobService struct {
	exporter  *ExportService
	store     artifactStore
	signer    *storage.TokenSigner
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobConfig

	mu       sync.RWMutex
	records  map[string]*models.ExportJob
	requests map[string]dto.ExportJobRequest
}

// NewExportJobService wires the pipeline. Start must be called before jobs
// can be enqueued.
func NewExportJobService(exporter *ExportService, store artifactStore, signer *storage.TokenSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}

	s := &ExportJobService{
		exporter:  exporter,
		store:     store,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		records:   make(map[string]*models.ExportJob),
		requests:  make(map[string]dto.ExportJobRequest),
	}
	s.queue = jobs.New("exports", s.process, jobs.Options{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the workers and the artifact janitor.
func (s *ExportJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.janitor(ctx)
}

// Stop drains the workers.
func (s *ExportJobService) Stop() {
	s.queue.Stop()
}

// Enqueue validates the request and queues a render.
func (s *ExportJobService) Enqueue(ctx context.Context, req dto.ExportJobRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	switch req.Kind {
	case models.ExportBookingsCSV:
		if req.Start == nil || req.End == nil || !req.End.After(*req.Start) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "bookings export needs a start before its end")
		}
	case models.ExportMappingPDF:
		if req.Mapping == nil || len(req.Mapping.NodeMappings) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "mapping export needs a mapping with node assignments")
		}
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Status:    models.ExportQueued,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.records[job.ID] = job
	s.requests[job.ID] = req
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Task{ID: job.ID, Kind: string(req.Kind)}); err != nil {
		s.finish(job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportFailed
			j.Error = "failed to queue export"
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return s.snapshot(job.ID), nil
}

// Job returns the current state of a job.
func (s *ExportJobService) Job(id string) (*models.ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("export job %s not found", id))
	}
	return job, nil
}

// Download verifies a signed token and opens the artifact it references.
func (s *ExportJobService) Download(token string) (*ExportDownload, error) {
	jobID, artifact, _, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	file, err := s.store.Open(artifact)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("artifact for job %s no longer available", jobID))
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(artifact, ".csv"):
		contentType = "text/csv"
	case strings.HasSuffix(artifact, ".pdf"):
		contentType = "application/pdf"
	}
	return &ExportDownload{File: file, Filename: artifact, ContentType: contentType}, nil
}

// process is the queue worker body.
func (s *ExportJobService) process(ctx context.Context, task jobs.Task) error {
	s.mu.RLock()
	req, ok := s.requests[task.ID]
	s.mu.RUnlock()
	if !ok {
		// Record evaporated (process restarted); nothing to render.
		return nil
	}

	s.finish(task.ID, func(j *models.ExportJob) {
		j.Status = models.ExportRunning
		j.Error = ""
	})

	payload, ext, err := s.render(ctx, req)
	if err != nil {
		s.finish(task.ID, func(j *models.ExportJob) {
			j.Status = models.ExportFailed
			j.Error = err.Error()
		})
		return err
	}

	name := fmt.Sprintf("%s_%s.%s", req.Kind, time.Now().UTC().Format("20060102_150405"), ext)
	artifact, err := s.store.Save(name, payload)
	if err == nil {
		var token string
		var expiresAt time.Time
		token, expiresAt, err = s.signer.Sign(task.ID, artifact)
		if err == nil {
			now := time.Now().UTC()
			s.finish(task.ID, func(j *models.ExportJob) {
				j.Status = models.ExportDone
				j.ArtifactPath = artifact
				j.DownloadURL = fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
				j.ExpiresAt = &expiresAt
				j.FinishedAt = &now
			})
			return nil
		}
	}

	s.finish(task.ID, func(j *models.ExportJob) {
		j.Status = models.ExportFailed
		j.Error = err.Error()
	})
	return err
}

func (s *ExportJobService) render(ctx context.Context, req dto.ExportJobRequest) ([]byte, string, error) {
	switch req.Kind {
	case models.ExportBookingsCSV:
		payload, err := s.exporter.BookingsCSV(ctx, *req.Start, *req.End)
		return payload, "csv", err
	case models.ExportMappingPDF:
		payload, err := s.exporter.MappingReportPDF(*req.Mapping)
		return payload, "pdf", err
	default:
		return nil, "", fmt.Errorf("unsupported export kind %s", req.Kind)
	}
}

func (s *ExportJobService) finish(id string, update func(*models.ExportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.records[id]; ok {
		update(job)
	}
}

func (s *ExportJobService) snapshot(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.records[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// janitor sweeps expired artifacts on a fixed cadence.
func (s *ExportJobService) janitor(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.store.Sweep(s.cfg.ResultTTL)
			if err != nil {
				s.logger.Warn("artifact sweep failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("swept expired export artifacts", zap.Int("count", len(removed)))
			}
		}
	}
}
