package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/models"
	"github.com/opticlab/labres-api/pkg/config"
)

// ForecastClient talks to the availability-forecast collaborator over HTTP.
type ForecastClient struct {
	http   *resty.Client
	logger *zap.Logger
}

type forecastRequest struct {
	DeviceIDs   []int64   `json:"device_ids"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

type forecastResponse struct {
	Forecasts map[int64]models.Forecast `json:"forecasts"`
}

// NewForecastClient builds a client from config. An empty base URL yields a
// nil client; callers treat that as "collaborator not configured".
func NewForecastClient(cfg config.ForecastConfig, logger *zap.Logger) *ForecastClient {
	if cfg.BaseURL == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ForecastClient{http: http, logger: logger}
}

// Forecasts fetches per-device availability forecasts for the window. Devices
// the collaborator has no data for are absent from the returned map.
func (c *ForecastClient) Forecasts(ctx context.Context, deviceIDs []int64, start, end time.Time) (map[int64]models.Forecast, error) {
	if len(deviceIDs) == 0 {
		return map[int64]models.Forecast{}, nil
	}

	var result forecastResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(forecastRequest{DeviceIDs: deviceIDs, WindowStart: start, WindowEnd: end}).
		SetResult(&result).
		Post("/forecast/availability")
	if err != nil {
		c.logger.Warn("forecast request failed", zap.Error(err))
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("forecast collaborator returned error",
			zap.Int("status_code", resp.StatusCode()))
		return nil, fmt.Errorf("forecast collaborator returned status %d", resp.StatusCode())
	}

	if result.Forecasts == nil {
		return map[int64]models.Forecast{}, nil
	}
	return result.Forecasts, nil
}
