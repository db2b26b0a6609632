package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticlab/labres-api/internal/models"
	"github.com/opticlab/labres-api/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*ForecastClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewForecastClient(config.ForecastConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}, nil)
	require.NotNil(t, c)
	return c, server
}

func TestNewForecastClientWithoutBaseURL(t *testing.T) {
	assert.Nil(t, NewForecastClient(config.ForecastConfig{}, nil))
}

func TestForecastsRequestAndResponse(t *testing.T) {
	slot := time.Date(2025, 6, 3, 7, 0, 0, 0, time.UTC)
	var gotBody forecastRequest

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/forecast/availability", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(forecastResponse{Forecasts: map[int64]models.Forecast{
			1: {AvailabilityProbability: 0.9, Confidence: 0.8, EarliestAvailableSlot: &slot},
		}})
	})

	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	forecasts, err := c.Forecasts(context.Background(), []int64{1, 2}, start, end)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, gotBody.DeviceIDs)
	assert.True(t, gotBody.WindowStart.Equal(start))
	assert.True(t, gotBody.WindowEnd.Equal(end))

	require.Contains(t, forecasts, int64(1))
	assert.Equal(t, 0.9, forecasts[1].AvailabilityProbability)
	require.NotNil(t, forecasts[1].EarliestAvailableSlot)
	assert.True(t, forecasts[1].EarliestAvailableSlot.Equal(slot))
}

func TestForecastsCollaboratorError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Forecasts(context.Background(), []int64{1}, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestForecastsEmptyDeviceIDsShortCircuit(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	forecasts, err := c.Forecasts(context.Background(), nil, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, forecasts)
	assert.False(t, called)
}

func TestForecastsEmptyBodyYieldsEmptyMap(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	forecasts, err := c.Forecasts(context.Background(), []int64{1}, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, forecasts)
	assert.Empty(t, forecasts)
}
