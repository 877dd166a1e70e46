package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/service"
)

type pingerStub struct{ err error }

func (p pingerStub) PingContext(ctx context.Context) error { return p.err }

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, pingerStub{})
	c, w := newTestContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, pingerStub{err: errors.New("connection refused")})
	c, w = newTestContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsHandlerSummaryAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/follow-ups", http.StatusOK, 0)
	h := NewMetricsHandler(metrics, nil)

	c, w := newTestContext(http.MethodGet, "/metrics/summary", "", nil)
	h.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"requests_total":1`)

	c, w = newTestContext(http.MethodGet, "/metrics", "", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
