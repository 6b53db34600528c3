package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/stations/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stations/5", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	m.SuggestionAction("approve")
	m.PushDelivery("sent")
	m.MapCache(true)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	assert.Contains(t, text, `fuelpricing_http_requests_total{code="204",method="GET",route="/api/stations/:id"} 1`)
	assert.Contains(t, text, `fuelpricing_suggestion_actions_total{action="approve"} 1`)
	assert.Contains(t, text, `fuelpricing_push_deliveries_total{result="sent"} 1`)
	assert.Contains(t, text, `fuelpricing_map_cache_lookups_total{result="hit"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.SuggestionAction("approve")
	m.MapCache(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
