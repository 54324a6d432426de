package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	t.Parallel()

	m := New("test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/orders/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/forbidden", func(c echo.Context) error { return echo.NewHTTPError(http.StatusForbidden) })
	e.GET("/metrics", m.Handler())

	for _, p := range []string{"/orders/ORD-1", "/orders/ORD-2", "/forbidden"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/orders/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/forbidden", "403")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestInFlight))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestObserveHelpers(t *testing.T) {
	t.Parallel()

	m := New("test")
	m.ObserveTransition("order", "pending", "processing", "ok")
	m.ObservePublish("order_events", nil)
	m.ObservePublish("order_events", errors.New("broker down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("order", "pending", "processing", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("order_events", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("order_events", "error")))
}

func TestNew_IndependentRegistries(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		_ = New("dup")
		_ = New("dup")
	})
}
