package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsVisitorLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("event_type", "page_view"),
		attribute.String("ip_address", "10.0.0.1"),
		attribute.String("session_id", "abc"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("event_type"), attrs[0].Key)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordEventTracked(context.Background(), "page_view")
	m.RecordContactCreated(context.Background(), "medium")
	m.RecordStatusTransition(context.Background(), "new", "resolved")
	m.RecordRateLimitDenied(context.Background(), "/contact/submit", "window")
	m.RecordLoginAttempt(context.Background(), "failure")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordEventTracked(context.Background(), "page_view")
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := newHTTPMetrics(Config{ServiceName: "test"}, reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/ping", "204")))
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newHTTPMetrics(Config{ServiceName: "test"}, reg)
	require.NoError(t, err)
	second, err := newHTTPMetrics(Config{ServiceName: "test"}, reg)
	require.NoError(t, err)
	assert.Same(t, first.requests, second.requests)
}
