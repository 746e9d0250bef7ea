package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerServesPrometheusExposition(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Ring.RecordOperation("extract", "ok")

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "keepclip_operations_total")
	require.True(t, strings.Contains(rec.Body.String(), `operation="extract"`))
}
