package telemetry_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/platform/telemetry"
)

func scrape(t *testing.T, m *telemetry.Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetrics_ObserveFlow(t *testing.T) {
	m := telemetry.NewMetrics()

	m.ObserveFlow("admin_login", "success", 20*time.Millisecond)
	m.ObserveFlow("admin_login", "NotAdmin", 10*time.Millisecond)
	m.ObserveFlow("admin_login", "success", 5*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `authgate_flow_total{flow="admin_login",outcome="success"} 2`)
	assert.Contains(t, body, `authgate_flow_total{flow="admin_login",outcome="NotAdmin"} 1`)
	assert.Contains(t, body, `authgate_flow_duration_seconds_count{flow="admin_login"} 3`)
}

func TestMetrics_ObserveProviderCall(t *testing.T) {
	m := telemetry.NewMetrics()

	m.ObserveProviderCall("authenticate", "success")
	m.ObserveProviderCall("list_groups", "Other")

	body := scrape(t, m)
	assert.Contains(t, body, `authgate_provider_calls_total{operation="authenticate",result="success"} 1`)
	assert.Contains(t, body, `authgate_provider_calls_total{operation="list_groups",result="Other"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
