package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Runs.Inc()
	r.Conflicts.WithLabelValues("email").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Conflicts.WithLabelValues("email")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dealguard_runs_total 1")
	assert.Contains(t, string(body), `dealguard_conflicts_total{kind="email"} 2`)
}
