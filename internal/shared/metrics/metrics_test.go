package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	assert.Equal(t, uint64(3), snap.count)
	assert.Equal(t, []uint64{1, 2}, snap.counts)
	assert.InDelta(t, 555.0, snap.sum, 0.001)
}

func TestHandlerRendersPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncGenerationStarted()
	IncGenerationCompleted()
	ObserveGenerationDuration(1500 * time.Millisecond)
	AddRecordsArchived(2)

	r := gin.New()
	r.GET("/metrics", Handler())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := resp.Body.String()
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, body, "# TYPE generation_started_total counter")
	assert.Contains(t, body, "# TYPE generation_duration_ms histogram")
	assert.Contains(t, body, `generation_duration_ms_bucket{le="2500"}`)
	assert.Contains(t, body, "records_archived_total")
}
