package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRenderIncludesCounters(t *testing.T) {
	IncSessionsCreated()
	IncFilesStaged()
	IncFilesRejected()
	ObserveSubmissionDurationMs(300)
	ObserveSubmissionDurationMs(-5)

	out := Render()
	for _, want := range []string{
		"# TYPE wizard_sessions_created_total counter",
		"# TYPE wizard_files_staged_total counter",
		"# TYPE wizard_submission_duration_ms histogram",
		`wizard_submission_duration_ms_bucket{le="+Inf"}`,
		"wizard_submission_duration_ms_count",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, out)
		}
	}
}

func TestHistogramCumulativeBuckets(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts: %v", snap.counts)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "test", snap)
	out := buf.String()
	for _, want := range []string{
		"x_bucket{le=\"10\"} 1\n",
		"x_bucket{le=\"100\"} 2\n",
		"x_bucket{le=\"+Inf\"} 3\n",
		"x_sum 555\n",
		"x_count 3\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestHandlerServesPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type: %s", ct)
	}
}
