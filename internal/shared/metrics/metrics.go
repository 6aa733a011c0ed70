package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	sessionsCreatedTotal   atomic.Uint64
	stepsAdvancedTotal     atomic.Uint64
	stepRejectionsTotal    atomic.Uint64
	filesStagedTotal       atomic.Uint64
	filesRejectedTotal     atomic.Uint64
	submissionsTotal       atomic.Uint64
	submissionsCancelTotal atomic.Uint64

	submissionDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000})
)

// IncSessionsCreated counts a new wizard session.
func IncSessionsCreated() {
	sessionsCreatedTotal.Add(1)
}

// IncStepsAdvanced counts a successful step advance.
func IncStepsAdvanced() {
	stepsAdvancedTotal.Add(1)
}

// IncStepRejections counts an advance blocked by field errors.
func IncStepRejections() {
	stepRejectionsTotal.Add(1)
}

// IncFilesStaged counts a staged file.
func IncFilesStaged() {
	filesStagedTotal.Add(1)
}

// IncFilesRejected counts a file refused by staging policy.
func IncFilesRejected() {
	filesRejectedTotal.Add(1)
}

// IncSubmissions counts a completed submission.
func IncSubmissions() {
	submissionsTotal.Add(1)
}

// IncSubmissionsCancelled counts a submission abandoned before completion.
func IncSubmissionsCancelled() {
	submissionsCancelTotal.Add(1)
}

// ObserveSubmissionDurationMs records how long a submission took, in milliseconds.
func ObserveSubmissionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	submissionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "wizard_sessions_created_total", "Wizard sessions created", sessionsCreatedTotal.Load())
	writeCounter(&buf, "wizard_steps_advanced_total", "Steps advanced after validation", stepsAdvancedTotal.Load())
	writeCounter(&buf, "wizard_step_rejections_total", "Advances blocked by field errors", stepRejectionsTotal.Load())
	writeCounter(&buf, "wizard_files_staged_total", "Files staged", filesStagedTotal.Load())
	writeCounter(&buf, "wizard_files_rejected_total", "Files rejected by staging policy", filesRejectedTotal.Load())
	writeCounter(&buf, "wizard_submissions_total", "Submissions completed", submissionsTotal.Load())
	writeCounter(&buf, "wizard_submissions_cancelled_total", "Submissions cancelled before completion", submissionsCancelTotal.Load())
	writeHistogram(&buf, "wizard_submission_duration_ms", "Submission duration in milliseconds", submissionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket that holds it; writeHistogram
// accumulates the per-bucket counts into le buckets.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
