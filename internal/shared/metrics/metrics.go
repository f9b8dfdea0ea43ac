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
	handoffStartedTotal   atomic.Uint64
	handoffSucceededTotal atomic.Uint64
	handoffFailedTotal    atomic.Uint64
	handoffRetriesTotal   atomic.Uint64
	handoffRejectedTotal  atomic.Uint64

	sweepRunsTotal    atomic.Uint64
	sweepSkippedTotal atomic.Uint64
	sweepDeletedTotal atomic.Uint64
	sweepErrorsTotal  atomic.Uint64

	auditWriteFailedTotal atomic.Uint64

	handoffDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncHandoffStarted increments the started counter.
func IncHandoffStarted() { handoffStartedTotal.Add(1) }

// IncHandoffSucceeded increments the succeeded counter.
func IncHandoffSucceeded() { handoffSucceededTotal.Add(1) }

// IncHandoffFailed increments the failed counter.
func IncHandoffFailed() { handoffFailedTotal.Add(1) }

// IncHandoffRetries records extra attempts made against the platform.
func IncHandoffRetries(n int) {
	if n > 0 {
		handoffRetriesTotal.Add(uint64(n))
	}
}

// IncHandoffRejected counts handoffs refused for configuration reasons.
func IncHandoffRejected() { handoffRejectedTotal.Add(1) }

// ObserveSweep records the outcome of one sweep.
func ObserveSweep(deleted, errors int) {
	sweepRunsTotal.Add(1)
	if deleted > 0 {
		sweepDeletedTotal.Add(uint64(deleted))
	}
	if errors > 0 {
		sweepErrorsTotal.Add(uint64(errors))
	}
}

// IncSweepSkipped counts sweeps skipped because another one held the lock.
func IncSweepSkipped() { sweepSkippedTotal.Add(1) }

// IncAuditWriteFailed counts audit entries that could not be persisted.
func IncAuditWriteFailed() { auditWriteFailedTotal.Add(1) }

// ObserveHandoffDurationMs records a handoff duration in milliseconds.
func ObserveHandoffDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	handoffDuration.Observe(value)
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
	writeCounter(&buf, "handoff_started_total", "Total document handoffs started", handoffStartedTotal.Load())
	writeCounter(&buf, "handoff_succeeded_total", "Total document handoffs accepted by the platform", handoffSucceededTotal.Load())
	writeCounter(&buf, "handoff_failed_total", "Total document handoffs that failed", handoffFailedTotal.Load())
	writeCounter(&buf, "handoff_retries_total", "Extra platform upload attempts", handoffRetriesTotal.Load())
	writeCounter(&buf, "handoff_rejected_total", "Handoffs refused due to missing credentials", handoffRejectedTotal.Load())
	writeCounter(&buf, "sweep_runs_total", "Cleanup sweeps executed", sweepRunsTotal.Load())
	writeCounter(&buf, "sweep_skipped_total", "Cleanup sweeps skipped while another held the lock", sweepSkippedTotal.Load())
	writeCounter(&buf, "sweep_deleted_total", "Stored files deleted by cleanup", sweepDeletedTotal.Load())
	writeCounter(&buf, "sweep_errors_total", "Per-document cleanup failures", sweepErrorsTotal.Load())
	writeCounter(&buf, "audit_write_failed_total", "Audit entries that failed to persist", auditWriteFailedTotal.Load())
	writeHistogram(&buf, "handoff_duration_ms", "Handoff duration in milliseconds", handoffDuration.Snapshot())
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
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
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
