package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	jobsStartedTotal   atomic.Uint64
	jobsCompletedTotal atomic.Uint64
	jobsFailedTotal    atomic.Uint64
	jobsRetriedTotal   atomic.Uint64
	jobsReceivedTotal  atomic.Uint64

	jobsDroppedUnrecoverableTotal atomic.Uint64

	recordsClassifiedTotal atomic.Uint64

	jobDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000})
)

// IncJobStarted increments the started counter.
func IncJobStarted() {
	jobsStartedTotal.Add(1)
}

// IncJobCompleted increments the completed counter.
func IncJobCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobFailed increments the terminal-failure counter.
func IncJobFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobRetried increments the retry counter.
func IncJobRetried() {
	jobsRetriedTotal.Add(1)
}

// IncJobsReceived increments the queue-delivery counter.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsDroppedUnrecoverable increments the counter of queue deliveries
// deleted without processing (empty, undecodable, or id-less payloads).
func IncJobsDroppedUnrecoverable() {
	jobsDroppedUnrecoverableTotal.Add(1)
}

// AddRecordsClassified adds to the classified-record counter.
func AddRecordsClassified(n int) {
	if n <= 0 {
		return
	}
	recordsClassifiedTotal.Add(uint64(n))
}

// ObserveJobDurationMs records a job processing duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
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
	writeCounter(&buf, "job_started_total", "Total jobs started", jobsStartedTotal.Load())
	writeCounter(&buf, "job_completed_total", "Total jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "job_failed_total", "Total jobs terminally failed", jobsFailedTotal.Load())
	writeCounter(&buf, "job_retried_total", "Total job retry attempts", jobsRetriedTotal.Load())
	writeCounter(&buf, "job_received_total", "Total queue deliveries received", jobsReceivedTotal.Load())
	writeCounter(&buf, "job_dropped_unrecoverable_total", "Total queue deliveries deleted without processing", jobsDroppedUnrecoverableTotal.Load())
	writeCounter(&buf, "records_classified_total", "Total recommendation records classified", recordsClassifiedTotal.Load())
	writeHistogram(&buf, "job_duration_ms", "Job processing duration in milliseconds", jobDuration.Snapshot())
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

// DurationMs converts a duration to float milliseconds for histogram observation.
func DurationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
