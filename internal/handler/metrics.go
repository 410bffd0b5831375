package handler

import (
	"fmt"
	"net/http"

	"github.com/roomify/roomify/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "roomify_capture_tokens_issued_total %d\n", snap.CaptureTokensIssued)
	writeMetric(w, "roomify_capture_tokens_consumed_total %d\n", snap.CaptureTokensConsumed)
	writeMetric(w, "roomify_capture_tokens_swept_total %d\n", snap.CaptureTokensSwept)

	writeMetric(w, "roomify_capture_uploads_total{status=\"accepted\"} %d\n", snap.UploadsAccepted)
	writeMetric(w, "roomify_capture_uploads_rejected_total{reason=\"token\"} %d\n", snap.UploadsRejectedToken)
	writeMetric(w, "roomify_capture_uploads_rejected_total{reason=\"timing\"} %d\n", snap.UploadsRejectedTiming)
	writeMetric(w, "roomify_capture_uploads_rejected_total{reason=\"storage\"} %d\n", snap.UploadsRejectedStorage)

	writeMetric(w, "roomify_capture_upload_delay_seconds_count %d\n", snap.UploadDelayCount)
	writeMetric(w, "roomify_capture_upload_delay_seconds_sum %.6f\n", float64(snap.UploadDelayTotalNs)/1e9)

	writeMetric(w, "roomify_lookup_cache_hits_total %d\n", snap.LookupCacheHits)
	writeMetric(w, "roomify_lookup_cache_misses_total %d\n", snap.LookupCacheMisses)

	writeMetric(w, "roomify_invoices_generated_total %d\n", snap.InvoicesGenerated)

	writeMetric(w, "roomify_audit_events_published_total{status=\"success\"} %d\n", snap.AuditEventsPublished)
	writeMetric(w, "roomify_audit_events_published_total{status=\"dropped\"} %d\n", snap.AuditEventsDropped)
	writeMetric(w, "roomify_audit_events_processed_total{status=\"success\"} %d\n", snap.AuditEventsProcessed)
	writeMetric(w, "roomify_audit_events_processed_total{status=\"failed\"} %d\n", snap.AuditEventsFailed)
	writeMetric(w, "roomify_audit_events_processed_total{status=\"dead_lettered\"} %d\n", snap.AuditEventsDeadLettered)
	writeMetric(w, "roomify_audit_queue_depth %d\n", snap.AuditQueueDepth)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
