package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCaptureTokenIssued is a no-op.
func (n *NoopRecorder) IncCaptureTokenIssued() {}

// IncCaptureTokenConsumed is a no-op.
func (n *NoopRecorder) IncCaptureTokenConsumed() {}

// ObserveCaptureTokensSwept is a no-op.
func (n *NoopRecorder) ObserveCaptureTokensSwept(count int) {}

// IncUploadAccepted is a no-op.
func (n *NoopRecorder) IncUploadAccepted() {}

// IncUploadRejected is a no-op.
func (n *NoopRecorder) IncUploadRejected(reason string) {}

// ObserveUploadDelay is a no-op.
func (n *NoopRecorder) ObserveUploadDelay(delay time.Duration) {}

// IncLookupCacheHit is a no-op.
func (n *NoopRecorder) IncLookupCacheHit() {}

// IncLookupCacheMiss is a no-op.
func (n *NoopRecorder) IncLookupCacheMiss() {}

// IncInvoiceGenerated is a no-op.
func (n *NoopRecorder) IncInvoiceGenerated() {}

// IncAuditEventPublished is a no-op.
func (n *NoopRecorder) IncAuditEventPublished(status string) {}

// IncAuditEventProcessed is a no-op.
func (n *NoopRecorder) IncAuditEventProcessed(status string) {}

// SetAuditQueueDepth is a no-op.
func (n *NoopRecorder) SetAuditQueueDepth(depth int64) {}
