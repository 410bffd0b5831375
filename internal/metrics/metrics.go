// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Capture token lifecycle
	IncCaptureTokenIssued()
	IncCaptureTokenConsumed()
	ObserveCaptureTokensSwept(count int)

	// Upload outcomes
	IncUploadAccepted()
	IncUploadRejected(reason string) // reason: "token", "timing", "storage"
	ObserveUploadDelay(delay time.Duration)

	// Lookup cache
	IncLookupCacheHit()
	IncLookupCacheMiss()

	// Invoicing
	IncInvoiceGenerated()

	// Capture audit pipeline
	IncAuditEventPublished(status string) // status: "success", "dropped"
	IncAuditEventProcessed(status string) // status: "success", "failed", "dead_lettered"
	SetAuditQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
