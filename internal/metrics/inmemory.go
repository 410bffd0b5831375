package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CaptureTokensIssued     uint64
	CaptureTokensConsumed   uint64
	CaptureTokensSwept      uint64
	UploadsAccepted         uint64
	UploadsRejectedToken    uint64
	UploadsRejectedTiming   uint64
	UploadsRejectedStorage  uint64
	UploadDelayCount        uint64
	UploadDelayTotalNs      int64
	LookupCacheHits         uint64
	LookupCacheMisses       uint64
	InvoicesGenerated       uint64
	AuditEventsPublished    uint64
	AuditEventsDropped      uint64
	AuditEventsProcessed    uint64
	AuditEventsFailed       uint64
	AuditEventsDeadLettered uint64
	AuditQueueDepth         int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	captureTokensIssued    uint64
	captureTokensConsumed  uint64
	captureTokensSwept     uint64
	uploadsAccepted        uint64
	uploadsRejectedToken   uint64
	uploadsRejectedTiming  uint64
	uploadsRejectedStorage uint64
	uploadDelayCount       uint64
	uploadDelayTotalNs     int64
	lookupCacheHits        uint64
	lookupCacheMisses      uint64
	invoicesGenerated      uint64
	auditPublished         uint64
	auditDropped           uint64
	auditProcessed         uint64
	auditFailed            uint64
	auditDeadLettered      uint64
	auditQueueDepth        int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CaptureTokensIssued:    atomic.LoadUint64(&m.captureTokensIssued),
		CaptureTokensConsumed:  atomic.LoadUint64(&m.captureTokensConsumed),
		CaptureTokensSwept:     atomic.LoadUint64(&m.captureTokensSwept),
		UploadsAccepted:        atomic.LoadUint64(&m.uploadsAccepted),
		UploadsRejectedToken:   atomic.LoadUint64(&m.uploadsRejectedToken),
		UploadsRejectedTiming:  atomic.LoadUint64(&m.uploadsRejectedTiming),
		UploadsRejectedStorage: atomic.LoadUint64(&m.uploadsRejectedStorage),
		UploadDelayCount:       atomic.LoadUint64(&m.uploadDelayCount),
		UploadDelayTotalNs:     atomic.LoadInt64(&m.uploadDelayTotalNs),
		LookupCacheHits:        atomic.LoadUint64(&m.lookupCacheHits),
		LookupCacheMisses:      atomic.LoadUint64(&m.lookupCacheMisses),
		InvoicesGenerated:      atomic.LoadUint64(&m.invoicesGenerated),
		AuditEventsPublished:   atomic.LoadUint64(&m.auditPublished),
		AuditEventsDropped:     atomic.LoadUint64(&m.auditDropped),
		AuditEventsProcessed:   atomic.LoadUint64(&m.auditProcessed),
		AuditEventsFailed:      atomic.LoadUint64(&m.auditFailed),
		AuditEventsDeadLettered: atomic.LoadUint64(&m.auditDeadLettered),
		AuditQueueDepth:        atomic.LoadInt64(&m.auditQueueDepth),
	}
}

// IncCaptureTokenIssued increments the issued-token counter.
func (m *InMemoryRecorder) IncCaptureTokenIssued() {
	atomic.AddUint64(&m.captureTokensIssued, 1)
}

// IncCaptureTokenConsumed increments the consumed-token counter.
func (m *InMemoryRecorder) IncCaptureTokenConsumed() {
	atomic.AddUint64(&m.captureTokensConsumed, 1)
}

// ObserveCaptureTokensSwept adds to the swept-token counter.
func (m *InMemoryRecorder) ObserveCaptureTokensSwept(count int) {
	atomic.AddUint64(&m.captureTokensSwept, uint64(count))
}

// IncUploadAccepted increments the accepted-upload counter.
func (m *InMemoryRecorder) IncUploadAccepted() {
	atomic.AddUint64(&m.uploadsAccepted, 1)
}

// IncUploadRejected increments the rejection counter for a reason class.
func (m *InMemoryRecorder) IncUploadRejected(reason string) {
	switch reason {
	case "token":
		atomic.AddUint64(&m.uploadsRejectedToken, 1)
	case "timing":
		atomic.AddUint64(&m.uploadsRejectedTiming, 1)
	case "storage":
		atomic.AddUint64(&m.uploadsRejectedStorage, 1)
	}
}

// ObserveUploadDelay records a capture-to-receipt latency sample.
func (m *InMemoryRecorder) ObserveUploadDelay(delay time.Duration) {
	atomic.AddUint64(&m.uploadDelayCount, 1)
	atomic.AddInt64(&m.uploadDelayTotalNs, delay.Nanoseconds())
}

// IncLookupCacheHit increments the lookup cache hit counter.
func (m *InMemoryRecorder) IncLookupCacheHit() {
	atomic.AddUint64(&m.lookupCacheHits, 1)
}

// IncLookupCacheMiss increments the lookup cache miss counter.
func (m *InMemoryRecorder) IncLookupCacheMiss() {
	atomic.AddUint64(&m.lookupCacheMisses, 1)
}

// IncInvoiceGenerated increments the generated-invoice counter.
func (m *InMemoryRecorder) IncInvoiceGenerated() {
	atomic.AddUint64(&m.invoicesGenerated, 1)
}

// IncAuditEventPublished increments the published counter for a status.
func (m *InMemoryRecorder) IncAuditEventPublished(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.auditPublished, 1)
	case "dropped":
		atomic.AddUint64(&m.auditDropped, 1)
	}
}

// IncAuditEventProcessed increments the processed counter for a status.
func (m *InMemoryRecorder) IncAuditEventProcessed(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.auditProcessed, 1)
	case "failed":
		atomic.AddUint64(&m.auditFailed, 1)
	case "dead_lettered":
		atomic.AddUint64(&m.auditDeadLettered, 1)
	}
}

// SetAuditQueueDepth records the current stream backlog.
func (m *InMemoryRecorder) SetAuditQueueDepth(depth int64) {
	atomic.StoreInt64(&m.auditQueueDepth, depth)
}
