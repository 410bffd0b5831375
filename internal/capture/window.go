package capture

import "time"

// DefaultUploadMaxAge is the cap on capture-to-server-receipt latency.
// It is independent of the token TTL: the TTL bounds how long the client
// has to press the capture button, this bound governs how stale the upload
// of an already-captured image may be. A capture at second 59 of the
// token's life is still uploadable for the full 90 seconds.
const DefaultUploadMaxAge = 90 * time.Second

// RejectReason identifies why a capture window check failed.
type RejectReason string

const (
	// ReasonPredatesToken means the claimed capture instant is earlier
	// than the token that authorized it.
	ReasonPredatesToken RejectReason = "capture_predates_token"

	// ReasonUploadTooLate means the upload arrived more than the allowed
	// delay after the claimed capture instant.
	ReasonUploadTooLate RejectReason = "upload_too_late"
)

// Message returns the client-facing explanation for a rejection. Timing
// failures are spelled out (unlike token failures) so a legitimate client
// can diagnose clock skew or a slow network.
func (r RejectReason) Message() string {
	switch r {
	case ReasonPredatesToken:
		return "Invalid capture timestamp: before token creation"
	case ReasonUploadTooLate:
		return "Upload too late: image must be uploaded within 90 seconds of capture"
	default:
		return "Capture timing check failed"
	}
}

// Verdict is the outcome of a capture window check.
type Verdict struct {
	OK     bool
	Reason RejectReason
	// Delay is the observed capture-to-receipt latency, retained for
	// logging regardless of the verdict. Negative when the client clock
	// runs ahead of the server.
	Delay time.Duration
}

// Enforcer decides whether a client-claimed capture timestamp is
// temporally consistent with an honest live capture. It is a pure decision
// over three timestamps and keeps no state.
type Enforcer struct {
	maxUploadAge time.Duration
}

// NewEnforcer creates an Enforcer. A non-positive maxUploadAge falls back
// to DefaultUploadMaxAge.
func NewEnforcer(maxUploadAge time.Duration) Enforcer {
	if maxUploadAge <= 0 {
		maxUploadAge = DefaultUploadMaxAge
	}
	return Enforcer{maxUploadAge: maxUploadAge}
}

// Check applies the timing rules in order; the first failure wins.
//
//  1. The capture cannot predate the token that authorized it.
//  2. The upload must arrive within maxUploadAge of the claimed capture
//     instant. The boundary is inclusive: a delay of exactly maxUploadAge
//     is accepted.
//
// Token expiry is deliberately not re-checked here; that is the issuer's
// contract, enforced at Peek time.
func (e Enforcer) Check(tokenCreatedAt, captureAt, now time.Time) Verdict {
	delay := now.Sub(captureAt)

	if captureAt.Before(tokenCreatedAt) {
		return Verdict{OK: false, Reason: ReasonPredatesToken, Delay: delay}
	}

	if delay > e.maxUploadAge {
		return Verdict{OK: false, Reason: ReasonUploadTooLate, Delay: delay}
	}

	return Verdict{OK: true, Delay: delay}
}
