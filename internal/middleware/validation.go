// Package middleware provides HTTP middleware for the Roomify API.
package middleware

import (
	"errors"
	"regexp"
)

// Validation limits.
const (
	// MaxIDLength is the maximum length for entity identifiers.
	MaxIDLength = 64

	// CaptureTokenLength is the exact hex length of a capture token.
	CaptureTokenLength = 64

	// MaxImagePayloadLength is the maximum length of a base64 image
	// payload, including an optional data URI prefix.
	MaxImagePayloadLength = 8 * 1024 * 1024
)

// Validation errors.
var (
	ErrIDRequired       = errors.New("identifier is required")
	ErrIDTooLong        = errors.New("identifier exceeds maximum length")
	ErrIDInvalid        = errors.New("identifier contains invalid characters")
	ErrTokenInvalid     = errors.New("capture token format is invalid")
	ErrImageRequired    = errors.New("image payload is required")
	ErrImageTooLarge    = errors.New("image payload exceeds maximum size")
	ErrTimestampInvalid = errors.New("timestamp format is invalid")
)

// validIDPattern matches valid identifier characters.
// Allowed: a-z, A-Z, 0-9, hyphen, underscore
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validTokenPattern matches a lowercase hex capture token.
var validTokenPattern = regexp.MustCompile(`^[0-9a-f]+$`)

// ValidateID validates an entity identifier from a request.
func ValidateID(id string) error {
	if id == "" {
		return ErrIDRequired
	}

	if len(id) > MaxIDLength {
		return ErrIDTooLong
	}

	if !validIDPattern.MatchString(id) {
		return ErrIDInvalid
	}

	return nil
}

// ValidateCaptureToken checks the shape of a capture token before it is
// looked up. Tokens are 32 random bytes hex-encoded, so anything that is
// not exactly 64 lowercase hex characters can be rejected without
// touching the token store.
func ValidateCaptureToken(token string) error {
	if len(token) != CaptureTokenLength {
		return ErrTokenInvalid
	}

	if !validTokenPattern.MatchString(token) {
		return ErrTokenInvalid
	}

	return nil
}

// ValidateImagePayload bounds a base64 image payload.
func ValidateImagePayload(payload string) error {
	if payload == "" {
		return ErrImageRequired
	}

	if len(payload) > MaxImagePayloadLength {
		return ErrImageTooLarge
	}

	return nil
}
