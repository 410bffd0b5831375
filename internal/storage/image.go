// Package storage persists captured meter images and hands back stable
// references for them. Images arrive as base64 payloads (optionally with a
// data-URI prefix) and are written beneath a configured upload directory.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomify/roomify/internal/model"
)

// Storage errors.
var (
	// ErrInvalidImage indicates the payload is empty or not valid base64.
	ErrInvalidImage = errors.New("invalid image payload")
)

// dataURIPrefix strips an optional "data:image/...;base64," prefix.
var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// SaveResult describes a stored image.
type SaveResult struct {
	FileID string
	URL    string
}

// ImageStore writes meter images to the local filesystem and serves them
// under baseURL. It is the ingestion collaborator for the capture flow:
// a token is only consumed after Save returns successfully.
type ImageStore struct {
	dir     string
	baseURL string
}

// NewImageStore creates an ImageStore rooted at dir.
func NewImageStore(dir, baseURL string) *ImageStore {
	return &ImageStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Ping verifies the upload directory exists and is writable. Uploads fail
// closed if the disk is gone, so readiness should catch it first.
func (s *ImageStore) Ping(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	probe := filepath.Join(s.dir, ".readyz")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return fmt.Errorf("upload dir not writable: %w", err)
	}
	_ = os.Remove(probe)
	return nil
}

// Save decodes and persists an image, returning its file ID and public URL.
func (s *ImageStore) Save(_ context.Context, encoded string, rentalID string, meterType model.MeterType, roomCode string) (*SaveResult, error) {
	payload := dataURIPrefix.ReplaceAllString(encoded, "")
	if payload == "" {
		return nil, ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidImage
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	fileName := meterImageFileName(rentalID, meterType, roomCode)
	if err := os.WriteFile(filepath.Join(s.dir, fileName), data, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	return &SaveResult{
		FileID: fileName,
		URL:    s.baseURL + "/uploads/meter-images/" + fileName,
	}, nil
}

// Delete removes a stored image. Missing files are not an error.
func (s *ImageStore) Delete(_ context.Context, fileID string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(fileID)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// fileNameSegment collapses anything outside [A-Za-z0-9-] to a hyphen.
var fileNameSegment = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// meterImageFileName builds a unique, self-describing filename:
// meter_{type}_{room}_{rental}_{date}_{suffix}.jpg
// Room and rental segments are sanitized so the underscore stays a
// reliable field separator even when IDs contain one.
func meterImageFileName(rentalID string, meterType model.MeterType, roomCode string) string {
	date := time.Now().UTC().Format("2006-01-02")
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("meter_%s_%s_%s_%s_%s.jpg",
		meterType,
		fileNameSegment.ReplaceAllString(roomCode, "-"),
		fileNameSegment.ReplaceAllString(rentalID, "-"),
		date, suffix)
}
