// Roomify Capture Client Example
//
// This is a minimal example of the two-step meter capture flow: request a
// single-use capture token, then upload the photo with the claimed capture
// timestamp before the token expires.
//
// Usage:
//   export ROOMIFY_BASE_URL="http://localhost:8080"
//   export ROOMIFY_USER_ID="01J..."        # tenant user ID
//   export ROOMIFY_RENTAL_ID="01J..."      # active rental ID
//   go run main.go electric meter.jpg

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	RoomCode  string    `json:"room_code"`
	Message   string    `json:"message"`
}

type uploadResponse struct {
	ImageURL      string          `json:"image_url"`
	FileID        string          `json:"file_id"`
	WatermarkData json.RawMessage `json:"watermark_data"`
	Message       string          `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <electric|water> <image.jpg>", os.Args[0])
	}
	meterType := os.Args[1]
	imagePath := os.Args[2]

	baseURL := envOrDefault("ROOMIFY_BASE_URL", "http://localhost:8080")
	userID := mustEnv("ROOMIFY_USER_ID")
	rentalID := mustEnv("ROOMIFY_RENTAL_ID")

	// Step 1: request a capture token. The token is bound to the rental
	// and meter type and is only valid for a short window.
	var token tokenResponse
	status, err := doJSON(http.MethodPost, baseURL+"/api/v1/capture/token", userID,
		map[string]string{"rental_id": rentalID, "meter_type": meterType}, &token)
	if err != nil {
		log.Fatalf("token request: %v", err)
	}
	if status != http.StatusOK {
		log.Fatalf("token request failed with status %d", status)
	}
	log.Printf("✓ %s (room %s, expires %s)", token.Message, token.RoomCode, token.ExpiresAt.Format(time.RFC3339))

	// The photo must be taken AFTER the token was issued. A real client
	// opens the camera here; this example just reads a file.
	capturedAt := time.Now().UTC()

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		log.Fatalf("read image: %v", err)
	}

	// Step 2: upload the photo with the capture timestamp. The server
	// rejects captures that predate the token and uploads that arrive
	// more than 90 seconds after the claimed capture instant.
	payload := map[string]string{
		"token":             token.Token,
		"image":             base64.StdEncoding.EncodeToString(raw),
		"capture_timestamp": capturedAt.Format(time.RFC3339),
	}

	var uploaded uploadResponse
	status, err = doJSON(http.MethodPost, baseURL+"/api/v1/capture/upload", userID, payload, &uploaded)
	if err != nil {
		log.Fatalf("upload request: %v", err)
	}
	if status != http.StatusOK {
		log.Fatalf("upload failed with status %d", status)
	}

	log.Printf("✓ %s", uploaded.Message)
	log.Printf("  File ID: %s", uploaded.FileID)
	log.Printf("  URL:     %s", uploaded.ImageURL)
}

func doJSON(method, url, userID string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-User-Role", "tenant")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			log.Printf("  server: %s (%s)", apiErr.Error, apiErr.Code)
		}
		return resp.StatusCode, nil
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s environment variable is required", key)
	}
	return value
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
