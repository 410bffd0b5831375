package dto

// RecordMeterRequest represents the request body for submitting a reading.
type RecordMeterRequest struct {
	RentalID string  `json:"rental_id"`
	Type     string  `json:"type"`
	Month    string  `json:"month"`
	NewValue float64 `json:"new_value"`
	OCRValue float64 `json:"ocr_value,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
}

// ConfirmMeterRequest represents the request body for confirming a reading.
// CorrectedValue overrides the submitted value when the admin spots a misread.
type ConfirmMeterRequest struct {
	CorrectedValue *float64 `json:"corrected_value,omitempty"`
}
