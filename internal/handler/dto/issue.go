package dto

// CreateIssueRequest represents the request body for filing an issue.
type CreateIssueRequest struct {
	RentalID    string   `json:"rental_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	MediaURLs   []string `json:"media_urls,omitempty"`
}

// UpdateIssueStatusRequest represents the request body for moving an issue
// through its workflow.
type UpdateIssueStatusRequest struct {
	Status string `json:"status"`
}
