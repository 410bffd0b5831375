// Package model defines domain entities for the application.
package model

import "time"

// IssueStatus represents the handling state of a maintenance issue.
type IssueStatus string

const (
	IssuePending    IssueStatus = "pending"
	IssueProcessing IssueStatus = "processing"
	IssueDone       IssueStatus = "done"
)

// IsValid checks if the issue status is a recognized value.
func (s IssueStatus) IsValid() bool {
	return s == IssuePending || s == IssueProcessing || s == IssueDone
}

// Issue represents a maintenance report filed by a tenant for their rental.
type Issue struct {
	ID          string      `json:"issue_id"`
	RentalID    string      `json:"rental_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	MediaURLs   []string    `json:"media_urls,omitempty"`
	Status      IssueStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
