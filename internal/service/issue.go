package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roomify/roomify/internal/model"
	"github.com/roomify/roomify/internal/repository"
)

// Issue service errors.
var (
	ErrIssueNotFound      = errors.New("issue not found")
	ErrInvalidIssueTitle  = errors.New("issue title is required")
	ErrInvalidIssueStatus = errors.New("invalid issue status")
	ErrTooManyMediaURLs   = errors.New("too many media attachments")
)

const maxIssueMediaURLs = 5

// IssueService handles maintenance issue business logic.
type IssueService struct {
	repo *repository.Repository
}

// NewIssueService creates a new IssueService.
func NewIssueService(repo *repository.Repository) *IssueService {
	return &IssueService{repo: repo}
}

// CreateIssueInput defines input for filing a maintenance issue.
type CreateIssueInput struct {
	RentalID    string
	Title       string
	Description string
	MediaURLs   []string
}

// CreateIssue files a maintenance issue against a rental.
func (s *IssueService) CreateIssue(ctx context.Context, input CreateIssueInput) (*model.Issue, error) {
	if input.Title == "" {
		return nil, ErrInvalidIssueTitle
	}
	if len(input.MediaURLs) > maxIssueMediaURLs {
		return nil, ErrTooManyMediaURLs
	}

	rental, err := s.repo.GetRentalByID(ctx, input.RentalID)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	if !rental.IsActive() {
		return nil, ErrNotActiveRental
	}

	issue := &model.Issue{
		ID:          ulid.Make().String(),
		RentalID:    input.RentalID,
		Title:       input.Title,
		Description: input.Description,
		MediaURLs:   input.MediaURLs,
		Status:      model.IssuePending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	return issue, nil
}

// GetIssue retrieves an issue by ID.
func (s *IssueService) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	issue, err := s.repo.GetIssueByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrIssueNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return issue, nil
}

// ListIssues retrieves issues, optionally filtered by status.
func (s *IssueService) ListIssues(ctx context.Context, status model.IssueStatus) ([]*model.Issue, error) {
	if status != "" && !status.IsValid() {
		return nil, ErrInvalidIssueStatus
	}
	return s.repo.ListIssues(ctx, status)
}

// ListIssuesByRental retrieves all issues filed for a rental.
func (s *IssueService) ListIssuesByRental(ctx context.Context, rentalID string) ([]*model.Issue, error) {
	return s.repo.ListIssuesByRentalID(ctx, rentalID)
}

// UpdateIssueStatus moves an issue through its workflow.
func (s *IssueService) UpdateIssueStatus(ctx context.Context, id string, status model.IssueStatus) (*model.Issue, error) {
	if !status.IsValid() {
		return nil, ErrInvalidIssueStatus
	}

	issue, err := s.repo.GetIssueByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrIssueNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}

	issue.Status = status

	if err := s.repo.UpdateIssue(ctx, issue); err != nil {
		return nil, err
	}

	return issue, nil
}
