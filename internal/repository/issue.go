package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/roomify/roomify/internal/model"
)

// ErrIssueNotFound is returned when a maintenance issue does not exist.
var ErrIssueNotFound = errors.New("issue not found")

const issueColumns = `id, rental_id, title, description, media_urls, status, created_at`

// CreateIssue inserts a new maintenance issue.
func (r *Repository) CreateIssue(ctx context.Context, issue *model.Issue) error {
	query := `
		INSERT INTO issues (id, rental_id, title, description, media_urls, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.RentalID,
		issue.Title,
		issue.Description,
		pq.Array(issue.MediaURLs),
		issue.Status,
		issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	return nil
}

// GetIssueByID retrieves an issue by its ID.
func (r *Repository) GetIssueByID(ctx context.Context, id string) (*model.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id = $1`

	issue, err := scanIssue(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to get issue by ID: %w", err)
	}

	return issue, nil
}

// ListIssuesByRentalID retrieves all issues filed for a rental.
func (r *Repository) ListIssuesByRentalID(ctx context.Context, rentalID string) ([]*model.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE rental_id = $1 ORDER BY created_at DESC`
	return r.queryIssues(ctx, query, rentalID)
}

// ListIssues retrieves all issues, optionally filtered by status.
func (r *Repository) ListIssues(ctx context.Context, status model.IssueStatus) ([]*model.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return r.queryIssues(ctx, query, args...)
}

// UpdateIssue updates the mutable fields of an issue.
func (r *Repository) UpdateIssue(ctx context.Context, issue *model.Issue) error {
	query := `
		UPDATE issues
		SET title = $2, description = $3, media_urls = $4, status = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		pq.Array(issue.MediaURLs),
		issue.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIssueNotFound
	}

	return nil
}

// DeleteIssue removes an issue.
func (r *Repository) DeleteIssue(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIssueNotFound
	}
	return nil
}

func (r *Repository) queryIssues(ctx context.Context, query string, args ...any) ([]*model.Issue, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []*model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}

	return issues, nil
}

// scanIssue scans an issue from a row.
func scanIssue(row pgx.Row) (*model.Issue, error) {
	var issue model.Issue
	err := row.Scan(
		&issue.ID,
		&issue.RentalID,
		&issue.Title,
		&issue.Description,
		pq.Array(&issue.MediaURLs),
		&issue.Status,
		&issue.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}
