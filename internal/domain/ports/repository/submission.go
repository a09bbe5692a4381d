package repository

import (
	"context"

	"akram-coaching-backend/internal/domain/model"
)

// SubmissionRepository persists intake/contact/booking form submissions.
type SubmissionRepository interface {
	Save(ctx context.Context, s *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	// List returns submissions newest first. status filters when non-empty.
	List(ctx context.Context, status model.SubmissionStatus, offset, limit int) ([]*model.Submission, error)
	Count(ctx context.Context, status model.SubmissionStatus) (int, error)
	CountByType(ctx context.Context) (map[model.SubmissionType]int, error)
	UpdateStatus(ctx context.Context, id string, status model.SubmissionStatus) error
	// MarkPaid records a verified payment against the client's most recent
	// submission, matched by email.
	MarkPaid(ctx context.Context, email string, amount int64) error
}
