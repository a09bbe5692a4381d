package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/repository"
)

var _ repository.SubmissionRepository = (*submissionRepo)(nil)

type submissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) repository.SubmissionRepository {
	return &submissionRepo{pool: pool}
}

const submissionCols = `
id, type, name, email, whatsapp, age, gender, country, weight, height,
goal, injuries, plan, message, slot_date, slot_time, status, pay_status,
amount_paid, submitted_at`

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	var s model.Submission
	err := row.Scan(
		&s.ID, &s.Type, &s.Name, &s.Email, &s.WhatsApp, &s.Age, &s.Gender,
		&s.Country, &s.Weight, &s.Height, &s.Goal, &s.Injuries, &s.Plan,
		&s.Message, &s.Date, &s.Time, &s.Status, &s.PayStatus,
		&s.AmountPaid, &s.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

func (r *submissionRepo) Save(ctx context.Context, s *model.Submission) error {
	const q = `
INSERT INTO submissions (` + submissionCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.pool.Exec(ctx, q,
		s.ID, s.Type, s.Name, s.Email, s.WhatsApp, s.Age, s.Gender, s.Country,
		s.Weight, s.Height, s.Goal, s.Injuries, s.Plan, s.Message, s.Date,
		s.Time, s.Status, s.PayStatus, s.AmountPaid, s.SubmittedAt)
	return err
}

func (r *submissionRepo) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	const q = `SELECT ` + submissionCols + ` FROM submissions WHERE id = $1`
	return scanSubmission(r.pool.QueryRow(ctx, q, id))
}

func (r *submissionRepo) List(ctx context.Context, status model.SubmissionStatus, offset, limit int) ([]*model.Submission, error) {
	const base = `SELECT ` + submissionCols + ` FROM submissions`
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = r.pool.Query(ctx, base+` ORDER BY submitted_at DESC OFFSET $1 LIMIT $2`, offset, limit)
	} else {
		rows, err = r.pool.Query(ctx, base+` WHERE status = $1 ORDER BY submitted_at DESC OFFSET $2 LIMIT $3`, status, offset, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Submission, 0, limit)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *submissionRepo) Count(ctx context.Context, status model.SubmissionStatus) (int, error) {
	var (
		n   int
		err error
	)
	if status == "" {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE status = $1`, status).Scan(&n)
	}
	if err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *submissionRepo) CountByType(ctx context.Context) (map[model.SubmissionType]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT type, COUNT(*) FROM submissions GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.SubmissionType]int)
	for rows.Next() {
		var (
			t model.SubmissionType
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[t] = n
	}
	return out, rows.Err()
}

func (r *submissionRepo) UpdateStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE submissions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *submissionRepo) MarkPaid(ctx context.Context, email string, amount int64) error {
	// Latest submission for this email gets the payment; older ones stay put.
	const q = `
UPDATE submissions SET pay_status = 'paid', amount_paid = $2
WHERE id = (
    SELECT id FROM submissions WHERE email = $1
    ORDER BY submitted_at DESC LIMIT 1
)`
	tag, err := r.pool.Exec(ctx, q, email, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
