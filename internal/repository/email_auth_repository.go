package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"blockon/api/internal/models"
)

type EmailAuthRepository struct {
	db DB
}

func NewEmailAuthRepository(db DB) *EmailAuthRepository {
	return &EmailAuthRepository{db: db}
}

func (r *EmailAuthRepository) Find(ctx context.Context, email string) (models.EmailAuth, error) {
	const query = `
		SELECT email, token, status, created_at, updated_at
		FROM email_auths WHERE email = $1
	`

	var (
		record models.EmailAuth
		status int16
	)
	if err := r.db.QueryRow(ctx, query, email).Scan(
		&record.Email,
		&record.Token,
		&status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmailAuth{}, ErrEmailAuthNotFound
		}
		return models.EmailAuth{}, err
	}
	record.Status = models.EmailAuthStatus(status)
	return record, nil
}

// SaveChallenge stores token as the current challenge for email. A new record
// starts pending; an existing one keeps its status. Consumed records are left
// untouched and reported with ErrEmailConsumed.
func (r *EmailAuthRepository) SaveChallenge(ctx context.Context, email string, token string) error {
	const query = `
		INSERT INTO email_auths (email, token, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			token = EXCLUDED.token,
			updated_at = NOW()
		WHERE email_auths.status < $4
	`
	cmd, err := r.db.Exec(ctx, query, email, token, int16(models.EmailAuthPending), int16(models.EmailAuthConsumed))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmailConsumed
	}
	return nil
}

// Verify marks a pending record verified, provided token is still its current
// challenge. Any other state is reported as ErrStatusConflict.
func (r *EmailAuthRepository) Verify(ctx context.Context, email string, token string) error {
	const query = `
		UPDATE email_auths SET status = $3, updated_at = NOW()
		WHERE email = $1 AND token = $2 AND status = $4
	`
	cmd, err := r.db.Exec(ctx, query, email, token, int16(models.EmailAuthVerified), int16(models.EmailAuthPending))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *EmailAuthRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM email_auths WHERE status = $1 AND updated_at < $2`
	cmd, err := r.db.Exec(ctx, query, int16(models.EmailAuthPending), cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
