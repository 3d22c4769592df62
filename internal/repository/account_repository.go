package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"blockon/api/internal/models"
)

const accountColumns = `id, email, eth_address, password_hash, username, profile_filename, admin, is_junggae, created_at, updated_at`

type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts account and, when consumeEmail is set, moves that email's
// verification record from verified to consumed. Both writes and the
// bootstrap-admin claim commit together or not at all. The returned account
// carries the final admin flag.
func (r *AccountRepository) Create(ctx context.Context, account models.Account, consumeEmail string) (models.Account, error) {
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if consumeEmail != "" {
			cmd, err := tx.Exec(ctx, `
				UPDATE email_auths SET status = $2, updated_at = NOW()
				WHERE email = $1 AND status = $3
			`, consumeEmail, int16(models.EmailAuthConsumed), int16(models.EmailAuthVerified))
			if err != nil {
				return fmt.Errorf("consume email: %w", err)
			}
			if cmd.RowsAffected() == 0 {
				return ErrEmailNotVerified
			}
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO accounts (
				id, email, eth_address, password_hash, username, profile_filename, admin, is_junggae, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, FALSE, $7, NOW(), NOW()
			)
			RETURNING created_at, updated_at
		`,
			account.ID,
			account.Email,
			account.EthAddress,
			account.PasswordHash,
			account.Username,
			account.ProfileFilename,
			account.IsJunggae,
		)
		if err := row.Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return ErrAccountExists
			}
			return fmt.Errorf("insert account: %w", err)
		}

		cmd, err := tx.Exec(ctx, `
			INSERT INTO admin_bootstrap (singleton, account_id, created_at)
			VALUES (TRUE, $1, NOW())
			ON CONFLICT (singleton) DO NOTHING
		`, account.ID)
		if err != nil {
			return fmt.Errorf("claim bootstrap admin: %w", err)
		}
		if cmd.RowsAffected() == 1 {
			if _, err := tx.Exec(ctx, `UPDATE accounts SET admin = TRUE WHERE id = $1`, account.ID); err != nil {
				return fmt.Errorf("assign admin: %w", err)
			}
			account.Admin = true
		}
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) FindByIdentity(ctx context.Context, identity models.Identity) (models.Account, error) {
	var query string
	switch identity.Kind {
	case models.IdentityEmail:
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	case models.IdentityAddress:
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE eth_address = $1`
	default:
		return models.Account{}, fmt.Errorf("unsupported identity kind %q", identity.Kind)
	}
	return scanAccount(r.db.QueryRow(ctx, query, identity.Value))
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.EthAddress,
		&account.PasswordHash,
		&account.Username,
		&account.ProfileFilename,
		&account.Admin,
		&account.IsJunggae,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
