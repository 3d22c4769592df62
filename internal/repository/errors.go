package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrEmailAuthNotFound = errors.New("email auth not found")
	ErrEmailConsumed     = errors.New("email already consumed")
	ErrEmailNotVerified  = errors.New("email not verified")
	ErrStatusConflict    = errors.New("email auth status changed")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
