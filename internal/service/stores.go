package service

import (
	"context"
	"io"
	"time"

	"blockon/api/internal/models"
	"blockon/api/internal/security"
)

// AccountStore persists accounts. Create must apply the email consumption,
// the insert and the bootstrap-admin claim atomically.
type AccountStore interface {
	Create(ctx context.Context, account models.Account, consumeEmail string) (models.Account, error)
	FindByIdentity(ctx context.Context, identity models.Identity) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	List(ctx context.Context, limit, offset int) ([]models.Account, error)
}

type EmailAuthStore interface {
	Find(ctx context.Context, email string) (models.EmailAuth, error)
	SaveChallenge(ctx context.Context, email string, token string) error
	Verify(ctx context.Context, email string, token string) error
}

type Throttle interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type TokenSigner interface {
	Issue(claims security.SessionClaims) (string, time.Time, error)
}

type ObjectPutter interface {
	PutProfile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}
