package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"blockon/api/internal/config"
	"blockon/api/internal/ids"
	"blockon/api/internal/models"
	"blockon/api/internal/repository"
	"blockon/api/internal/security"
)

// AuthService registers accounts and issues session tokens. Which identity an
// account is keyed by, and whether a password or a verified email is required,
// follows the configured variant.
type AuthService struct {
	accounts        AccountStore
	tokens          TokenSigner
	kind            models.IdentityKind
	verifyEmail     bool
	requirePassword bool
	log             zerolog.Logger
}

func NewAuthService(accounts AccountStore, tokens TokenSigner, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	s := &AuthService{
		accounts: accounts,
		tokens:   tokens,
		log:      log,
	}
	if cfg.RequiresEmailVerification() {
		s.kind = models.IdentityAddress
		s.verifyEmail = true
	} else {
		s.kind = models.IdentityEmail
		s.requirePassword = true
	}
	return s
}

func (s *AuthService) IdentityKind() models.IdentityKind {
	return s.kind
}

type RegisterInput struct {
	Identity        string
	Email           string
	Username        string
	ProfileFilename string
	Password        string
	IsJunggae       bool
}

type RegisterResult struct {
	Account models.Account
	Admin   bool
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	identity, err := models.ParseIdentity(s.kind, input.Identity)
	if err != nil {
		return RegisterResult{}, err
	}

	email := identity.Value
	if s.kind != models.IdentityEmail {
		if email, err = models.NormalizeEmail(input.Email); err != nil {
			return RegisterResult{}, err
		}
	}

	if _, err := s.accounts.FindByIdentity(ctx, identity); err == nil {
		return RegisterResult{}, ErrDuplicateAccount
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return RegisterResult{}, fmt.Errorf("find account: %w", err)
	}

	account := models.Account{
		ID:              ids.New(),
		Email:           email,
		Username:        strings.TrimSpace(input.Username),
		ProfileFilename: input.ProfileFilename,
		IsJunggae:       input.IsJunggae,
	}
	if s.kind == models.IdentityAddress {
		address := identity.Value
		account.EthAddress = &address
	}
	if s.requirePassword {
		if input.Password == "" {
			return RegisterResult{}, ErrPasswordRequired
		}
		hash, err := security.HashPassword(input.Password)
		if err != nil {
			return RegisterResult{}, err
		}
		account.PasswordHash = hash
	}

	consume := ""
	if s.verifyEmail {
		consume = email
	}

	created, err := s.accounts.Create(ctx, account, consume)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountExists):
			return RegisterResult{}, ErrDuplicateAccount
		case errors.Is(err, repository.ErrEmailNotVerified):
			return RegisterResult{}, ErrEmailNotVerified
		}
		return RegisterResult{}, fmt.Errorf("create account: %w", err)
	}

	event := s.log.Info().Str("account_id", created.ID).Str("identity", identity.String())
	if created.Admin {
		event = event.Bool("bootstrap_admin", true)
	}
	event.Msg("account registered")

	return RegisterResult{Account: created, Admin: created.Admin}, nil
}

type LoginInput struct {
	Identity string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   models.Account
}

// Login authenticates identity and issues a session token. Every
// authentication failure returns ErrAuthenticationFailed, whatever the cause.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	identity, err := models.ParseIdentity(s.kind, input.Identity)
	if err != nil {
		return LoginResult{}, ErrAuthenticationFailed
	}

	account, err := s.accounts.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			if s.requirePassword {
				burnPasswordCheck(input.Password)
			}
			return LoginResult{}, ErrAuthenticationFailed
		}
		return LoginResult{}, fmt.Errorf("find account: %w", err)
	}

	if s.requirePassword {
		ok, err := security.VerifyPassword(input.Password, account.PasswordHash)
		if err != nil {
			s.log.Error().Err(err).Str("account_id", account.ID).Msg("stored password hash unreadable")
		}
		if err != nil || !ok {
			return LoginResult{}, ErrAuthenticationFailed
		}
	}

	claims := security.SessionClaims{
		AccountID: account.ID,
		Admin:     account.Admin,
		IsJunggae: account.IsJunggae,
	}
	if key := account.Identity(s.kind); key.Kind == models.IdentityAddress {
		claims.EthAddress = key.Value
	} else {
		claims.Email = key.Value
	}

	token, expiresAt, err := s.tokens.Issue(claims)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("session token signing failed")
		return LoginResult{}, fmt.Errorf("%w: %w", ErrTokenIssuanceFailed, err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account,
	}, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnPasswordCheck spends the same work as a real verification so that an
// unknown identity is not distinguishable by response time.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = security.HashPassword("blockon-unknown-account")
	})
	_, _ = security.VerifyPassword(password, dummyHash)
}
