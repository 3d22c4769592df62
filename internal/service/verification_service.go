package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"blockon/api/internal/config"
	"blockon/api/internal/mail"
	"blockon/api/internal/models"
	"blockon/api/internal/repository"
	"blockon/api/internal/security"
)

// ConfirmOutcome is the informational result of a confirmation that did not fail.
type ConfirmOutcome string

const (
	OutcomeCertified        ConfirmOutcome = "certification"
	OutcomeAlreadyCertified ConfirmOutcome = "already certification"
	OutcomeAlreadySignedUp  ConfirmOutcome = "already signed up"
)

// VerificationService drives an email address from pending to verified.
// Registration consumes the verified record.
type VerificationService struct {
	records  EmailAuthStore
	mailer   mail.Mailer
	throttle Throttle
	linkBase string
	newToken func() (string, error)
	log      zerolog.Logger
}

// NewVerificationService builds the service. throttle may be nil to disable
// the resend cooldown.
func NewVerificationService(records EmailAuthStore, mailer mail.Mailer, throttle Throttle, cfg *config.AppConfig, log zerolog.Logger) *VerificationService {
	return &VerificationService{
		records:  records,
		mailer:   mailer,
		throttle: throttle,
		linkBase: cfg.Mail.LinkBaseURL,
		newToken: func() (string, error) {
			return security.GenerateChallengeToken(security.ChallengeTokenLength)
		},
		log: log,
	}
}

// RequestChallenge mails a fresh token to email and records it. The record is
// written only after the mail has been handed off, so a failed dispatch leaves
// the previous token in force.
func (s *VerificationService) RequestChallenge(ctx context.Context, rawEmail string) error {
	email, err := models.NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	record, err := s.records.Find(ctx, email)
	switch {
	case err == nil:
		if record.Status == models.EmailAuthConsumed {
			return ErrAlreadyRegistered
		}
	case errors.Is(err, repository.ErrEmailAuthNotFound):
	default:
		return fmt.Errorf("find email auth: %w", err)
	}

	if s.throttle != nil {
		ok, err := s.throttle.Acquire(ctx, email)
		if err != nil {
			return err
		}
		if !ok {
			return ErrChallengeThrottled
		}
	}

	token, err := s.newToken()
	if err != nil {
		s.releaseThrottle(ctx, email)
		return err
	}

	msg, err := mail.VerificationMessage(s.linkBase, email, token)
	if err != nil {
		s.releaseThrottle(ctx, email)
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.releaseThrottle(ctx, email)
		s.log.Warn().Err(err).Str("email", email).Msg("verification email dispatch failed")
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	if err := s.records.SaveChallenge(ctx, email, token); err != nil {
		// The mailed token is unknown to the store, so a retry must be allowed.
		s.releaseThrottle(ctx, email)
		if errors.Is(err, repository.ErrEmailConsumed) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("save challenge: %w", err)
	}

	s.log.Debug().Str("email", email).Msg("verification challenge sent")
	return nil
}

// Confirm checks token against the current challenge for email. Mismatches
// leave the record pending and may be retried without limit.
func (s *VerificationService) Confirm(ctx context.Context, rawEmail string, token string) (ConfirmOutcome, error) {
	email, err := models.NormalizeEmail(rawEmail)
	if err != nil {
		return "", ErrEmailAuthNotFound
	}

	// The second pass only runs when a concurrent writer changed the record
	// between the read and the conditional update.
	for attempt := 0; attempt < 2; attempt++ {
		record, err := s.records.Find(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrEmailAuthNotFound) {
				return "", ErrEmailAuthNotFound
			}
			return "", fmt.Errorf("find email auth: %w", err)
		}

		switch record.Status {
		case models.EmailAuthVerified:
			return OutcomeAlreadyCertified, nil
		case models.EmailAuthConsumed:
			return OutcomeAlreadySignedUp, nil
		case models.EmailAuthPending:
			if subtle.ConstantTimeCompare([]byte(record.Token), []byte(token)) != 1 {
				return "", ErrInvalidToken
			}
			err := s.records.Verify(ctx, email, record.Token)
			if err == nil {
				s.log.Info().Str("email", email).Msg("email verified")
				return OutcomeCertified, nil
			}
			if !errors.Is(err, repository.ErrStatusConflict) {
				return "", fmt.Errorf("verify email auth: %w", err)
			}
		default:
			return "", fmt.Errorf("email auth %s has unknown status %d", email, record.Status)
		}
	}
	return "", fmt.Errorf("email auth %s: %w", email, repository.ErrStatusConflict)
}

func (s *VerificationService) releaseThrottle(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Release(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("release challenge cooldown failed")
	}
}
