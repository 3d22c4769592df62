package service

import (
	"errors"

	"blockon/api/internal/models"
)

var (
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrEmailNotVerified     = errors.New("invalid email")
	ErrAuthenticationFailed = errors.New("login failed")
	ErrTokenIssuanceFailed  = errors.New("token issuance failed")
	ErrEmailAuthNotFound    = errors.New("email auth not found")
	ErrInvalidToken         = errors.New("invalid token")
	ErrDispatchFailed       = errors.New("email dispatch failed")
	ErrAlreadyRegistered    = errors.New("already signed up")
	ErrChallengeThrottled   = errors.New("challenge requested too recently")
	ErrPasswordRequired     = errors.New("password required")
	ErrInvalidImage         = errors.New("profile must be a jpg or png image")
	ErrImageTooLarge        = errors.New("profile image too large")

	// ErrInvalidIdentity is shared with models so callers can match either.
	ErrInvalidIdentity = models.ErrInvalidIdentity
)
