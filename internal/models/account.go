package models

import "time"

type Account struct {
	ID              string
	Email           string
	EthAddress      *string
	PasswordHash    []byte
	Username        string
	ProfileFilename string
	Admin           bool
	IsJunggae       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Identity returns the login key of the account for the given kind.
func (a Account) Identity(kind IdentityKind) Identity {
	if kind == IdentityAddress && a.EthAddress != nil {
		return Identity{Kind: IdentityAddress, Value: *a.EthAddress}
	}
	return Identity{Kind: IdentityEmail, Value: a.Email}
}

// EmailAuthStatus tracks how far an email address has moved through verification.
// Values are persisted and must not be renumbered.
type EmailAuthStatus int

const (
	EmailAuthPending  EmailAuthStatus = 0
	EmailAuthVerified EmailAuthStatus = 1
	EmailAuthConsumed EmailAuthStatus = 2
)

func (s EmailAuthStatus) String() string {
	switch s {
	case EmailAuthPending:
		return "pending"
	case EmailAuthVerified:
		return "verified"
	case EmailAuthConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

type EmailAuth struct {
	Email     string
	Token     string
	Status    EmailAuthStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
