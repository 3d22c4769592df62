package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type IdentityKind string

const (
	IdentityEmail   IdentityKind = "email"
	IdentityAddress IdentityKind = "address"
)

var ErrInvalidIdentity = errors.New("invalid identity")

var validate = validator.New()

// Identity is the unique login key of an account: an email or a chain address.
type Identity struct {
	Kind  IdentityKind
	Value string
}

// ParseIdentity normalizes raw and checks it is well formed for kind.
func ParseIdentity(kind IdentityKind, raw string) (Identity, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return Identity{}, fmt.Errorf("%w: empty %s", ErrInvalidIdentity, kind)
	}

	var rule string
	switch kind {
	case IdentityEmail:
		rule = "email"
	case IdentityAddress:
		rule = "eth_addr"
	default:
		return Identity{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentity, kind)
	}

	if err := validate.Var(value, rule); err != nil {
		return Identity{}, fmt.Errorf("%w: malformed %s", ErrInvalidIdentity, kind)
	}
	return Identity{Kind: kind, Value: value}, nil
}

// NormalizeEmail parses an email address outside of an identity context.
func NormalizeEmail(raw string) (string, error) {
	id, err := ParseIdentity(IdentityEmail, raw)
	if err != nil {
		return "", err
	}
	return id.Value, nil
}

func (i Identity) String() string {
	return string(i.Kind) + ":" + i.Value
}
