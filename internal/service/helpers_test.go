package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"blockon/api/internal/config"
	"blockon/api/internal/mail"
	"blockon/api/internal/security"
)

const testSessionTTL = 7 * 24 * time.Hour

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type failingSigner struct{}

func (failingSigner) Issue(security.SessionClaims) (string, time.Time, error) {
	return "", time.Time{}, errors.New("signing key misconfigured")
}

func testConfig(variant string) *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret",
			SessionTTL: testSessionTTL,
			Issuer:     "blockon.house",
		},
		Mail: config.MailConfig{
			Driver:      config.MailLog,
			LinkBaseURL: "http://blockon.test",
		},
		Storage: config.StorageConfig{MaxProfileSize: 1 << 20},
		Auth: config.AuthConfig{
			Variant: variant,
			Store:   config.StoreMemory,
		},
	}
}

func testIssuer() *security.TokenIssuer {
	return security.NewTokenIssuer("test-secret", "blockon.house", testSessionTTL)
}

func randomAddress(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		t.Fatalf("random address: %v", err)
	}
	return "0x" + hex.EncodeToString(buf)
}

func randomEmail() string {
	return gofakeit.Email()
}

var nopLogger = zerolog.Nop()
