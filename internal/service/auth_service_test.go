package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"blockon/api/internal/models"
	"blockon/api/internal/repository"
	"blockon/api/internal/security"
)

type addressFixture struct {
	store  *repository.MemoryStore
	auth   *AuthService
	verify *VerificationService
	mailer *recordingMailer
	issuer *security.TokenIssuer
}

func newAddressFixture(t *testing.T) *addressFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	mailer := &recordingMailer{}
	issuer := testIssuer()
	cfg := testConfig("address")
	return &addressFixture{
		store:  store,
		auth:   NewAuthService(store.Accounts(), issuer, cfg, nopLogger),
		verify: NewVerificationService(store.EmailAuths(), mailer, nil, cfg, nopLogger),
		mailer: mailer,
		issuer: issuer,
	}
}

// verifiedEmail runs the challenge flow for email and returns once it is verified.
func (f *addressFixture) verifiedEmail(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.verify.RequestChallenge(ctx, email))
	outcome, err := f.verify.Confirm(ctx, email, mailedToken(t, f.mailer))
	require.NoError(t, err)
	require.Equal(t, OutcomeCertified, outcome)
}

func (f *addressFixture) register(address, email string) (RegisterResult, error) {
	return f.auth.Register(context.Background(), RegisterInput{
		Identity:        address,
		Email:           email,
		Username:        gofakeit.Username(),
		ProfileFilename: "1700000000000_me.png",
	})
}

func TestRegistrationScenario(t *testing.T) {
	f := newAddressFixture(t)
	ctx := context.Background()
	address := randomAddress(t)

	f.verifiedEmail(t, "a@x.com")

	result, err := f.register(address, "a@x.com")
	require.NoError(t, err)
	assert.True(t, result.Admin, "first account in an empty store")
	assert.Equal(t, "a@x.com", result.Account.Email)
	require.NotNil(t, result.Account.EthAddress)
	assert.Equal(t, address, *result.Account.EthAddress)
	assert.Nil(t, result.Account.PasswordHash)

	record, err := f.store.EmailAuths().Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.EmailAuthConsumed, record.Status)

	assert.ErrorIs(t, f.verify.RequestChallenge(ctx, "a@x.com"), ErrAlreadyRegistered)
}

func TestRegisterRequiresVerifiedEmail(t *testing.T) {
	f := newAddressFixture(t)
	ctx := context.Background()

	_, err := f.register(randomAddress(t), "absent@x.com")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, f.verify.RequestChallenge(ctx, "pending@x.com"))
	_, err = f.register(randomAddress(t), "pending@x.com")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	record, err := f.store.EmailAuths().Find(ctx, "pending@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.EmailAuthPending, record.Status)

	accounts, err := f.store.Accounts().List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	f := newAddressFixture(t)
	address := randomAddress(t)

	f.verifiedEmail(t, "first@x.com")
	_, err := f.register(address, "first@x.com")
	require.NoError(t, err)

	// Consumed, verified and absent email records all lose to the identity check.
	_, err = f.register(address, "first@x.com")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	f.verifiedEmail(t, "second@x.com")
	_, err = f.register(address, "second@x.com")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = f.register(address, "never@x.com")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	record, err := f.store.EmailAuths().Find(context.Background(), "second@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.EmailAuthVerified, record.Status, "failed registration leaves email verified")
}

func TestRegisterRejectsMalformedIdentity(t *testing.T) {
	f := newAddressFixture(t)
	_, err := f.register("0x1234", "a@x.com")
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = f.register(randomAddress(t), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestOnlyFirstRegistrationIsAdmin(t *testing.T) {
	f := newAddressFixture(t)

	for i := 0; i < 4; i++ {
		email := fmt.Sprintf("user%d@x.com", i)
		f.verifiedEmail(t, email)
		result, err := f.register(randomAddress(t), email)
		require.NoError(t, err)
		assert.Equal(t, i == 0, result.Admin, "registration %d", i)
	}
}

func TestConcurrentFirstRegistrationsGrantOneAdmin(t *testing.T) {
	f := newAddressFixture(t)
	const n = 16

	emails := make([]string, n)
	addresses := make([]string, n)
	for i := range emails {
		emails[i] = fmt.Sprintf("racer%d@x.com", i)
		addresses[i] = randomAddress(t)
		f.verifiedEmail(t, emails[i])
	}

	var admins atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			result, err := f.auth.Register(context.Background(), RegisterInput{
				Identity: addresses[i],
				Email:    emails[i],
				Username: fmt.Sprintf("racer%d", i),
			})
			if err != nil {
				return err
			}
			if result.Admin {
				admins.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), admins.Load())
}

func TestLoginIssuesSevenDayToken(t *testing.T) {
	f := newAddressFixture(t)
	address := randomAddress(t)
	f.verifiedEmail(t, "a@x.com")
	_, err := f.register(address, "a@x.com")
	require.NoError(t, err)

	result, err := f.auth.Login(context.Background(), LoginInput{Identity: address})
	require.NoError(t, err)

	claims, err := f.issuer.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.Equal(t, "blockon.house", claims.Issuer)
	assert.Equal(t, "userInfo", claims.Subject)
	assert.Equal(t, result.Account.ID, claims.AccountID)
	assert.Equal(t, address, claims.EthAddress)
	assert.Empty(t, claims.Email)
	assert.True(t, claims.Admin)
	assert.True(t, claims.ExpiresAt.Time.Equal(result.ExpiresAt))
}

func TestLoginUnknownAddress(t *testing.T) {
	f := newAddressFixture(t)

	_, err := f.auth.Login(context.Background(), LoginInput{Identity: randomAddress(t)})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = f.auth.Login(context.Background(), LoginInput{Identity: "garbage"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginSigningFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	cfg := testConfig("address")
	auth := NewAuthService(store.Accounts(), failingSigner{}, cfg, nopLogger)
	address := randomAddress(t)
	_, err := store.Accounts().Create(context.Background(), models.Account{ID: "acc-1", Email: "a@x.com", EthAddress: &address}, "")
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), LoginInput{Identity: address})
	assert.ErrorIs(t, err, ErrTokenIssuanceFailed)
	assert.NotErrorIs(t, err, ErrAuthenticationFailed)
}

func newPasswordAuth(t *testing.T) (*AuthService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewAuthService(store.Accounts(), testIssuer(), testConfig("password"), nopLogger), store
}

func TestPasswordVariantSkipsVerification(t *testing.T) {
	auth, store := newPasswordAuth(t)
	ctx := context.Background()

	result, err := auth.Register(ctx, RegisterInput{Identity: "Pw@X.com", Username: "pw", Password: "correct horse"})
	require.NoError(t, err)
	assert.True(t, result.Admin)
	assert.Equal(t, "pw@x.com", result.Account.Email)
	assert.Nil(t, result.Account.EthAddress)

	stored, err := store.Accounts().GetByID(ctx, result.Account.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(stored.PasswordHash), "correct horse")
	ok, err := security.VerifyPassword("correct horse", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = auth.Register(ctx, RegisterInput{Identity: "pw@x.com", Username: "again", Password: "other"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = auth.Register(ctx, RegisterInput{Identity: "nopw@x.com", Username: "nopw"})
	assert.ErrorIs(t, err, ErrPasswordRequired)

	login, err := auth.Login(ctx, LoginInput{Identity: "PW@x.com", Password: "correct horse"})
	require.NoError(t, err)
	claims, err := testIssuer().Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "pw@x.com", claims.Email)
	assert.Empty(t, claims.EthAddress)
}

func TestPasswordLoginFailuresAreIndistinguishable(t *testing.T) {
	auth, _ := newPasswordAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{Identity: "pw@x.com", Username: "pw", Password: "correct horse"})
	require.NoError(t, err)

	_, unknownErr := auth.Login(ctx, LoginInput{Identity: "ghost@x.com", Password: "correct horse"})
	_, wrongErr := auth.Login(ctx, LoginInput{Identity: "pw@x.com", Password: "battery staple"})
	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())

	result, err := auth.Login(ctx, LoginInput{Identity: "PW@x.com", Password: "correct horse"})
	require.NoError(t, err)
	claims, err := testIssuer().Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "pw@x.com", claims.Email)
	assert.Empty(t, claims.EthAddress)
}
