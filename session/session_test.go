package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ceramics-booking/errors"
)

const secret = "test-secret-0123456789"

func newTestGuard(registry Registry) (*Guard, time.Time) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	guard := NewGuard(secret, NewStaticCredentials("admin", "hunter22"), registry)
	guard.now = func() time.Time { return now }
	guard.newID = func() string { return "sess-1" }
	return guard, now
}

func TestValidateComputesExpiry(t *testing.T) {
	guard, now := newTestGuard(nil)

	stale, err := guard.sign(Info{Username: "admin", IssuedAt: now.Add(-25 * time.Hour)})
	require.NoError(t, err)
	_, err = guard.Validate(context.Background(), stale)
	assert.ErrorIs(t, err, ErrExpired)
	assert.True(t, stderrors.Is(err, errors.ErrAuth))

	fresh, err := guard.sign(Info{Username: "admin", IssuedAt: now.Add(-1 * time.Hour)})
	require.NoError(t, err)
	info, err := guard.Validate(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, "admin", info.Username)
	assert.Equal(t, now.Add(23*time.Hour), info.ExpiresAt)
}

func TestValidateRejectsMalformedTokens(t *testing.T) {
	guard, now := newTestGuard(nil)

	other := NewGuard("another-secret-0123456789", nil, nil)
	forged, err := other.sign(Info{Username: "admin", IssuedAt: now})
	require.NoError(t, err)

	future, err := guard.sign(Info{Username: "admin", IssuedAt: now.Add(time.Hour)})
	require.NoError(t, err)

	anonymous, err := guard.sign(Info{IssuedAt: now})
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c", forged, future, anonymous} {
		_, err := guard.Validate(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalid)
	}
}

func TestLogin(t *testing.T) {
	guard, now := newTestGuard(nil)

	token, info, err := guard.Login(context.Background(), "admin", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, now, info.IssuedAt)
	assert.Equal(t, now.Add(24*time.Hour), info.ExpiresAt)

	validated, err := guard.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "admin", validated.Username)

	_, _, err = guard.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrBadLogin)

	_, _, err = guard.Login(context.Background(), "root", "hunter22")
	assert.ErrorIs(t, err, ErrBadLogin)
}

func TestLoginUnconfigured(t *testing.T) {
	guard := NewGuard(secret, NewStaticCredentials("", ""), nil)

	_, _, err := guard.Login(context.Background(), "admin", "")
	assert.ErrorIs(t, err, ErrUnconfigured)
	assert.Equal(t, errors.KindInternal, errors.KindOf(err))
}

func TestStaticCredentialsWithBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	creds := NewStaticCredentials("admin", string(hash))
	assert.True(t, creds.Check("admin", "hunter22"))
	assert.False(t, creds.Check("admin", "hunter23"))
	assert.False(t, creds.Check("admin", string(hash)))
}

func TestRedisRegistryRevokesOnLogout(t *testing.T) {
	db, mock := redismock.NewClientMock()
	guard, _ := newTestGuard(NewRedisRegistry(db))
	ctx := context.Background()

	mock.ExpectSet("admin_session:sess-1", "1", Lifetime).SetVal("OK")
	token, _, err := guard.Login(ctx, "admin", "hunter22")
	require.NoError(t, err)

	mock.ExpectExists("admin_session:sess-1").SetVal(1)
	_, err = guard.Validate(ctx, token)
	require.NoError(t, err)

	mock.ExpectDel("admin_session:sess-1").SetVal(1)
	require.NoError(t, guard.Logout(ctx, token))

	mock.ExpectExists("admin_session:sess-1").SetVal(0)
	_, err = guard.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisOutageIsServiceUnavailable(t *testing.T) {
	db, mock := redismock.NewClientMock()
	guard, now := newTestGuard(NewRedisRegistry(db))

	token, err := guard.sign(Info{ID: "sess-1", Username: "admin", IssuedAt: now})
	require.NoError(t, err)

	mock.ExpectExists("admin_session:sess-1").SetErr(stderrors.New("connection refused"))
	_, err = guard.Validate(context.Background(), token)
	assert.True(t, stderrors.Is(err, errors.ErrServiceUnavailable))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutIgnoresMalformedToken(t *testing.T) {
	guard, _ := newTestGuard(nil)
	assert.NoError(t, guard.Logout(context.Background(), "garbage"))
}
