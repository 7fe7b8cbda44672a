package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ledgerd/internal/errs"
	"ledgerd/internal/service/auth"
	"ledgerd/internal/storage/memory"
)

func newService(t *testing.T) (auth.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return auth.New(store, store, bcrypt.MinCost), store
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ada", "  Ada@Example.COM ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email, "email is trimmed and lowercased")
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = svc.Register(ctx, "Other Ada", "ada@example.com", "hunter2")
	assert.ErrorIs(t, err, errs.ErrEmailTaken)

	_, err = svc.Register(ctx, "", "blank@example.com", "s3cret")
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = svc.Register(ctx, "Ada", "ada2@example.com", "")
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ada", "ada@example.com", "s3cret")
	require.NoError(t, err)

	got, token, err := svc.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, errs.ErrBadCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, errs.ErrBadCredentials)
}

func TestLogin_ReplacesToken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "s3cret")
	require.NoError(t, err)

	_, first, err := svc.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	_, second, err := svc.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Only the newest token resolves.
	_, err = svc.Authenticate(ctx, first)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	u, err := svc.Authenticate(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "s3cret")
	require.NoError(t, err)
	_, token, err := svc.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}
