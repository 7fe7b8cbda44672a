package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	UserByEmail(ctx context.Context, email string) (ledger.User, error)
	UserByToken(ctx context.Context, token string) (ledger.User, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateUser(ctx context.Context, u ledger.User) (ledger.User, error)
	// SetAPIToken replaces the user's single active token wholesale.
	SetAPIToken(ctx context.Context, userID uuid.UUID, token string) error
}

// Service exposes registration, login and bearer-token resolution.
type Service interface {
	Register(ctx context.Context, name, email, password string) (ledger.User, error)
	Login(ctx context.Context, email, password string) (ledger.User, string, error)
	Authenticate(ctx context.Context, token string) (ledger.User, error)
}

type service struct {
	repo       Repo
	writer     Writer
	bcryptCost int
}

// New constructs the auth service. cost is the bcrypt work factor.
func New(repo Repo, writer Writer, cost int) Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &service{repo: repo, writer: writer, bcryptCost: cost}
}

// Register creates a user with a bcrypt password hash. The email must not be
// in use by another user.
func (s *service) Register(ctx context.Context, name, email, password string) (ledger.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return ledger.User{}, errs.ErrInvalid
	}

	_, err := s.repo.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return ledger.User{}, errs.ErrEmailTaken
	case !errors.Is(err, errs.ErrNotFound):
		return ledger.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return ledger.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := ledger.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	return s.writer.CreateUser(ctx, u)
}

// Login verifies credentials and mints a fresh opaque token, overwriting any
// previous one. Only one session per user is ever active.
func (s *service) Login(ctx context.Context, email, password string) (ledger.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return ledger.User{}, "", errs.ErrInvalid
	}

	u, err := s.repo.UserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.User{}, "", errs.ErrBadCredentials
	}
	if err != nil {
		return ledger.User{}, "", fmt.Errorf("lookup email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return ledger.User{}, "", errs.ErrBadCredentials
	}

	token := uuid.NewString()
	if err := s.writer.SetAPIToken(ctx, u.ID, token); err != nil {
		return ledger.User{}, "", fmt.Errorf("store token: %w", err)
	}
	u.APIToken = &token
	return u, token, nil
}

// Authenticate resolves an opaque bearer token to its user. Every ownership
// check downstream trusts the user ID returned here.
func (s *service) Authenticate(ctx context.Context, token string) (ledger.User, error) {
	if strings.TrimSpace(token) == "" {
		return ledger.User{}, errs.ErrUnauthorized
	}
	u, err := s.repo.UserByToken(ctx, token)
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.User{}, errs.ErrUnauthorized
	}
	if err != nil {
		return ledger.User{}, fmt.Errorf("lookup token: %w", err)
	}
	return u, nil
}
