package refdata

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	AccountsByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	CategoriesByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error)
	PaymentMethodsByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.PaymentMethod, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error)
	CreatePaymentMethod(ctx context.Context, p ledger.PaymentMethod) (ledger.PaymentMethod, error)
}

// Reference bundles everything a client needs to record a movement.
type Reference struct {
	Accounts       []ledger.Account
	Categories     []ledger.Category
	PaymentMethods []ledger.PaymentMethod
}

// Service exposes the reference tables movements are validated against.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) (Reference, error)
	CreateAccount(ctx context.Context, userID uuid.UUID, name, description string) (ledger.Account, error)
	CreateCategory(ctx context.Context, userID uuid.UUID, name string) (ledger.Category, error)
	CreatePaymentMethod(ctx context.Context, userID uuid.UUID, name string, kind ledger.PaymentMethodKind) (ledger.PaymentMethod, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// List returns all reference rows owned by the user.
func (s *service) List(ctx context.Context, userID uuid.UUID) (Reference, error) {
	if userID == uuid.Nil {
		return Reference{}, errs.ErrInvalid
	}
	accounts, err := s.repo.AccountsByUserID(ctx, userID)
	if err != nil {
		return Reference{}, err
	}
	categories, err := s.repo.CategoriesByUserID(ctx, userID)
	if err != nil {
		return Reference{}, err
	}
	methods, err := s.repo.PaymentMethodsByUserID(ctx, userID)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Accounts: accounts, Categories: categories, PaymentMethods: methods}, nil
}

// CreateAccount inserts a named account. Duplicate names are allowed.
func (s *service) CreateAccount(ctx context.Context, userID uuid.UUID, name, description string) (ledger.Account, error) {
	name = strings.TrimSpace(name)
	if userID == uuid.Nil || name == "" {
		return ledger.Account{}, errs.ErrInvalid
	}
	a := ledger.Account{ID: uuid.New(), UserID: userID, Name: name, Description: strings.TrimSpace(description)}
	return s.writer.CreateAccount(ctx, a)
}

// CreateCategory inserts a named category. Duplicate names are allowed.
func (s *service) CreateCategory(ctx context.Context, userID uuid.UUID, name string) (ledger.Category, error) {
	name = strings.TrimSpace(name)
	if userID == uuid.Nil || name == "" {
		return ledger.Category{}, errs.ErrInvalid
	}
	c := ledger.Category{ID: uuid.New(), UserID: userID, Name: name}
	return s.writer.CreateCategory(ctx, c)
}

// CreatePaymentMethod inserts a payment method. An empty kind defaults to
// standard; anything other than standard/credit is rejected.
func (s *service) CreatePaymentMethod(ctx context.Context, userID uuid.UUID, name string, kind ledger.PaymentMethodKind) (ledger.PaymentMethod, error) {
	name = strings.TrimSpace(name)
	if userID == uuid.Nil || name == "" {
		return ledger.PaymentMethod{}, errs.ErrInvalid
	}
	switch kind {
	case "":
		kind = ledger.PaymentMethodStandard
	case ledger.PaymentMethodStandard, ledger.PaymentMethodCredit:
	default:
		return ledger.PaymentMethod{}, errs.ErrInvalid
	}
	p := ledger.PaymentMethod{ID: uuid.New(), UserID: userID, Name: name, Kind: kind}
	return s.writer.CreatePaymentMethod(ctx, p)
}
