package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
)

// Kind classifies a movement as money coming in or going out.
type Kind string

const (
	// KindInflow records money entering the user's balance.
	KindInflow Kind = "inflow"
	// KindOutflow records money leaving the user's balance.
	KindOutflow Kind = "outflow"
)

// Valid reports whether k is one of the two supported kinds.
func (k Kind) Valid() bool { return k == KindInflow || k == KindOutflow }

// PaymentMethodKind distinguishes balance-affecting methods from credit.
type PaymentMethodKind string

const (
	// PaymentMethodStandard settles immediately and affects the running balance.
	PaymentMethodStandard PaymentMethodKind = "standard"
	// PaymentMethodCredit defers settlement; its movements are recorded but
	// contribute nothing to the running balance.
	PaymentMethodCredit PaymentMethodKind = "credit"
)

// User owns all ledger data. A user holds at most one active API token;
// logging in overwrites it wholesale.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	APIToken     *string
}

// Account is a named bucket movements are recorded against. Accounts are
// never updated or deleted once created.
type Account struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
}

// Category optionally labels a movement.
type Category struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
}

// PaymentMethod optionally records how a movement was paid. Credit-kind
// methods are tracked but excluded from balance effect.
type PaymentMethod struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
	Kind   PaymentMethodKind
}

// IsCredit reports whether movements through this method are balance-neutral.
func (p PaymentMethod) IsCredit() bool { return p.Kind == PaymentMethodCredit }

// Movement is one ledger row: an inflow or outflow with its running-balance
// snapshot taken at recording time. Rows are append-only; the only mutation
// ever applied is the soft-delete timestamp.
type Movement struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AccountID       uuid.UUID
	CategoryID      *uuid.UUID
	PaymentMethodID *uuid.UUID
	Kind            Kind
	Amount          money.Amount
	Description     string
	OccurredAt      time.Time
	// BalanceAfter is the running balance including this movement. Nil means
	// no snapshot was written; fallback aggregation covers that case.
	BalanceAfter *money.Amount
	// DeletedAt marks a soft-deleted row; nil means active.
	DeletedAt *time.Time
}

// Active reports whether the movement is visible to queries and sums.
func (m Movement) Active() bool { return m.DeletedAt == nil }
