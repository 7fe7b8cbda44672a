package movement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	AccountByID(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	CategoryByID(ctx context.Context, userID, categoryID uuid.UUID) (ledger.Category, error)
	PaymentMethodByID(ctx context.Context, userID, methodID uuid.UUID) (ledger.PaymentMethod, error)
	PaymentMethodsByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.PaymentMethod, error)
	// MovementsByUserID returns all active movements ordered by
	// (occurred_at asc, id asc).
	MovementsByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Movement, error)
	// LatestMovement returns the newest active movement, ok=false when none.
	LatestMovement(ctx context.Context, userID uuid.UUID) (ledger.Movement, bool, error)
	// LatestSnapshot returns the snapshot of the newest active movement that
	// has one, ok=false when no such movement exists.
	LatestSnapshot(ctx context.Context, userID uuid.UUID) (money.Amount, bool, error)
	// History returns up to limit active movements ordered by
	// (occurred_at desc, id desc) with display names left-joined.
	History(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryRow, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateMovement(ctx context.Context, m ledger.Movement) (ledger.Movement, error)
	// SoftDeleteMovement stamps deleted_at and returns the deleted row.
	// ok=false (with no error) when the movement is missing or unowned.
	SoftDeleteMovement(ctx context.Context, userID, movementID uuid.UUID) (ledger.Movement, bool, error)
	// UpdateSnapshots rewrites balance_after for the given movements.
	UpdateSnapshots(ctx context.Context, userID uuid.UUID, updates []SnapshotUpdate) error
}

// SnapshotUpdate carries a recomputed running balance for one movement.
type SnapshotUpdate struct {
	MovementID   uuid.UUID
	BalanceAfter money.Amount
}

// HistoryRow is a movement joined with its reference display names. Category
// and payment method are optional on the movement, so their names may be nil.
type HistoryRow struct {
	ledger.Movement
	AccountName       string
	CategoryName      *string
	PaymentMethodName *string
}

// RecordInput is a validated-on-entry request to append one movement.
type RecordInput struct {
	UserID          uuid.UUID
	AccountID       uuid.UUID
	CategoryID      *uuid.UUID
	PaymentMethodID *uuid.UUID
	Kind            ledger.Kind
	AmountMinor     int64
	Description     string
}

// HistoryResult is a page of movements plus the user's total balance.
type HistoryResult struct {
	Movements []HistoryRow
	Total     money.Amount
}

// Service is the ledger core: movement recording, history, soft deletion and
// the running-balance engine.
type Service interface {
	Record(ctx context.Context, in RecordInput) (ledger.Movement, error)
	History(ctx context.Context, userID uuid.UUID, limit int) (HistoryResult, error)
	Delete(ctx context.Context, userID, movementID uuid.UUID) error
	CurrentBalance(ctx context.Context, userID uuid.UUID) (money.Amount, error)
}

type service struct {
	repo   Repo
	writer Writer

	currency     string
	defaultLimit int
	maxLimit     int

	locks userLocks
	now   func() time.Time
}

// New constructs the movement service. currency is the single ledger currency
// (ISO code); defaultLimit/maxLimit bound history pages.
func New(repo Repo, writer Writer, currency string, defaultLimit, maxLimit int) Service {
	return &service{
		repo:         repo,
		writer:       writer,
		currency:     currency,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		now:          time.Now,
	}
}

// Record validates the input, computes the running-balance snapshot under the
// user's lock and appends the movement. All validation happens before the
// single insert, so a failed call leaves no row behind.
func (s *service) Record(ctx context.Context, in RecordInput) (ledger.Movement, error) {
	if in.UserID == uuid.Nil || in.AccountID == uuid.Nil {
		return ledger.Movement{}, errs.ErrInvalid
	}
	if !in.Kind.Valid() {
		return ledger.Movement{}, errs.ErrInvalidKind
	}
	if in.AmountMinor < 1 {
		return ledger.Movement{}, errs.ErrInvalidAmount
	}
	if in.Description == "" {
		return ledger.Movement{}, errs.ErrInvalidDescription
	}
	amount, err := money.NewAmountFromMinorUnits(s.currency, in.AmountMinor)
	if err != nil {
		return ledger.Movement{}, errs.ErrInvalidAmount
	}

	// Ownership checks. The account is mandatory; category and payment method
	// only when supplied. Unowned and missing ids are indistinguishable.
	if _, err := s.repo.AccountByID(ctx, in.UserID, in.AccountID); err != nil {
		return ledger.Movement{}, fmt.Errorf("account %s: %w", in.AccountID, err)
	}
	if in.CategoryID != nil {
		if _, err := s.repo.CategoryByID(ctx, in.UserID, *in.CategoryID); err != nil {
			return ledger.Movement{}, fmt.Errorf("category %s: %w", *in.CategoryID, err)
		}
	}
	isCredit := false
	if in.PaymentMethodID != nil {
		pm, err := s.repo.PaymentMethodByID(ctx, in.UserID, *in.PaymentMethodID)
		if err != nil {
			return ledger.Movement{}, fmt.Errorf("payment method %s: %w", *in.PaymentMethodID, err)
		}
		isCredit = pm.IsCredit()
	}

	// Read-then-write on the running balance must be serialized per user:
	// two concurrent recordings would otherwise both read the same prior
	// balance and write duplicate snapshots.
	unlock := s.locks.lock(in.UserID)
	defer unlock()

	prior, err := s.priorBalance(ctx, in.UserID)
	if err != nil {
		return ledger.Movement{}, err
	}
	snapshot, err := applyMovement(prior, in.Kind, amount, isCredit)
	if err != nil {
		return ledger.Movement{}, fmt.Errorf("apply movement: %w", err)
	}

	m := ledger.Movement{
		ID:              uuid.New(),
		UserID:          in.UserID,
		AccountID:       in.AccountID,
		CategoryID:      in.CategoryID,
		PaymentMethodID: in.PaymentMethodID,
		Kind:            in.Kind,
		Amount:          amount,
		Description:     in.Description,
		OccurredAt:      s.now().UTC(),
		BalanceAfter:    &snapshot,
	}
	return s.writer.CreateMovement(ctx, m)
}

// History returns up to limit movements newest-first together with the total
// balance. limit <= 0 selects the default; anything above the ceiling is
// clamped rather than rejected.
func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) (HistoryResult, error) {
	if userID == uuid.Nil {
		return HistoryResult{}, errs.ErrInvalid
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	rows, err := s.repo.History(ctx, userID, limit)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("history: %w", err)
	}
	// The newest row's snapshot is the total; fall back to the full-scan
	// aggregate when it is absent.
	if len(rows) > 0 && rows[0].BalanceAfter != nil {
		return HistoryResult{Movements: rows, Total: *rows[0].BalanceAfter}, nil
	}
	total, err := s.aggregateBalance(ctx, userID)
	if err != nil {
		return HistoryResult{}, err
	}
	return HistoryResult{Movements: rows, Total: total}, nil
}

// Delete soft-deletes a movement and repairs the snapshots of every later
// movement so stored running balances never go stale. Deleting a missing or
// unowned movement succeeds quietly.
func (s *service) Delete(ctx context.Context, userID, movementID uuid.UUID) error {
	if userID == uuid.Nil || movementID == uuid.Nil {
		return errs.ErrInvalid
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	deleted, ok, err := s.writer.SoftDeleteMovement(ctx, userID, movementID)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	if !ok {
		return nil
	}
	return s.repairSnapshots(ctx, userID, deleted)
}

// repairSnapshots recomputes the running balance over all remaining active
// movements and rewrites the snapshots of those recorded after the deleted
// one. Earlier snapshots are historical and stay untouched.
func (s *service) repairSnapshots(ctx context.Context, userID uuid.UUID, deleted ledger.Movement) error {
	credit, err := s.creditMethodIDs(ctx, userID)
	if err != nil {
		return err
	}
	movements, err := s.repo.MovementsByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("list movements: %w", err)
	}

	running := s.zero()
	updates := make([]SnapshotUpdate, 0)
	for _, m := range movements {
		running, err = applyMovement(running, m.Kind, m.Amount, isCreditMovement(m, credit))
		if err != nil {
			return fmt.Errorf("recompute movement %s: %w", m.ID, err)
		}
		if after(m, deleted) {
			updates = append(updates, SnapshotUpdate{MovementID: m.ID, BalanceAfter: running})
		}
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.writer.UpdateSnapshots(ctx, userID, updates); err != nil {
		return fmt.Errorf("update snapshots: %w", err)
	}
	return nil
}

// after reports whether m sorts after ref in ledger order (occurred_at, id).
func after(m, ref ledger.Movement) bool {
	if m.OccurredAt.After(ref.OccurredAt) {
		return true
	}
	if m.OccurredAt.Equal(ref.OccurredAt) {
		return m.ID.String() > ref.ID.String()
	}
	return false
}

// userLocks serializes balance read-then-write sequences per user. Entries
// are tiny and never evicted; the population is bounded by active users.
type userLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*sync.Mutex
}

func (l *userLocks) lock(userID uuid.UUID) (unlock func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[uuid.UUID]*sync.Mutex)
	}
	um, ok := l.m[userID]
	if !ok {
		um = &sync.Mutex{}
		l.m[userID] = um
	}
	l.mu.Unlock()
	um.Lock()
	return um.Unlock
}
