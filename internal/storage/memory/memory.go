package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing
// the Postgres store to be plugged in for real deployments.

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
	"ledgerd/internal/service/movement"
)

// movementKey tracks ordering for movements per user: sorted asc by
// (OccurredAt, ID). Soft-deleted rows stay in the index and are skipped.
type movementKey struct {
	At time.Time
	ID uuid.UUID
}

// Store is an in-memory implementation of every repository and writer used
// by the services. It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu             sync.RWMutex
	users          map[uuid.UUID]ledger.User
	usersByEmail   map[string]uuid.UUID
	usersByToken   map[string]uuid.UUID
	accounts       map[uuid.UUID]ledger.Account
	categories     map[uuid.UUID]ledger.Category
	paymentMethods map[uuid.UUID]ledger.PaymentMethod
	movements      map[uuid.UUID]*ledger.Movement
	// Per-user sorted index of movements for ordered scans.
	movementKeysByUser map[uuid.UUID][]movementKey
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:              make(map[uuid.UUID]ledger.User),
		usersByEmail:       make(map[string]uuid.UUID),
		usersByToken:       make(map[string]uuid.UUID),
		accounts:           make(map[uuid.UUID]ledger.Account),
		categories:         make(map[uuid.UUID]ledger.Category),
		paymentMethods:     make(map[uuid.UUID]ledger.PaymentMethod),
		movements:          make(map[uuid.UUID]*ledger.Movement),
		movementKeysByUser: make(map[uuid.UUID][]movementKey),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u ledger.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	if u.APIToken != nil {
		s.usersByToken[*u.APIToken] = u.ID
	}
}

func (s *Store) SeedAccount(a ledger.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}

func (s *Store) SeedCategory(c ledger.Category) {
	s.mu.Lock()
	s.categories[c.ID] = c
	s.mu.Unlock()
}

func (s *Store) SeedPaymentMethod(p ledger.PaymentMethod) {
	s.mu.Lock()
	s.paymentMethods[p.ID] = p
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]ledger.User{}
	s.usersByEmail = map[string]uuid.UUID{}
	s.usersByToken = map[string]uuid.UUID{}
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.categories = map[uuid.UUID]ledger.Category{}
	s.paymentMethods = map[uuid.UUID]ledger.PaymentMethod{}
	s.movements = map[uuid.UUID]*ledger.Movement{}
	s.movementKeysByUser = map[uuid.UUID][]movementKey{}
	s.mu.Unlock()
}

// --- Users ---

// CreateUser implements auth.Writer.
func (s *Store) CreateUser(_ context.Context, u ledger.User) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[u.Email]; ok {
		return ledger.User{}, errs.ErrEmailTaken
	}
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	return u, nil
}

// UserByEmail implements auth.Repo.
func (s *Store) UserByEmail(_ context.Context, email string) (ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return ledger.User{}, errs.ErrNotFound
	}
	return s.users[id], nil
}

// UserByToken implements auth.Repo.
func (s *Store) UserByToken(_ context.Context, token string) (ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByToken[token]
	if !ok {
		return ledger.User{}, errs.ErrNotFound
	}
	return s.users[id], nil
}

// SetAPIToken implements auth.Writer. The previous token, if any, stops
// resolving immediately: one active session per user.
func (s *Store) SetAPIToken(_ context.Context, userID uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return errs.ErrNotFound
	}
	if u.APIToken != nil {
		delete(s.usersByToken, *u.APIToken)
	}
	u.APIToken = &token
	s.users[userID] = u
	s.usersByToken[token] = userID
	return nil
}

// --- Reference data ---

// CreateAccount implements refdata.Writer.
func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
	return a, nil
}

// CreateCategory implements refdata.Writer.
func (s *Store) CreateCategory(_ context.Context, c ledger.Category) (ledger.Category, error) {
	s.mu.Lock()
	s.categories[c.ID] = c
	s.mu.Unlock()
	return c, nil
}

// CreatePaymentMethod implements refdata.Writer.
func (s *Store) CreatePaymentMethod(_ context.Context, p ledger.PaymentMethod) (ledger.PaymentMethod, error) {
	s.mu.Lock()
	s.paymentMethods[p.ID] = p
	s.mu.Unlock()
	return p, nil
}

// AccountsByUserID implements refdata.Repo.
func (s *Store) AccountsByUserID(_ context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CategoriesByUserID implements refdata.Repo.
func (s *Store) CategoriesByUserID(_ context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PaymentMethodsByUserID implements refdata.Repo and movement.Repo.
func (s *Store) PaymentMethodsByUserID(_ context.Context, userID uuid.UUID) ([]ledger.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.PaymentMethod, 0)
	for _, p := range s.paymentMethods {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AccountByID implements movement.Repo.
func (s *Store) AccountByID(_ context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// CategoryByID implements movement.Repo.
func (s *Store) CategoryByID(_ context.Context, userID, categoryID uuid.UUID) (ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return ledger.Category{}, errs.ErrNotFound
	}
	return c, nil
}

// PaymentMethodByID implements movement.Repo.
func (s *Store) PaymentMethodByID(_ context.Context, userID, methodID uuid.UUID) (ledger.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.paymentMethods[methodID]
	if !ok || p.UserID != userID {
		return ledger.PaymentMethod{}, errs.ErrNotFound
	}
	return p, nil
}

// --- Movements ---

// CreateMovement implements movement.Writer.
func (s *Store) CreateMovement(_ context.Context, m ledger.Movement) (ledger.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := m
	s.movements[cp.ID] = &cp
	s.insertMovementIndexLocked(cp.UserID, movementKey{At: cp.OccurredAt, ID: cp.ID})
	return cp, nil
}

// MovementsByUserID implements movement.Repo: active movements asc.
func (s *Store) MovementsByUserID(_ context.Context, userID uuid.UUID) ([]ledger.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.movementKeysByUser[userID]
	out := make([]ledger.Movement, 0, len(keys))
	for _, k := range keys {
		if m, ok := s.movements[k.ID]; ok && m.Active() {
			out = append(out, *m)
		}
	}
	return out, nil
}

// LatestMovement implements movement.Repo: newest active movement.
func (s *Store) LatestMovement(_ context.Context, userID uuid.UUID) (ledger.Movement, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.movementKeysByUser[userID]
	for i := len(keys) - 1; i >= 0; i-- {
		if m, ok := s.movements[keys[i].ID]; ok && m.Active() {
			return *m, true, nil
		}
	}
	return ledger.Movement{}, false, nil
}

// LatestSnapshot implements movement.Repo: newest active snapshot.
func (s *Store) LatestSnapshot(_ context.Context, userID uuid.UUID) (money.Amount, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.movementKeysByUser[userID]
	for i := len(keys) - 1; i >= 0; i-- {
		if m, ok := s.movements[keys[i].ID]; ok && m.Active() && m.BalanceAfter != nil {
			return *m.BalanceAfter, true, nil
		}
	}
	return money.Amount{}, false, nil
}

// History implements movement.Repo: newest-first page with display names.
func (s *Store) History(_ context.Context, userID uuid.UUID, limit int) ([]movement.HistoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.movementKeysByUser[userID]
	out := make([]movement.HistoryRow, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		m, ok := s.movements[keys[i].ID]
		if !ok || !m.Active() {
			continue
		}
		row := movement.HistoryRow{Movement: *m}
		if a, ok := s.accounts[m.AccountID]; ok {
			row.AccountName = a.Name
		}
		if m.CategoryID != nil {
			if c, ok := s.categories[*m.CategoryID]; ok {
				name := c.Name
				row.CategoryName = &name
			}
		}
		if m.PaymentMethodID != nil {
			if p, ok := s.paymentMethods[*m.PaymentMethodID]; ok {
				name := p.Name
				row.PaymentMethodName = &name
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// SoftDeleteMovement implements movement.Writer. Missing or unowned rows are
// reported via ok=false, not an error.
func (s *Store) SoftDeleteMovement(_ context.Context, userID, movementID uuid.UUID) (ledger.Movement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[movementID]
	if !ok || m.UserID != userID || !m.Active() {
		return ledger.Movement{}, false, nil
	}
	now := time.Now().UTC()
	m.DeletedAt = &now
	return *m, true, nil
}

// UpdateSnapshots implements movement.Writer.
func (s *Store) UpdateSnapshots(_ context.Context, userID uuid.UUID, updates []movement.SnapshotUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, up := range updates {
		m, ok := s.movements[up.MovementID]
		if !ok || m.UserID != userID {
			return errs.ErrNotFound
		}
		snap := up.BalanceAfter
		m.BalanceAfter = &snap
	}
	return nil
}

// insertMovementIndexLocked inserts k into the per-user sorted index, keeping
// order asc by (OccurredAt, ID). Caller must hold s.mu (write lock).
func (s *Store) insertMovementIndexLocked(userID uuid.UUID, k movementKey) {
	keys := s.movementKeysByUser[userID]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].At.After(k.At) {
			return true
		}
		if keys[i].At.Equal(k.At) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.movementKeysByUser[userID] = append(keys, k)
		return
	}
	keys = append(keys, movementKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.movementKeysByUser[userID] = keys
}
