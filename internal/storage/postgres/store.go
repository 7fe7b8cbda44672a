package postgres

// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit: mapping between domain entities and
// SQL rows plus the necessary statements/transactions. The schema lives in
// the embedded migrations applied by RunMigrations.

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
	"ledgerd/internal/service/movement"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
// Amounts are stored as bigint minor units in the single service currency.
type Store struct {
	pool     *pgxpool.Pool
	currency string
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn, currency string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, currency: currency}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) amount(minor int64) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(s.currency, minor)
}

// --- Users ---

// CreateUser inserts a user row. A duplicate email maps to ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u ledger.User) (ledger.User, error) {
	_, err := s.pool.Exec(ctx, `
        insert into users (id, name, email, password_hash, api_token)
        values ($1,$2,$3,$4,$5)
    `, u.ID, u.Name, u.Email, u.PasswordHash, u.APIToken)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ledger.User{}, errs.ErrEmailTaken
	}
	if err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

// UserByEmail fetches a user by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (ledger.User, error) {
	return s.userBy(ctx, `email = $1`, email)
}

// UserByToken resolves a user via their single active API token.
func (s *Store) UserByToken(ctx context.Context, token string) (ledger.User, error) {
	return s.userBy(ctx, `api_token = $1`, token)
}

func (s *Store) userBy(ctx context.Context, where string, arg any) (ledger.User, error) {
	var u ledger.User
	err := s.pool.QueryRow(ctx, `
        select id, name, email, password_hash, api_token
        from users
        where `+where+`
    `, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.APIToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.User{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

// SetAPIToken replaces the user's active token wholesale.
func (s *Store) SetAPIToken(ctx context.Context, userID uuid.UUID, token string) error {
	ct, err := s.pool.Exec(ctx, `update users set api_token = $1 where id = $2`, token, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Reference data ---

// CreateAccount inserts an account row.
func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	_, err := s.pool.Exec(ctx, `
        insert into accounts (id, user_id, name, description)
        values ($1,$2,$3,$4)
    `, a.ID, a.UserID, a.Name, a.Description)
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// CreateCategory inserts a category row.
func (s *Store) CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error) {
	_, err := s.pool.Exec(ctx, `
        insert into categories (id, user_id, name)
        values ($1,$2,$3)
    `, c.ID, c.UserID, c.Name)
	if err != nil {
		return ledger.Category{}, err
	}
	return c, nil
}

// CreatePaymentMethod inserts a payment method row.
func (s *Store) CreatePaymentMethod(ctx context.Context, p ledger.PaymentMethod) (ledger.PaymentMethod, error) {
	_, err := s.pool.Exec(ctx, `
        insert into payment_methods (id, user_id, name, kind)
        values ($1,$2,$3,$4)
    `, p.ID, p.UserID, p.Name, p.Kind)
	if err != nil {
		return ledger.PaymentMethod{}, err
	}
	return p, nil
}

// AccountsByUserID returns all accounts for a user.
func (s *Store) AccountsByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
        select id, user_id, name, description
        from accounts
        where user_id = $1
        order by name, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Description); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CategoriesByUserID returns all categories for a user.
func (s *Store) CategoriesByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	rows, err := s.pool.Query(ctx, `
        select id, user_id, name
        from categories
        where user_id = $1
        order by name, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Category, 0)
	for rows.Next() {
		var c ledger.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PaymentMethodsByUserID returns all payment methods for a user.
func (s *Store) PaymentMethodsByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.PaymentMethod, error) {
	rows, err := s.pool.Query(ctx, `
        select id, user_id, name, kind
        from payment_methods
        where user_id = $1
        order by name, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.PaymentMethod, 0)
	for rows.Next() {
		var p ledger.PaymentMethod
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Kind); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AccountByID fetches a single account scoped to its owner.
func (s *Store) AccountByID(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	var a ledger.Account
	err := s.pool.QueryRow(ctx, `
        select id, user_id, name, description
        from accounts
        where id = $1 and user_id = $2
    `, accountID, userID).Scan(&a.ID, &a.UserID, &a.Name, &a.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// CategoryByID fetches a single category scoped to its owner.
func (s *Store) CategoryByID(ctx context.Context, userID, categoryID uuid.UUID) (ledger.Category, error) {
	var c ledger.Category
	err := s.pool.QueryRow(ctx, `
        select id, user_id, name
        from categories
        where id = $1 and user_id = $2
    `, categoryID, userID).Scan(&c.ID, &c.UserID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Category{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Category{}, err
	}
	return c, nil
}

// PaymentMethodByID fetches a single payment method scoped to its owner.
func (s *Store) PaymentMethodByID(ctx context.Context, userID, methodID uuid.UUID) (ledger.PaymentMethod, error) {
	var p ledger.PaymentMethod
	err := s.pool.QueryRow(ctx, `
        select id, user_id, name, kind
        from payment_methods
        where id = $1 and user_id = $2
    `, methodID, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.PaymentMethod{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.PaymentMethod{}, err
	}
	return p, nil
}

// --- Movements ---

const movementColumns = `id, user_id, account_id, category_id, payment_method_id,
        kind, amount_minor, description, occurred_at, balance_after_minor, deleted_at`

func (s *Store) scanMovement(row pgx.Row) (ledger.Movement, error) {
	var m ledger.Movement
	var amountMinor int64
	var balanceMinor *int64
	if err := row.Scan(&m.ID, &m.UserID, &m.AccountID, &m.CategoryID, &m.PaymentMethodID,
		&m.Kind, &amountMinor, &m.Description, &m.OccurredAt, &balanceMinor, &m.DeletedAt); err != nil {
		return ledger.Movement{}, err
	}
	amt, err := s.amount(amountMinor)
	if err != nil {
		return ledger.Movement{}, fmt.Errorf("amount for %s: %w", m.ID, err)
	}
	m.Amount = amt
	if balanceMinor != nil {
		bal, err := s.amount(*balanceMinor)
		if err != nil {
			return ledger.Movement{}, fmt.Errorf("balance for %s: %w", m.ID, err)
		}
		m.BalanceAfter = &bal
	}
	return m, nil
}

// CreateMovement appends one ledger row. The insert is a single atomic
// statement; the caller has already validated and serialized per user.
func (s *Store) CreateMovement(ctx context.Context, m ledger.Movement) (ledger.Movement, error) {
	amountMinor, _ := m.Amount.MinorUnits()
	var balanceMinor *int64
	if m.BalanceAfter != nil {
		v, _ := m.BalanceAfter.MinorUnits()
		balanceMinor = &v
	}
	_, err := s.pool.Exec(ctx, `
        insert into movements (id, user_id, account_id, category_id, payment_method_id,
            kind, amount_minor, description, occurred_at, balance_after_minor)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, m.ID, m.UserID, m.AccountID, m.CategoryID, m.PaymentMethodID,
		m.Kind, amountMinor, m.Description, m.OccurredAt, balanceMinor)
	if err != nil {
		return ledger.Movement{}, err
	}
	return m, nil
}

// MovementsByUserID returns all active movements ordered asc by
// (occurred_at, id).
func (s *Store) MovementsByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Movement, error) {
	rows, err := s.pool.Query(ctx, `
        select `+movementColumns+`
        from movements
        where user_id = $1 and deleted_at is null
        order by occurred_at asc, id asc
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Movement, 0)
	for rows.Next() {
		m, err := s.scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LatestMovement returns the newest active movement, ok=false when none.
func (s *Store) LatestMovement(ctx context.Context, userID uuid.UUID) (ledger.Movement, bool, error) {
	row := s.pool.QueryRow(ctx, `
        select `+movementColumns+`
        from movements
        where user_id = $1 and deleted_at is null
        order by occurred_at desc, id desc
        limit 1
    `, userID)
	m, err := s.scanMovement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Movement{}, false, nil
	}
	if err != nil {
		return ledger.Movement{}, false, err
	}
	return m, true, nil
}

// LatestSnapshot returns the newest stored running balance, ok=false when no
// active movement carries one.
func (s *Store) LatestSnapshot(ctx context.Context, userID uuid.UUID) (money.Amount, bool, error) {
	var minor int64
	err := s.pool.QueryRow(ctx, `
        select balance_after_minor
        from movements
        where user_id = $1 and deleted_at is null and balance_after_minor is not null
        order by occurred_at desc, id desc
        limit 1
    `, userID).Scan(&minor)
	if errors.Is(err, pgx.ErrNoRows) {
		return money.Amount{}, false, nil
	}
	if err != nil {
		return money.Amount{}, false, err
	}
	amt, err := s.amount(minor)
	if err != nil {
		return money.Amount{}, false, err
	}
	return amt, true, nil
}

// History returns up to limit active movements newest-first with reference
// display names left-joined. Absent optional references yield null names,
// never row loss.
func (s *Store) History(ctx context.Context, userID uuid.UUID, limit int) ([]movement.HistoryRow, error) {
	rows, err := s.pool.Query(ctx, `
        select m.id, m.user_id, m.account_id, m.category_id, m.payment_method_id,
               m.kind, m.amount_minor, m.description, m.occurred_at,
               m.balance_after_minor, m.deleted_at,
               a.name, c.name, p.name
        from movements m
        join accounts a on a.id = m.account_id
        left join categories c on c.id = m.category_id
        left join payment_methods p on p.id = m.payment_method_id
        where m.user_id = $1 and m.deleted_at is null
        order by m.occurred_at desc, m.id desc
        limit $2
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]movement.HistoryRow, 0, limit)
	for rows.Next() {
		var r movement.HistoryRow
		var amountMinor int64
		var balanceMinor *int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.AccountID, &r.CategoryID, &r.PaymentMethodID,
			&r.Kind, &amountMinor, &r.Description, &r.OccurredAt, &balanceMinor, &r.DeletedAt,
			&r.AccountName, &r.CategoryName, &r.PaymentMethodName); err != nil {
			return nil, err
		}
		amt, err := s.amount(amountMinor)
		if err != nil {
			return nil, fmt.Errorf("amount for %s: %w", r.ID, err)
		}
		r.Amount = amt
		if balanceMinor != nil {
			bal, err := s.amount(*balanceMinor)
			if err != nil {
				return nil, fmt.Errorf("balance for %s: %w", r.ID, err)
			}
			r.BalanceAfter = &bal
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SoftDeleteMovement stamps deleted_at and returns the deleted row. Missing,
// unowned or already-deleted rows report ok=false with no error.
func (s *Store) SoftDeleteMovement(ctx context.Context, userID, movementID uuid.UUID) (ledger.Movement, bool, error) {
	row := s.pool.QueryRow(ctx, `
        update movements
        set deleted_at = now()
        where id = $1 and user_id = $2 and deleted_at is null
        returning `+movementColumns+`
    `, movementID, userID)
	m, err := s.scanMovement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Movement{}, false, nil
	}
	if err != nil {
		return ledger.Movement{}, false, err
	}
	return m, true, nil
}

// UpdateSnapshots rewrites balance_after_minor for the given movements in a
// single transaction.
func (s *Store) UpdateSnapshots(ctx context.Context, userID uuid.UUID, updates []movement.SnapshotUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, up := range updates {
		minor, _ := up.BalanceAfter.MinorUnits()
		ct, err := tx.Exec(ctx, `
            update movements
            set balance_after_minor = $1
            where id = $2 and user_id = $3
        `, minor, up.MovementID, userID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
	}
	return tx.Commit(ctx)
}
