package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
	"ledgerd/internal/service/movement"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn, "BRL")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func truncateAll(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.pool.Exec(ctx, `truncate table movements, payment_methods, categories, accounts, users cascade`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func seedUser(t *testing.T, ctx context.Context, s *Store) ledger.User {
	t.Helper()
	u, err := s.CreateUser(ctx, ledger.User{ID: uuid.New(), Name: "Ada", Email: uuid.NewString() + "@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestStore_UsersAndTokens(t *testing.T) {
	dsn := getTestDSN(t)
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	s := mustOpen(t, dsn)
	defer s.Close()
	truncateAll(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}

	u := seedUser(t, ctx, s)

	// Duplicate email maps to the domain error.
	_, err := s.CreateUser(ctx, ledger.User{ID: uuid.New(), Name: "Imposter", Email: u.Email, PasswordHash: "y"})
	if !errors.Is(err, errs.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := s.UserByEmail(ctx, u.Email)
	if err != nil || got.ID != u.ID {
		t.Fatalf("user by email: %v %+v", err, got)
	}

	token := uuid.NewString()
	if err := s.SetAPIToken(ctx, u.ID, token); err != nil {
		t.Fatalf("set token: %v", err)
	}
	got, err = s.UserByToken(ctx, token)
	if err != nil || got.ID != u.ID {
		t.Fatalf("user by token: %v %+v", err, got)
	}

	// Replacing the token invalidates the old one.
	next := uuid.NewString()
	if err := s.SetAPIToken(ctx, u.ID, next); err != nil {
		t.Fatalf("replace token: %v", err)
	}
	if _, err := s.UserByToken(ctx, token); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected old token to stop resolving, got %v", err)
	}
}

func TestStore_MovementsRoundTrip(t *testing.T) {
	dsn := getTestDSN(t)
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	s := mustOpen(t, dsn)
	defer s.Close()
	truncateAll(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u := seedUser(t, ctx, s)
	acc, err := s.CreateAccount(ctx, ledger.Account{ID: uuid.New(), UserID: u.ID, Name: "Wallet"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cat, err := s.CreateCategory(ctx, ledger.Category{ID: uuid.New(), UserID: u.ID, Name: "Groceries"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	pm, err := s.CreatePaymentMethod(ctx, ledger.PaymentMethod{ID: uuid.New(), UserID: u.ID, Name: "Credit Card", Kind: ledger.PaymentMethodCredit})
	if err != nil {
		t.Fatalf("create payment method: %v", err)
	}

	// Ownership scoping: someone else's id behaves as missing.
	if _, err := s.AccountByID(ctx, uuid.New(), acc.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign account, got %v", err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mkAmount := func(minor int64) money.Amount {
		amt, err := money.NewAmountFromMinorUnits("BRL", minor)
		if err != nil {
			t.Fatalf("amount: %v", err)
		}
		return amt
	}
	mkMovement := func(kind ledger.Kind, minor, snapMinor int64, at time.Time, catID, pmID *uuid.UUID) ledger.Movement {
		snap := mkAmount(snapMinor)
		return ledger.Movement{
			ID: uuid.New(), UserID: u.ID, AccountID: acc.ID,
			CategoryID: catID, PaymentMethodID: pmID,
			Kind: kind, Amount: mkAmount(minor), Description: "row",
			OccurredAt: at, BalanceAfter: &snap,
		}
	}

	m1, err := s.CreateMovement(ctx, mkMovement(ledger.KindInflow, 10000, 10000, base, &cat.ID, nil))
	if err != nil {
		t.Fatalf("create m1: %v", err)
	}
	m2, err := s.CreateMovement(ctx, mkMovement(ledger.KindOutflow, 3000, 7000, base.Add(time.Minute), nil, nil))
	if err != nil {
		t.Fatalf("create m2: %v", err)
	}
	m3, err := s.CreateMovement(ctx, mkMovement(ledger.KindOutflow, 2000, 7000, base.Add(2*time.Minute), nil, &pm.ID))
	if err != nil {
		t.Fatalf("create m3: %v", err)
	}

	all, err := s.MovementsByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != m1.ID || all[2].ID != m3.ID {
		t.Fatalf("expected asc order, got %+v", all)
	}

	latest, ok, err := s.LatestMovement(ctx, u.ID)
	if err != nil || !ok || latest.ID != m3.ID {
		t.Fatalf("latest: %v ok=%v %+v", err, ok, latest)
	}
	snap, ok, err := s.LatestSnapshot(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("latest snapshot: %v ok=%v", err, ok)
	}
	if v, _ := snap.MinorUnits(); v != 7000 {
		t.Fatalf("expected snapshot 7000, got %d", v)
	}

	hist, err := s.History(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 || hist[0].ID != m3.ID {
		t.Fatalf("expected newest-first history, got %+v", hist)
	}
	if hist[0].AccountName != "Wallet" || hist[0].PaymentMethodName == nil || *hist[0].PaymentMethodName != "Credit Card" {
		t.Fatalf("expected joined names, got %+v", hist[0])
	}
	if hist[2].CategoryName == nil || *hist[2].CategoryName != "Groceries" {
		t.Fatalf("expected category name, got %+v", hist[2])
	}

	// Soft delete hides the row from every active-scoped query.
	deleted, ok, err := s.SoftDeleteMovement(ctx, u.ID, m2.ID)
	if err != nil || !ok || deleted.ID != m2.ID || deleted.DeletedAt == nil {
		t.Fatalf("soft delete: %v ok=%v %+v", err, ok, deleted)
	}
	if _, ok, _ := s.SoftDeleteMovement(ctx, u.ID, m2.ID); ok {
		t.Fatalf("expected repeat delete to report ok=false")
	}
	all, err = s.MovementsByUserID(ctx, u.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 active rows, got %d (%v)", len(all), err)
	}

	// Snapshot rewrite.
	if err := s.UpdateSnapshots(ctx, u.ID, []movement.SnapshotUpdate{{MovementID: m3.ID, BalanceAfter: mkAmount(10000)}}); err != nil {
		t.Fatalf("update snapshots: %v", err)
	}
	snap, ok, err = s.LatestSnapshot(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("latest snapshot: %v ok=%v", err, ok)
	}
	if v, _ := snap.MinorUnits(); v != 10000 {
		t.Fatalf("expected repaired snapshot 10000, got %d", v)
	}
	if err := s.UpdateSnapshots(ctx, u.ID, []movement.SnapshotUpdate{{MovementID: uuid.New(), BalanceAfter: mkAmount(1)}}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown movement, got %v", err)
	}
}
