package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"ledgerd/internal/ledger"
)

func mkAmount(t *testing.T, minor int64) money.Amount {
	t.Helper()
	amt, err := money.NewAmountFromMinorUnits("BRL", minor)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return amt
}

func mkMovement(t *testing.T, userID, accountID uuid.UUID, at time.Time, minor, snapMinor int64) ledger.Movement {
	t.Helper()
	snap := mkAmount(t, snapMinor)
	return ledger.Movement{
		ID: uuid.New(), UserID: userID, AccountID: accountID,
		Kind: ledger.KindInflow, Amount: mkAmount(t, minor), Description: "row",
		OccurredAt: at, BalanceAfter: &snap,
	}
}

func TestMovementIndex_OrderedByOccurredAt(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of chronological order; scans must still come back sorted.
	later := mkMovement(t, userID, accountID, base.Add(2*time.Hour), 300, 300)
	earlier := mkMovement(t, userID, accountID, base, 100, 100)
	middle := mkMovement(t, userID, accountID, base.Add(time.Hour), 200, 200)
	for _, m := range []ledger.Movement{later, earlier, middle} {
		if _, err := s.CreateMovement(ctx, m); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := s.MovementsByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != earlier.ID || all[1].ID != middle.ID || all[2].ID != later.ID {
		t.Fatalf("expected chronological order, got %+v", all)
	}

	latest, ok, err := s.LatestMovement(ctx, userID)
	if err != nil || !ok || latest.ID != later.ID {
		t.Fatalf("latest: %v ok=%v %+v", err, ok, latest)
	}

	// Another user's scans are empty.
	other, err := s.MovementsByUserID(ctx, uuid.New())
	if err != nil || len(other) != 0 {
		t.Fatalf("expected empty list for other user, got %d (%v)", len(other), err)
	}
}

func TestSoftDelete_HidesFromActiveScans(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	m1 := mkMovement(t, userID, accountID, base, 100, 100)
	m2 := mkMovement(t, userID, accountID, base.Add(time.Minute), 200, 300)
	for _, m := range []ledger.Movement{m1, m2} {
		if _, err := s.CreateMovement(ctx, m); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	deleted, ok, err := s.SoftDeleteMovement(ctx, userID, m2.ID)
	if err != nil || !ok || deleted.DeletedAt == nil {
		t.Fatalf("soft delete: %v ok=%v %+v", err, ok, deleted)
	}

	// The newest active snapshot is m1's again.
	snap, ok, err := s.LatestSnapshot(ctx, userID)
	if err != nil || !ok {
		t.Fatalf("latest snapshot: %v ok=%v", err, ok)
	}
	if v, _ := snap.MinorUnits(); v != 100 {
		t.Fatalf("expected 100, got %d", v)
	}

	all, err := s.MovementsByUserID(ctx, userID)
	if err != nil || len(all) != 1 || all[0].ID != m1.ID {
		t.Fatalf("expected only m1 active, got %+v (%v)", all, err)
	}

	// Repeat, unknown and unowned deletes report ok=false without error.
	if _, ok, err := s.SoftDeleteMovement(ctx, userID, m2.ID); err != nil || ok {
		t.Fatalf("repeat delete: err=%v ok=%v", err, ok)
	}
	if _, ok, err := s.SoftDeleteMovement(ctx, userID, uuid.New()); err != nil || ok {
		t.Fatalf("unknown delete: err=%v ok=%v", err, ok)
	}
	if _, ok, err := s.SoftDeleteMovement(ctx, uuid.New(), m1.ID); err != nil || ok {
		t.Fatalf("unowned delete: err=%v ok=%v", err, ok)
	}
}
