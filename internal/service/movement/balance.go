package movement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
)

// applyMovement folds one movement into a running balance. Credit-method
// movements pass the prior balance through unchanged; everything else adds
// inflows and subtracts outflows.
func applyMovement(prior money.Amount, kind ledger.Kind, amount money.Amount, isCredit bool) (money.Amount, error) {
	if isCredit {
		return prior, nil
	}
	if kind == ledger.KindInflow {
		return prior.Add(amount)
	}
	return prior.Sub(amount)
}

// zero returns the zero balance in the service currency.
func (s *service) zero() money.Amount {
	amt, _ := money.NewAmountFromMinorUnits(s.currency, 0)
	return amt
}

// priorBalance returns the snapshot of the most recent active movement that
// carries one, ordered by (occurred_at desc, id desc), or zero when the user
// has no snapshotted movements yet.
func (s *service) priorBalance(ctx context.Context, userID uuid.UUID) (money.Amount, error) {
	snap, ok, err := s.repo.LatestSnapshot(ctx, userID)
	if err != nil {
		return s.zero(), fmt.Errorf("latest snapshot: %w", err)
	}
	if !ok {
		return s.zero(), nil
	}
	return snap, nil
}

// creditMethodIDs resolves which of the user's payment methods are
// balance-neutral. The credit rule lives here, not in the stores.
func (s *service) creditMethodIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	methods, err := s.repo.PaymentMethodsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	out := make(map[uuid.UUID]struct{})
	for _, pm := range methods {
		if pm.IsCredit() {
			out[pm.ID] = struct{}{}
		}
	}
	return out, nil
}

// aggregateBalance is the slow path: a full scan summing signed amounts of
// every active, non-credit movement. It backs CurrentBalance when no snapshot
// exists and the snapshot repair after soft deletes.
func (s *service) aggregateBalance(ctx context.Context, userID uuid.UUID) (money.Amount, error) {
	credit, err := s.creditMethodIDs(ctx, userID)
	if err != nil {
		return s.zero(), err
	}
	movements, err := s.repo.MovementsByUserID(ctx, userID)
	if err != nil {
		return s.zero(), fmt.Errorf("list movements: %w", err)
	}
	total := s.zero()
	for _, m := range movements {
		total, err = applyMovement(total, m.Kind, m.Amount, isCreditMovement(m, credit))
		if err != nil {
			return s.zero(), fmt.Errorf("sum movement %s: %w", m.ID, err)
		}
	}
	return total, nil
}

// CurrentBalance returns the user's balance: the newest active movement's
// snapshot when present, otherwise the full-scan aggregate. Zero for users
// with no movements.
func (s *service) CurrentBalance(ctx context.Context, userID uuid.UUID) (money.Amount, error) {
	if userID == uuid.Nil {
		return s.zero(), errs.ErrInvalid
	}
	latest, ok, err := s.repo.LatestMovement(ctx, userID)
	if err != nil {
		return s.zero(), fmt.Errorf("latest movement: %w", err)
	}
	if ok && latest.BalanceAfter != nil {
		return *latest.BalanceAfter, nil
	}
	return s.aggregateBalance(ctx, userID)
}

func isCreditMovement(m ledger.Movement, credit map[uuid.UUID]struct{}) bool {
	if m.PaymentMethodID == nil {
		return false
	}
	_, ok := credit[*m.PaymentMethodID]
	return ok
}
