package refdata_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/errs"
	"ledgerd/internal/ledger"
	"ledgerd/internal/service/refdata"
	"ledgerd/internal/storage/memory"
)

func newService(t *testing.T) refdata.Service {
	t.Helper()
	store := memory.New()
	return refdata.New(store, store)
}

func TestCreateAndList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	acc, err := svc.CreateAccount(ctx, userID, "  Wallet ", "cash on hand")
	require.NoError(t, err)
	assert.Equal(t, "Wallet", acc.Name)
	assert.Equal(t, userID, acc.UserID)

	cat, err := svc.CreateCategory(ctx, userID, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", cat.Name)

	pm, err := svc.CreatePaymentMethod(ctx, userID, "Debit Card", "")
	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentMethodStandard, pm.Kind, "empty kind defaults to standard")
	assert.False(t, pm.IsCredit())

	credit, err := svc.CreatePaymentMethod(ctx, userID, "Credit Card", ledger.PaymentMethodCredit)
	require.NoError(t, err)
	assert.True(t, credit.IsCredit())

	ref, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, ref.Accounts, 1)
	assert.Len(t, ref.Categories, 1)
	assert.Len(t, ref.PaymentMethods, 2)

	// Another user sees none of it.
	other, err := svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other.Accounts)
	assert.Empty(t, other.Categories)
	assert.Empty(t, other.PaymentMethods)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.CreateAccount(ctx, userID, "   ", "")
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = svc.CreateCategory(ctx, uuid.Nil, "Groceries")
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = svc.CreatePaymentMethod(ctx, userID, "Card", "installments")
	assert.ErrorIs(t, err, errs.ErrInvalid, "unknown payment method kind")
}
