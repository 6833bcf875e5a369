package wallet

import (
	"context"
	"testing"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/repositories/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(db *repotest.DB) Service {
	return NewService(db.Repos().Wallets, nil, nil)
}

func TestApply_Credit(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	db.SeedWallet(1, 500)

	txn, err := svc.Apply(db.Repos(), EntryRequest{
		UserID: 1,
		Amount: 250,
		Type:   models.TransactionTypeCredit,
		Reason: models.TransactionReasonDeposit,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(500), txn.BalanceBefore)
	assert.Equal(t, float64(750), txn.BalanceAfter)
	assert.NotEmpty(t, txn.Reference)

	w, err := svc.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, float64(750), w.Balance)
}

func TestApply_DebitInsufficientFunds(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	db.SeedWallet(1, 100)

	_, err := svc.Apply(db.Repos(), EntryRequest{
		UserID: 1,
		Amount: 150,
		Type:   models.TransactionTypeDebit,
		Reason: models.TransactionReasonWithdrawal,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The failed debit must leave no ledger row and no balance change.
	assert.Empty(t, db.Transactions())
	w, err := svc.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, float64(100), w.Balance)
}

func TestApply_Validation(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	tests := []struct {
		name    string
		req     EntryRequest
		wantErr error
	}{
		{
			name:    "zero amount",
			req:     EntryRequest{UserID: 1, Amount: 0, Type: models.TransactionTypeCredit},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     EntryRequest{UserID: 1, Amount: -50, Type: models.TransactionTypeCredit},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unknown type",
			req:     EntryRequest{UserID: 1, Amount: 50, Type: "transfer"},
			wantErr: ErrInvalidEntryType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(db.Repos(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	first, err := svc.GetOrCreate(db.Repos(), 7)
	require.NoError(t, err)
	assert.Equal(t, float64(0), first.Balance)

	second, err := svc.GetOrCreate(db.Repos(), 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestLedger_SumsToBalance(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	entries := []EntryRequest{
		{UserID: 1, Amount: 1000, Type: models.TransactionTypeCredit, Reason: models.TransactionReasonDeposit},
		{UserID: 1, Amount: 300, Type: models.TransactionTypeDebit, Reason: models.TransactionReasonBookingPayment},
		{UserID: 1, Amount: 120, Type: models.TransactionTypeCredit, Reason: models.TransactionReasonRefund},
		{UserID: 1, Amount: 500, Type: models.TransactionTypeDebit, Reason: models.TransactionReasonWithdrawal},
	}
	_, err := svc.ApplyAll(db.Repos(), entries)
	require.NoError(t, err)

	var sum float64
	for _, txn := range db.Transactions() {
		sum += txn.Signed()
	}

	w, err := svc.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, w.Balance, sum)
	assert.Equal(t, float64(320), w.Balance)
}

func TestApplyAll_RollsBackOnFailure(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	db.SeedWallet(1, 100)

	err := db.TxManager().Execute(context.Background(), func(r *repositories.Repos) error {
		_, err := svc.ApplyAll(r, []EntryRequest{
			{UserID: 1, Amount: 50, Type: models.TransactionTypeCredit, Reason: models.TransactionReasonRefund},
			{UserID: 1, Amount: 9999, Type: models.TransactionTypeDebit, Reason: models.TransactionReasonWithdrawal},
		})
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The first credit must have been rolled back with the failed debit.
	assert.Empty(t, db.Transactions())
	w, err := svc.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, float64(100), w.Balance)
}
