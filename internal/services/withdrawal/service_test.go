package withdrawal

import (
	"context"
	"errors"
	"testing"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/repositories/repotest"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(db *repotest.DB) Service {
	wallets := wallet.NewService(db.Repos().Wallets, nil, nil)
	repos := db.Repos()
	sink := notification.NewOutboxSink(repos.Notifications)
	return NewService(repos.Withdrawals, repos.BankAccounts, db.TxManager(), wallets, sink)
}

func TestCreateWithdrawal(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	db.SeedWallet(1, 2000)
	account := db.SeedBankAccount(1)

	wd, err := svc.CreateWithdrawalRequest(context.Background(), 1, 1500, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusCompleted, wd.Status)
	require.NotNil(t, wd.CompletedAt)

	txns := db.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionTypeDebit, txns[0].Type)
	assert.Equal(t, models.TransactionReasonWithdrawal, txns[0].Reason)
	assert.Equal(t, float64(500), txns[0].BalanceAfter)

	// Exactly one notification for the processed withdrawal.
	notes := db.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, uint(1), notes[0].UserID)
}

func TestCreateWithdrawal_InsufficientFunds(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	db.SeedWallet(1, 100)
	account := db.SeedBankAccount(1)

	_, err := svc.CreateWithdrawalRequest(context.Background(), 1, 500, account.ID)
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	// The failed transaction leaves no withdrawal row and no ledger entry.
	history, err := svc.GetWithdrawalHistory(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, db.Transactions())
	assert.Empty(t, db.Notifications())
}

// failingOutboxRepo refuses every notification write.
type failingOutboxRepo struct {
	repositories.NotificationRepository
}

func (failingOutboxRepo) Create(*models.Notification) error {
	return errors.New("outbox unavailable")
}

func TestCreateWithdrawal_SinkFailureDoesNotUnwind(t *testing.T) {
	db := repotest.NewDB()
	repos := db.Repos()
	wallets := wallet.NewService(repos.Wallets, nil, nil)
	sink := notification.NewOutboxSink(failingOutboxRepo{})
	svc := NewService(repos.Withdrawals, repos.BankAccounts, db.TxManager(), wallets, sink)

	db.SeedWallet(1, 2000)
	account := db.SeedBankAccount(1)

	// The notification write fails after commit; the debit stands and the
	// caller sees no error.
	wd, err := svc.CreateWithdrawalRequest(context.Background(), 1, 1500, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusCompleted, wd.Status)

	w, err := repos.Wallets.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, float64(500), w.Balance)
	assert.Len(t, db.Transactions(), 1)
	assert.Empty(t, db.Notifications())
}

func TestCreateWithdrawal_Validation(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	db.SeedWallet(1, 1000)
	account := db.SeedBankAccount(1)

	inactive := &models.BankAccount{
		UserID:        1,
		BankName:      "Closed Bank",
		AccountNumber: "9876543210",
		AccountHolder: "Test Holder",
		Status:        models.BankAccountStatusInactive,
	}
	require.NoError(t, db.Repos().BankAccounts.Create(inactive))

	ctx := context.Background()

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.CreateWithdrawalRequest(ctx, 1, 0, account.ID)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown bank account", func(t *testing.T) {
		_, err := svc.CreateWithdrawalRequest(ctx, 1, 100, 9999)
		assert.ErrorIs(t, err, ErrBankAccountNotFound)
	})

	t.Run("someone else's account", func(t *testing.T) {
		_, err := svc.CreateWithdrawalRequest(ctx, 2, 100, account.ID)
		assert.ErrorIs(t, err, ErrNotAccountOwner)
	})

	t.Run("inactive account", func(t *testing.T) {
		_, err := svc.CreateWithdrawalRequest(ctx, 1, 100, inactive.ID)
		assert.ErrorIs(t, err, ErrAccountInactive)
	})

	assert.Empty(t, db.Transactions())
}

func TestManualApprovalReserved(t *testing.T) {
	svc := newTestService(repotest.NewDB())
	assert.ErrorIs(t, svc.ApproveWithdrawal(context.Background(), 1), ErrUnsupported)
	assert.ErrorIs(t, svc.RejectWithdrawal(context.Background(), 1, "fraud"), ErrUnsupported)
}
