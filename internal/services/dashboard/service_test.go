package dashboard

import (
	"context"
	"testing"
	"time"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories/repotest"
	"tutorpay/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const systemOwnerID = 99

func newTestService(db *repotest.DB) Service {
	repos := db.Repos()
	ledger := wallet.NewService(repos.Wallets, nil, nil)
	return NewService(repos.Wallets, repos.Payouts, db.TxManager(), ledger, systemOwnerID)
}

func TestGetSummary(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	db.SeedWallet(systemOwnerID, 5000000)
	db.SeedWallet(1, 300000)
	db.SeedWallet(2, 200000)

	b := db.SeedBooking(1, 2, 5, 100000)
	sc := db.SeedSchedule(b, time.Now().Add(-time.Hour), models.ScheduleStatusCompleted, nil)
	require.NoError(t, db.Repos().Payouts.Create(&models.TutorPayout{
		ScheduleID:          sc.ID,
		BookingID:           b.ID,
		TutorID:             b.TutorID,
		Amount:              95000,
		Status:              models.PayoutStatusPending,
		ScheduledPayoutDate: time.Now().Add(72 * time.Hour),
	}))

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(5000000), summary.SystemWalletBalance)
	assert.Equal(t, float64(95000), summary.PendingPayoutLiability)
	// The system wallet is excluded from the user total.
	assert.Equal(t, float64(500000), summary.TotalUserBalance)
	assert.Equal(t, int64(3), summary.WalletCount)
}

func TestGetSummary_CreatesSystemWallet(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(0), summary.SystemWalletBalance)
	assert.Equal(t, int64(1), summary.WalletCount)

	_, err = db.Repos().Wallets.GetByUserID(systemOwnerID)
	assert.NoError(t, err)
}
