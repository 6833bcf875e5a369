package refund

import (
	"context"
	"testing"
	"time"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories/repotest"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const systemOwnerID = 99

func newTestService(db *repotest.DB) Service {
	repos := db.Repos()
	wallets := wallet.NewService(repos.Wallets, nil, nil)
	return NewService(repos.Refunds, db.TxManager(), wallets, notification.NopSink{}, systemOwnerID)
}

func seedPolicy(t *testing.T, db *repotest.DB, name string, pct float64, active bool) *models.RefundPolicy {
	t.Helper()
	p := &models.RefundPolicy{Name: name, RefundPercentage: pct, Active: active}
	require.NoError(t, db.Repos().Refunds.CreatePolicy(p))
	return p
}

func seedPaidBooking(t *testing.T, db *repotest.DB, learnerID uint, total float64) *models.Booking {
	t.Helper()
	b := db.SeedBooking(learnerID, 2, 5, total/5)
	repos := db.Repos()
	row, err := repos.Bookings.GetByID(b.ID)
	require.NoError(t, err)
	row.PaymentStatus = models.PaymentStatusPaid
	row.Status = models.BookingStatusConfirmed
	require.NoError(t, repos.Bookings.Update(row))
	return row
}

func seedPendingPayout(t *testing.T, db *repotest.DB, b *models.Booking, amount float64) *models.TutorPayout {
	t.Helper()
	sc := db.SeedSchedule(b, time.Now().Add(-time.Hour), models.ScheduleStatusCompleted, nil)
	p := &models.TutorPayout{
		ScheduleID:          sc.ID,
		BookingID:           b.ID,
		TutorID:             b.TutorID,
		Amount:              amount,
		Status:              models.PayoutStatusPending,
		ScheduledPayoutDate: time.Now().Add(72 * time.Hour),
	}
	require.NoError(t, db.Repos().Payouts.Create(p))
	return p
}

func TestRequestRefund(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	policy := seedPolicy(t, db, "Full refund", 100, true)
	b := seedPaidBooking(t, db, 1, 500000)

	req, err := svc.RequestRefund(ctx, b.ID, 1, policy.ID, "tutor quality")
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequestStatusPending, req.Status)
	assert.Nil(t, req.ApprovedAmount)

	t.Run("second pending request rejected", func(t *testing.T) {
		_, err := svc.RequestRefund(ctx, b.ID, 1, policy.ID, "again")
		assert.ErrorIs(t, err, ErrRequestOpen)
	})
}

func TestRequestRefund_Guards(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	active := seedPolicy(t, db, "Half refund", 50, true)
	retired := seedPolicy(t, db, "Legacy", 75, false)
	paid := seedPaidBooking(t, db, 1, 500000)
	unpaid := db.SeedBooking(1, 2, 5, 100000)

	t.Run("unknown booking", func(t *testing.T) {
		_, err := svc.RequestRefund(ctx, 9999, 1, active.ID, "x")
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("wrong learner", func(t *testing.T) {
		_, err := svc.RequestRefund(ctx, paid.ID, 7, active.ID, "x")
		assert.ErrorIs(t, err, ErrNotLearner)
	})

	t.Run("unpaid booking", func(t *testing.T) {
		_, err := svc.RequestRefund(ctx, unpaid.ID, 1, active.ID, "x")
		assert.ErrorIs(t, err, ErrBookingUnpaid)
	})

	t.Run("inactive policy", func(t *testing.T) {
		_, err := svc.RequestRefund(ctx, paid.ID, 1, retired.ID, "x")
		assert.ErrorIs(t, err, ErrPolicyInactive)
	})
}

func TestApprove(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	// 50% of 500000 is approved. The tutor's one pending payout absorbs
	// 95000 and the system wallet covers the remaining 155000.
	policy := seedPolicy(t, db, "Half refund", 50, true)
	b := seedPaidBooking(t, db, 1, 500000)
	payout := seedPendingPayout(t, db, b, 95000)
	db.SeedWallet(systemOwnerID, 1000000)

	req, err := svc.RequestRefund(ctx, b.ID, 1, policy.ID, "tutor quality")
	require.NoError(t, err)

	resolved, err := svc.Approve(ctx, req.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequestStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ApprovedAmount)
	assert.Equal(t, float64(250000), *resolved.ApprovedAmount)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, uint(42), *resolved.ResolvedBy)

	repos := db.Repos()

	learnerWallet, err := repos.Wallets.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, float64(250000), learnerWallet.Balance)

	systemWallet, err := repos.Wallets.GetByUserID(systemOwnerID)
	require.NoError(t, err)
	assert.Equal(t, float64(845000), systemWallet.Balance)

	consumed, err := repos.Payouts.GetByID(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), consumed.Amount)
	assert.Equal(t, models.PayoutStatusCancelled, consumed.Status)

	booking, err := repos.Bookings.GetByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(250000), booking.RefundedAmount)
	assert.Equal(t, models.PaymentStatusPartiallyRefunded, booking.PaymentStatus)

	t.Run("approving twice fails", func(t *testing.T) {
		_, err := svc.Approve(ctx, req.ID, 42)
		assert.ErrorIs(t, err, ErrAlreadyResolved)
	})
}

func TestApprove_PayoutCoversWholeRefund(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	policy := seedPolicy(t, db, "Token refund", 10, true)
	b := seedPaidBooking(t, db, 1, 500000)
	payout := seedPendingPayout(t, db, b, 95000)
	db.SeedWallet(systemOwnerID, 1000000)

	req, err := svc.RequestRefund(ctx, b.ID, 1, policy.ID, "one bad session")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, 42)
	require.NoError(t, err)

	repos := db.Repos()

	// 50000 comes entirely out of the payout; the system wallet is untouched.
	reduced, err := repos.Payouts.GetByID(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(45000), reduced.Amount)
	assert.Equal(t, models.PayoutStatusPending, reduced.Status)

	systemWallet, err := repos.Wallets.GetByUserID(systemOwnerID)
	require.NoError(t, err)
	assert.Equal(t, float64(1000000), systemWallet.Balance)
}

func TestApprove_RollsBackOnShortfall(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	policy := seedPolicy(t, db, "Full refund", 100, true)
	b := seedPaidBooking(t, db, 1, 500000)
	payout := seedPendingPayout(t, db, b, 95000)
	db.SeedWallet(1, 0)
	db.SeedWallet(systemOwnerID, 1000)

	req, err := svc.RequestRefund(ctx, b.ID, 1, policy.ID, "tutor quality")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, 42)
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	repos := db.Repos()

	// Every leg of the resolution is rolled back.
	learnerWallet, err := repos.Wallets.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, float64(0), learnerWallet.Balance)

	intact, err := repos.Payouts.GetByID(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(95000), intact.Amount)
	assert.Equal(t, models.PayoutStatusPending, intact.Status)

	current, err := repos.Refunds.GetRequestByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequestStatusPending, current.Status)
}

func TestReject(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	policy := seedPolicy(t, db, "Full refund", 100, true)
	b := seedPaidBooking(t, db, 1, 500000)
	db.SeedWallet(systemOwnerID, 1000000)

	req, err := svc.RequestRefund(ctx, b.ID, 1, policy.ID, "changed my mind")
	require.NoError(t, err)

	resolved, err := svc.Reject(ctx, req.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequestStatusRejected, resolved.Status)
	assert.Nil(t, resolved.ApprovedAmount)
	assert.Empty(t, db.Transactions())

	t.Run("approving a rejected request fails", func(t *testing.T) {
		_, err := svc.Approve(ctx, req.ID, 42)
		assert.ErrorIs(t, err, ErrAlreadyResolved)
	})
}

func TestListPolicies(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	seedPolicy(t, db, "Full refund", 100, true)
	seedPolicy(t, db, "Legacy", 75, false)

	policies, err := svc.ListPolicies(context.Background())
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "Full refund", policies[0].Name)
}
