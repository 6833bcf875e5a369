package payout

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

func newTestService(db *repotest.DB, cfg Config) Service {
	repos := db.Repos()
	wallets := wallet.NewService(repos.Wallets, nil, nil)
	return NewService(repos.Payouts, db.TxManager(), wallets, notification.NopSink{}, cfg)
}

// seedPaidBooking returns a paid booking and one studied schedule for it.
func seedPaidBooking(t *testing.T, db *repotest.DB, unitPrice float64) (*models.Booking, *models.Schedule) {
	t.Helper()
	b := db.SeedBooking(1, 2, 5, unitPrice)
	repos := db.Repos()
	row, err := repos.Bookings.GetByID(b.ID)
	require.NoError(t, err)
	row.PaymentStatus = models.PaymentStatusPaid
	row.Status = models.BookingStatusConfirmed
	require.NoError(t, repos.Bookings.Update(row))
	sc := db.SeedSchedule(b, time.Now().Add(-2*time.Hour), models.ScheduleStatusStudied, nil)
	return row, sc
}

func TestCompleteSchedule(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db, Config{SystemFee: 5000, HoldPeriod: 72 * time.Hour})
	ctx := context.Background()

	_, sc := seedPaidBooking(t, db, 100000)

	before := time.Now()
	p, err := svc.CompleteSchedule(ctx, sc.ID, models.CompletionByLearner, 1)
	require.NoError(t, err)

	assert.Equal(t, models.PayoutStatusPending, p.Status)
	assert.Equal(t, float64(95000), p.Amount)
	assert.Equal(t, float64(5000), p.SystemFeeAmount)
	assert.WithinDuration(t, before.Add(72*time.Hour), p.ScheduledPayoutDate, 5*time.Second)

	updated, err := db.Repos().Schedules.GetByID(sc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusCompleted, updated.Status)
	assert.Equal(t, models.CompletionByLearner, updated.CompletedBy)

	// Completion only schedules the payout; nothing is credited yet.
	assert.Empty(t, db.Transactions())
}

func TestCompleteSchedule_Guards(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db, Config{HoldPeriod: 72 * time.Hour})
	ctx := context.Background()

	_, sc := seedPaidBooking(t, db, 100000)

	t.Run("unknown actor", func(t *testing.T) {
		_, err := svc.CompleteSchedule(ctx, sc.ID, "tutor", 1)
		assert.ErrorIs(t, err, ErrUnauthorizedActor)
	})

	t.Run("another learner", func(t *testing.T) {
		_, err := svc.CompleteSchedule(ctx, sc.ID, models.CompletionByLearner, 7)
		assert.ErrorIs(t, err, ErrUnauthorizedActor)
	})

	t.Run("unpaid booking", func(t *testing.T) {
		unpaid := db.SeedBooking(3, 2, 1, 100000)
		sc2 := db.SeedSchedule(unpaid, time.Now().Add(-time.Hour), models.ScheduleStatusStudied, nil)
		_, err := svc.CompleteSchedule(ctx, sc2.ID, models.CompletionByLearner, 3)
		assert.ErrorIs(t, err, ErrBookingUnpaid)
	})

	t.Run("scheduled lesson not confirmable", func(t *testing.T) {
		b := db.SeedBooking(1, 2, 1, 100000)
		sc3 := db.SeedSchedule(b, time.Now().Add(time.Hour), models.ScheduleStatusScheduled, nil)
		_, err := svc.CompleteSchedule(ctx, sc3.ID, models.CompletionByLearner, 1)
		assert.ErrorIs(t, err, ErrNotConfirmable)
	})

	t.Run("duplicate completion", func(t *testing.T) {
		_, err := svc.CompleteSchedule(ctx, sc.ID, models.CompletionByLearner, 1)
		require.NoError(t, err)
		_, err = svc.CompleteSchedule(ctx, sc.ID, models.CompletionByAdmin, 42)
		assert.ErrorIs(t, err, ErrNotConfirmable)
	})
}

func TestProcessDuePayouts(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db, Config{HoldPeriod: time.Hour})
	ctx := context.Background()

	_, sc := seedPaidBooking(t, db, 100000)
	p, err := svc.CompleteSchedule(ctx, sc.ID, models.CompletionByLearner, 1)
	require.NoError(t, err)

	t.Run("not yet due", func(t *testing.T) {
		count, err := svc.ProcessDuePayouts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Empty(t, db.Transactions())
	})

	t.Run("released once due", func(t *testing.T) {
		repos := db.Repos()
		row, err := repos.Payouts.GetByID(p.ID)
		require.NoError(t, err)
		row.ScheduledPayoutDate = time.Now().Add(-time.Minute)
		require.NoError(t, repos.Payouts.Update(row))

		count, err := svc.ProcessDuePayouts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		txns := db.Transactions()
		require.Len(t, txns, 1)
		assert.Equal(t, models.TransactionTypeCredit, txns[0].Type)
		assert.Equal(t, models.TransactionReasonPayout, txns[0].Reason)
		assert.Equal(t, float64(100000), txns[0].Amount)

		released, err := repos.Payouts.GetByID(p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PayoutStatusPaid, released.Status)
		require.NotNil(t, released.ReleasedAt)
		require.NotNil(t, released.WalletTransactionID)
		assert.Equal(t, txns[0].ID, *released.WalletTransactionID)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		count, err := svc.ProcessDuePayouts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Len(t, db.Transactions(), 1)
	})
}

func TestDispute(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db, Config{HoldPeriod: time.Hour})
	ctx := context.Background()

	b, sc := seedPaidBooking(t, db, 100000)
	p, err := svc.CompleteSchedule(ctx, sc.ID, models.CompletionByLearner, 1)
	require.NoError(t, err)

	t.Run("another learner cannot report", func(t *testing.T) {
		err := svc.MarkReported(ctx, sc.ID, 42, 7, "not my lesson")
		assert.ErrorIs(t, err, ErrUnauthorizedActor)
	})

	require.NoError(t, svc.MarkReported(ctx, sc.ID, 42, 1, "tutor never showed up"))

	held, err := db.Repos().Payouts.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusHeld, held.Status)
	require.NotNil(t, held.HoldReason)

	t.Run("held payout is not released", func(t *testing.T) {
		repos := db.Repos()
		row, err := repos.Payouts.GetByID(p.ID)
		require.NoError(t, err)
		row.ScheduledPayoutDate = time.Now().Add(-time.Minute)
		require.NoError(t, repos.Payouts.Update(row))

		count, err := svc.ProcessDuePayouts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Empty(t, db.Transactions())
	})

	t.Run("resolve against tutor redirects to learner", func(t *testing.T) {
		require.NoError(t, svc.ResolveReport(ctx, sc.ID, false))

		txns := db.Transactions()
		require.Len(t, txns, 1)
		assert.Equal(t, models.TransactionTypeCredit, txns[0].Type)
		assert.Equal(t, models.TransactionReasonRefund, txns[0].Reason)
		assert.Equal(t, float64(100000), txns[0].Amount)

		learnerWallet, err := db.Repos().Wallets.GetByUserID(b.LearnerID)
		require.NoError(t, err)
		assert.Equal(t, float64(100000), learnerWallet.Balance)

		cancelled, err := db.Repos().Payouts.GetByID(p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PayoutStatusCancelled, cancelled.Status)
	})

	t.Run("resolving twice fails", func(t *testing.T) {
		assert.ErrorIs(t, svc.ResolveReport(ctx, sc.ID, true), ErrNotHeld)
	})
}

func TestResolveReport_ReleaseToTutor(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db, Config{HoldPeriod: time.Hour})
	ctx := context.Background()

	_, sc := seedPaidBooking(t, db, 100000)
	p, err := svc.CompleteSchedule(ctx, sc.ID, models.CompletionByLearner, 1)
	require.NoError(t, err)
	require.NoError(t, svc.MarkReported(ctx, sc.ID, 7, 1, "audio issues"))

	require.NoError(t, svc.ResolveReport(ctx, sc.ID, true))

	restored, err := db.Repos().Payouts.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPending, restored.Status)
	assert.Nil(t, restored.HoldReason)
	assert.Nil(t, restored.ReportID)
	assert.Empty(t, db.Transactions())
}

func TestMarkReported_AfterRelease(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db, Config{HoldPeriod: 0})
	ctx := context.Background()

	_, sc := seedPaidBooking(t, db, 100000)
	_, err := svc.CompleteSchedule(ctx, sc.ID, models.CompletionByLearner, 1)
	require.NoError(t, err)

	count, err := svc.ProcessDuePayouts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	assert.ErrorIs(t, svc.MarkReported(ctx, sc.ID, 9, 1, "late report"), ErrAlreadyReleased)
}

func TestAutoCompletePastDue(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db, Config{HoldPeriod: 72 * time.Hour})
	ctx := context.Background()

	b, _ := seedPaidBooking(t, db, 100000)

	// The seeded schedule ended two hours ago, inside the grace window. Add
	// one that ended past the window.
	db.SeedSchedule(b, time.Now().Add(-AutoCompleteGrace-24*time.Hour), models.ScheduleStatusStudied, nil)

	count, err := svc.AutoCompletePastDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	payouts, err := svc.ListByTutor(ctx, b.TutorID, 10, 0)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, models.PayoutStatusPending, payouts[0].Status)

	confirmed, err := db.Repos().Schedules.GetByID(payouts[0].ScheduleID)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionByAuto, confirmed.CompletedBy)
}
