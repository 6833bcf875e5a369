package booking

import (
	"context"
	"testing"
	"time"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/repositories/repotest"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(db *repotest.DB) Service {
	repos := db.Repos()
	wallets := wallet.NewService(repos.Wallets, nil, nil)
	return NewService(repos.Bookings, repos.Schedules, db.TxManager(), wallets, notification.NopSink{})
}

func TestPay(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	db.SeedWallet(1, 600000)
	b := db.SeedBooking(1, 2, 5, 100000)

	paid, err := svc.Pay(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, models.BookingStatusConfirmed, paid.Status)
	require.NotNil(t, paid.PaidAt)

	txns := db.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionTypeDebit, txns[0].Type)
	assert.Equal(t, models.TransactionReasonBookingPayment, txns[0].Reason)
	assert.Equal(t, float64(500000), txns[0].Amount)
	assert.Equal(t, float64(100000), txns[0].BalanceAfter)
}

func TestPay_AlreadyPaid(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	db.SeedWallet(1, 1000000)
	b := db.SeedBooking(1, 2, 5, 100000)

	_, err := svc.Pay(ctx, b.ID, 1)
	require.NoError(t, err)

	_, err = svc.Pay(ctx, b.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Len(t, db.Transactions(), 1)
}

func TestPay_InsufficientFunds(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	db.SeedWallet(1, 100)
	b := db.SeedBooking(1, 2, 5, 100000)

	_, err := svc.Pay(ctx, b.ID, 1)
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	// The booking stays payable after the rollback.
	current, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, current.PaymentStatus)
	assert.Empty(t, db.Transactions())
}

func TestPay_TrialSkipsDebit(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	b := db.SeedBooking(1, 2, 1, 0)

	paid, err := svc.Pay(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Empty(t, db.Transactions())
}

func TestPay_WrongLearner(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	b := db.SeedBooking(1, 2, 5, 100000)
	_, err := svc.Pay(context.Background(), b.ID, 7)
	assert.ErrorIs(t, err, ErrNotLearner)
}

func TestCancelByLearner_PartialRefund(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	db.SeedWallet(1, 500000)
	b := db.SeedBooking(1, 2, 5, 100000)

	_, err := svc.Pay(ctx, b.ID, 1)
	require.NoError(t, err)

	// Two sessions already took place, three remain scheduled. One of the
	// remaining sessions holds a slot that must be released.
	now := time.Now()
	db.SeedSchedule(b, now.Add(-48*time.Hour), models.ScheduleStatusStudied, nil)
	db.SeedSchedule(b, now.Add(-24*time.Hour), models.ScheduleStatusCompleted, nil)
	slot := db.SeedSlot(2, now.Add(24*time.Hour))
	db.SeedSchedule(b, now.Add(24*time.Hour), models.ScheduleStatusScheduled, &slot.ID)
	db.SeedSchedule(b, now.Add(48*time.Hour), models.ScheduleStatusScheduled, nil)
	db.SeedSchedule(b, now.Add(72*time.Hour), models.ScheduleStatusScheduled, nil)

	preview, err := svc.CancelByLearner(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, preview.ConsumedSessions)
	assert.Equal(t, float64(300000), preview.RefundableAmount)

	current, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, current.Status)
	assert.Equal(t, models.PaymentStatusPartiallyRefunded, current.PaymentStatus)
	assert.Equal(t, float64(300000), current.RefundedAmount)

	// Debit for the payment, credit for the refund.
	txns := db.Transactions()
	require.Len(t, txns, 2)
	assert.Equal(t, models.TransactionTypeCredit, txns[1].Type)
	assert.Equal(t, models.TransactionReasonRefund, txns[1].Reason)
	assert.Equal(t, float64(300000), txns[1].Amount)

	repos := db.Repos()
	schedules, err := repos.Schedules.ListByBooking(b.ID)
	require.NoError(t, err)
	cancelled := 0
	for _, sc := range schedules {
		if sc.Status == models.ScheduleStatusCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 3, cancelled)

	released, err := repos.Schedules.GetSlot(slot.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusOpen, released.Status)
}

func TestCancelByLearner_FullRefund(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	db.SeedWallet(1, 200000)
	b := db.SeedBooking(1, 2, 2, 100000)

	_, err := svc.Pay(ctx, b.ID, 1)
	require.NoError(t, err)
	db.SeedSchedule(b, time.Now().Add(24*time.Hour), models.ScheduleStatusScheduled, nil)
	db.SeedSchedule(b, time.Now().Add(48*time.Hour), models.ScheduleStatusScheduled, nil)

	preview, err := svc.CancelByLearner(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(200000), preview.RefundableAmount)

	current, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, current.PaymentStatus)
}

func TestCancelByLearner_UnpaidRejected(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)

	b := db.SeedBooking(1, 2, 5, 100000)
	_, err := svc.CancelByLearner(context.Background(), b.ID, 1)
	assert.ErrorIs(t, err, ErrNotPaid)
}

func TestGetCancelPreview_DoesNotMutate(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	db.SeedWallet(1, 500000)
	b := db.SeedBooking(1, 2, 5, 100000)
	_, err := svc.Pay(ctx, b.ID, 1)
	require.NoError(t, err)
	db.SeedSchedule(b, time.Now().Add(-24*time.Hour), models.ScheduleStatusStudied, nil)

	preview, err := svc.GetCancelPreview(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.ConsumedSessions)
	assert.Equal(t, float64(400000), preview.RefundableAmount)

	// A preview never credits or cancels anything.
	current, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, current.PaymentStatus)
	assert.Len(t, db.Transactions(), 1)
}

func TestAutoCancelExpiredPendingRequests(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	stale := db.SeedBooking(1, 2, 1, 50000)
	fresh := db.SeedBooking(1, 2, 1, 50000)

	repos := db.Repos()
	row, err := repos.Bookings.GetByID(stale.ID)
	require.NoError(t, err)
	row.CreatedAt = time.Now().Add(-PaymentExpiry - time.Hour)
	require.NoError(t, repos.Bookings.Update(row))

	count, err := svc.AutoCancelExpiredPendingRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cancelled, err := svc.GetBooking(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	kept, err := svc.GetBooking(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, kept.Status)
}

// staleUnpaidListRepo serves a fixed expired listing regardless of current
// state, standing in for a booking that gets paid between the listing query
// and the per-row transaction.
type staleUnpaidListRepo struct {
	repositories.BookingRepository
	stale []models.Booking
}

func (r *staleUnpaidListRepo) ListExpiredUnpaid(time.Time) ([]models.Booking, error) {
	return r.stale, nil
}

func TestAutoCancel_SkipsRowsPaidMeanwhile(t *testing.T) {
	db := repotest.NewDB()
	ctx := context.Background()

	real := newTestService(db)
	db.SeedWallet(1, 500000)
	b := db.SeedBooking(1, 2, 5, 100000)

	stale := *b // snapshot while still unpaid

	_, err := real.Pay(ctx, b.ID, 1)
	require.NoError(t, err)

	repos := db.Repos()
	wallets := wallet.NewService(repos.Wallets, nil, nil)
	listRepo := &staleUnpaidListRepo{BookingRepository: repos.Bookings, stale: []models.Booking{stale}}
	svc := NewService(listRepo, repos.Schedules, db.TxManager(), wallets, notification.NopSink{})

	// The booking was paid after it was listed; nothing is mutated and
	// nothing is counted.
	count, err := svc.AutoCancelExpiredPendingRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	current, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, current.Status)
	assert.Equal(t, models.PaymentStatusPaid, current.PaymentStatus)
}

func TestMarkScheduleStudied(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	b := db.SeedBooking(1, 2, 1, 50000)
	sc := db.SeedSchedule(b, time.Now().Add(-time.Hour), models.ScheduleStatusScheduled, nil)

	// Only the schedule's learner may mark it.
	assert.ErrorIs(t, svc.MarkScheduleStudied(ctx, sc.ID, 7), ErrNotLearner)

	require.NoError(t, svc.MarkScheduleStudied(ctx, sc.ID, 1))

	updated, err := db.Repos().Schedules.GetByID(sc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusStudied, updated.Status)

	// Studied is terminal for this operation.
	assert.ErrorIs(t, svc.MarkScheduleStudied(ctx, sc.ID, 1), ErrScheduleState)
}

func TestPay_CancelledBookingRejected(t *testing.T) {
	db := repotest.NewDB()
	svc := newTestService(db)
	ctx := context.Background()

	db.SeedWallet(1, 600000)
	b := db.SeedBooking(1, 2, 5, 100000)

	repos := db.Repos()
	row, err := repos.Bookings.GetByID(b.ID)
	require.NoError(t, err)
	row.CreatedAt = time.Now().Add(-PaymentExpiry - time.Hour)
	require.NoError(t, repos.Bookings.Update(row))

	count, err := svc.AutoCancelExpiredPendingRequests(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// A stale client retry of the payment must not debit the learner or
	// resurrect the cancelled booking.
	_, err = svc.Pay(ctx, b.ID, 1)
	assert.ErrorIs(t, err, ErrNotPayable)

	current, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, current.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, current.PaymentStatus)
	assert.Empty(t, db.Transactions())
}
