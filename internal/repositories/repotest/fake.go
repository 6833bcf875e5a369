// Package repotest provides an in-memory implementation of the repository
// interfaces for service tests. The fake transaction manager snapshots state
// before each unit of work and restores it on error, so tests exercise the
// same all-or-nothing semantics the real database gives.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
)

// DB is an in-memory stand-in for the relational store.
type DB struct {
	mu sync.Mutex

	wallets       map[uint]models.Wallet
	transactions  []models.WalletTransaction
	deposits      map[uint]models.Deposit
	bankAccounts  map[uint]models.BankAccount
	withdrawals   map[uint]models.Withdrawal
	bookings      map[uint]models.Booking
	schedules     map[uint]models.Schedule
	slots         map[uint]models.AvailabilitySlot
	payouts       map[uint]models.TutorPayout
	policies      map[uint]models.RefundPolicy
	requests      map[uint]models.BookingRefundRequest
	notifications []models.Notification

	nextID uint
}

func NewDB() *DB {
	return &DB{
		wallets:      map[uint]models.Wallet{},
		deposits:     map[uint]models.Deposit{},
		bankAccounts: map[uint]models.BankAccount{},
		withdrawals:  map[uint]models.Withdrawal{},
		bookings:     map[uint]models.Booking{},
		schedules:    map[uint]models.Schedule{},
		slots:        map[uint]models.AvailabilitySlot{},
		payouts:      map[uint]models.TutorPayout{},
		policies:     map[uint]models.RefundPolicy{},
		requests:     map[uint]models.BookingRefundRequest{},
	}
}

// Repos returns a repository bundle backed by this DB.
func (d *DB) Repos() *repositories.Repos {
	return &repositories.Repos{
		Wallets:       &walletRepo{d},
		Deposits:      &depositRepo{d},
		BankAccounts:  &bankAccountRepo{d},
		Withdrawals:   &withdrawalRepo{d},
		Bookings:      &bookingRepo{d},
		Schedules:     &scheduleRepo{d},
		Payouts:       &payoutRepo{d},
		Refunds:       &refundRepo{d},
		Notifications: &notificationRepo{d},
	}
}

// TxManager returns a transaction manager that restores the pre-transaction
// state when the unit of work returns an error.
func (d *DB) TxManager() repositories.TxManager {
	return &fakeTxManager{db: d}
}

type fakeTxManager struct {
	db *DB
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(r *repositories.Repos) error) error {
	snap := m.db.snapshot()
	if err := fn(m.db.Repos()); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	wallets       map[uint]models.Wallet
	transactions  []models.WalletTransaction
	deposits      map[uint]models.Deposit
	bankAccounts  map[uint]models.BankAccount
	withdrawals   map[uint]models.Withdrawal
	bookings      map[uint]models.Booking
	schedules     map[uint]models.Schedule
	slots         map[uint]models.AvailabilitySlot
	payouts       map[uint]models.TutorPayout
	policies      map[uint]models.RefundPolicy
	requests      map[uint]models.BookingRefundRequest
	notifications []models.Notification
	nextID        uint
}

func (d *DB) snapshot() snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return snapshot{
		wallets:       copyMap(d.wallets),
		transactions:  append([]models.WalletTransaction(nil), d.transactions...),
		deposits:      copyMap(d.deposits),
		bankAccounts:  copyMap(d.bankAccounts),
		withdrawals:   copyMap(d.withdrawals),
		bookings:      copyMap(d.bookings),
		schedules:     copyMap(d.schedules),
		slots:         copyMap(d.slots),
		payouts:       copyMap(d.payouts),
		policies:      copyMap(d.policies),
		requests:      copyMap(d.requests),
		notifications: append([]models.Notification(nil), d.notifications...),
		nextID:        d.nextID,
	}
}

func (d *DB) restore(s snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wallets = s.wallets
	d.transactions = s.transactions
	d.deposits = s.deposits
	d.bankAccounts = s.bankAccounts
	d.withdrawals = s.withdrawals
	d.bookings = s.bookings
	d.schedules = s.schedules
	d.slots = s.slots
	d.payouts = s.payouts
	d.policies = s.policies
	d.requests = s.requests
	d.notifications = s.notifications
	d.nextID = s.nextID
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *DB) id() uint {
	d.nextID++
	return d.nextID
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// Seed helpers

// SeedWallet inserts a wallet with the given balance.
func (d *DB) SeedWallet(userID uint, balance float64) *models.Wallet {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := models.Wallet{ID: d.id(), UserID: userID, Balance: balance}
	d.wallets[w.ID] = w
	return &w
}

// SeedBankAccount inserts an active bank account for the user.
func (d *DB) SeedBankAccount(userID uint) *models.BankAccount {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := models.BankAccount{
		ID:            d.id(),
		UserID:        userID,
		BankName:      "Test Bank",
		AccountNumber: "0123456789",
		AccountHolder: "Test Holder",
		Status:        models.BankAccountStatusActive,
	}
	d.bankAccounts[a.ID] = a
	return &a
}

// SeedBooking inserts a booking for the given block of sessions.
func (d *DB) SeedBooking(learnerID, tutorID uint, sessions int, unitPrice float64) *models.Booking {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := models.Booking{
		ID:            d.id(),
		LearnerID:     learnerID,
		TutorID:       tutorID,
		SubjectName:   "Mathematics",
		UnitPrice:     unitPrice,
		TotalSessions: sessions,
		TotalAmount:   unitPrice * float64(sessions),
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     time.Now(),
	}
	d.bookings[b.ID] = b
	return &b
}

// SeedSlot inserts a booked availability slot for the tutor.
func (d *DB) SeedSlot(tutorID uint, start time.Time) *models.AvailabilitySlot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := models.AvailabilitySlot{
		ID:        d.id(),
		TutorID:   tutorID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    models.SlotStatusBooked,
		CreatedAt: time.Now(),
	}
	d.slots[s.ID] = s
	return &s
}

// SeedSchedule inserts a schedule for the booking, optionally tied to a slot.
func (d *DB) SeedSchedule(b *models.Booking, start time.Time, status string, slotID *uint) *models.Schedule {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := models.Schedule{
		ID:        d.id(),
		BookingID: b.ID,
		TutorID:   b.TutorID,
		LearnerID: b.LearnerID,
		SlotID:    slotID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
		CreatedAt: time.Now(),
	}
	d.schedules[s.ID] = s
	return &s
}

// Transactions returns a copy of all ledger rows, oldest first.
func (d *DB) Transactions() []models.WalletTransaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]models.WalletTransaction(nil), d.transactions...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Notifications returns a copy of all notification rows.
func (d *DB) Notifications() []models.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Notification(nil), d.notifications...)
}
