package repotest

import (
	"time"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
)

type walletRepo struct{ db *DB }

func (r *walletRepo) Create(w *models.Wallet) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w.ID = r.db.id()
	stamp(&w.CreatedAt)
	r.db.wallets[w.ID] = *w
	return nil
}

func (r *walletRepo) GetByID(id uint) (*models.Wallet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return &w, nil
}

func (r *walletRepo) GetByUserID(userID uint) (*models.Wallet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, w := range r.db.wallets {
		if w.UserID == userID {
			w := w
			return &w, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r *walletRepo) GetByUserIDForUpdate(userID uint) (*models.Wallet, error) {
	return r.GetByUserID(userID)
}

func (r *walletRepo) Update(w *models.Wallet) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w.UpdatedAt = time.Now()
	r.db.wallets[w.ID] = *w
	return nil
}

func (r *walletRepo) CreateTransaction(txn *models.WalletTransaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	txn.ID = r.db.id()
	stamp(&txn.CreatedAt)
	r.db.transactions = append(r.db.transactions, *txn)
	return nil
}

func (r *walletRepo) GetTransactionByID(id uint) (*models.WalletTransaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.transactions {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r *walletRepo) ListTransactions(walletID uint, limit, offset int) ([]models.WalletTransaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.WalletTransaction
	for i := len(r.db.transactions) - 1; i >= 0; i-- {
		if r.db.transactions[i].WalletID == walletID {
			out = append(out, r.db.transactions[i])
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *walletRepo) TotalBalanceExcluding(userID uint) (float64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var total float64
	for _, w := range r.db.wallets {
		if w.UserID != userID {
			total += w.Balance
		}
	}
	return total, nil
}

func (r *walletRepo) CountWallets() (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.wallets)), nil
}

type depositRepo struct{ db *DB }

func (r *depositRepo) Create(d *models.Deposit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d.ID = r.db.id()
	stamp(&d.CreatedAt)
	r.db.deposits[d.ID] = *d
	return nil
}

func (r *depositRepo) GetByID(id uint) (*models.Deposit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.deposits[id]
	if !ok {
		return nil, repositories.ErrDepositNotFound
	}
	return &d, nil
}

func (r *depositRepo) GetByOrderRef(orderRef string) (*models.Deposit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, d := range r.db.deposits {
		if d.OrderRef == orderRef {
			d := d
			return &d, nil
		}
	}
	return nil, repositories.ErrDepositNotFound
}

func (r *depositRepo) Update(d *models.Deposit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d.UpdatedAt = time.Now()
	r.db.deposits[d.ID] = *d
	return nil
}

func (r *depositRepo) ListByUser(userID uint, limit, offset int) ([]models.Deposit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Deposit
	for _, d := range r.db.deposits {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *depositRepo) ListExpiredPending(before time.Time) ([]models.Deposit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Deposit
	for _, d := range r.db.deposits {
		if d.Status == models.DepositStatusPending && d.CreatedAt.Before(before) {
			out = append(out, d)
		}
	}
	return out, nil
}

type bankAccountRepo struct{ db *DB }

func (r *bankAccountRepo) Create(a *models.BankAccount) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = r.db.id()
	stamp(&a.CreatedAt)
	r.db.bankAccounts[a.ID] = *a
	return nil
}

func (r *bankAccountRepo) GetByID(id uint) (*models.BankAccount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.bankAccounts[id]
	if !ok {
		return nil, repositories.ErrBankAccountNotFound
	}
	return &a, nil
}

func (r *bankAccountRepo) ListByUser(userID uint) ([]models.BankAccount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.BankAccount
	for _, a := range r.db.bankAccounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type withdrawalRepo struct{ db *DB }

func (r *withdrawalRepo) Create(w *models.Withdrawal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w.ID = r.db.id()
	stamp(&w.CreatedAt)
	r.db.withdrawals[w.ID] = *w
	return nil
}

func (r *withdrawalRepo) GetByID(id uint) (*models.Withdrawal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.withdrawals[id]
	if !ok {
		return nil, repositories.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (r *withdrawalRepo) Update(w *models.Withdrawal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w.UpdatedAt = time.Now()
	r.db.withdrawals[w.ID] = *w
	return nil
}

func (r *withdrawalRepo) ListByUser(userID uint, limit, offset int) ([]models.Withdrawal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Withdrawal
	for _, w := range r.db.withdrawals {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *withdrawalRepo) ListByStatus(status string) ([]models.Withdrawal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Withdrawal
	for _, w := range r.db.withdrawals {
		if w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

type bookingRepo struct{ db *DB }

func (r *bookingRepo) Create(b *models.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b.ID = r.db.id()
	stamp(&b.CreatedAt)
	r.db.bookings[b.ID] = *b
	return nil
}

func (r *bookingRepo) GetByID(id uint) (*models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, repositories.ErrBookingNotFound
	}
	return &b, nil
}

func (r *bookingRepo) Update(b *models.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b.UpdatedAt = time.Now()
	r.db.bookings[b.ID] = *b
	return nil
}

func (r *bookingRepo) ListByLearner(learnerID uint, limit, offset int) ([]models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Booking
	for _, b := range r.db.bookings {
		if b.LearnerID == learnerID {
			out = append(out, b)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *bookingRepo) ListExpiredUnpaid(before time.Time) ([]models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Booking
	for _, b := range r.db.bookings {
		if b.Status == models.BookingStatusPending &&
			b.PaymentStatus == models.PaymentStatusUnpaid &&
			b.CreatedAt.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

type scheduleRepo struct{ db *DB }

func (r *scheduleRepo) Create(s *models.Schedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s.ID = r.db.id()
	stamp(&s.CreatedAt)
	r.db.schedules[s.ID] = *s
	return nil
}

func (r *scheduleRepo) GetByID(id uint) (*models.Schedule, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.schedules[id]
	if !ok {
		return nil, repositories.ErrScheduleNotFound
	}
	return &s, nil
}

func (r *scheduleRepo) Update(s *models.Schedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s.UpdatedAt = time.Now()
	r.db.schedules[s.ID] = *s
	return nil
}

func (r *scheduleRepo) ListByBooking(bookingID uint) ([]models.Schedule, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Schedule
	for _, s := range r.db.schedules {
		if s.BookingID == bookingID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *scheduleRepo) ListStudiedEndedBefore(cutoff time.Time) ([]models.Schedule, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Schedule
	for _, s := range r.db.schedules {
		if s.Status == models.ScheduleStatusStudied && s.EndTime.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *scheduleRepo) GetSlot(id uint) (*models.AvailabilitySlot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.slots[id]
	if !ok {
		return nil, repositories.ErrSlotNotFound
	}
	return &s, nil
}

func (r *scheduleRepo) UpdateSlot(s *models.AvailabilitySlot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if s.ID == 0 {
		s.ID = r.db.id()
	}
	r.db.slots[s.ID] = *s
	return nil
}

type payoutRepo struct{ db *DB }

func (r *payoutRepo) Create(p *models.TutorPayout) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.ID = r.db.id()
	stamp(&p.CreatedAt)
	r.db.payouts[p.ID] = *p
	return nil
}

func (r *payoutRepo) GetByID(id uint) (*models.TutorPayout, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payouts[id]
	if !ok {
		return nil, repositories.ErrPayoutNotFound
	}
	return &p, nil
}

func (r *payoutRepo) GetByScheduleID(scheduleID uint) (*models.TutorPayout, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.payouts {
		if p.ScheduleID == scheduleID {
			p := p
			return &p, nil
		}
	}
	return nil, repositories.ErrPayoutNotFound
}

func (r *payoutRepo) Update(p *models.TutorPayout) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.UpdatedAt = time.Now()
	r.db.payouts[p.ID] = *p
	return nil
}

func (r *payoutRepo) ListDue(asOf time.Time) ([]models.TutorPayout, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.TutorPayout
	for _, p := range r.db.payouts {
		if p.Status == models.PayoutStatusPending && !p.ScheduledPayoutDate.After(asOf) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *payoutRepo) ListPendingByBooking(bookingID uint) ([]models.TutorPayout, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.TutorPayout
	for _, p := range r.db.payouts {
		if p.BookingID == bookingID && p.Status == models.PayoutStatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *payoutRepo) ListByTutor(tutorID uint, limit, offset int) ([]models.TutorPayout, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.TutorPayout
	for _, p := range r.db.payouts {
		if p.TutorID == tutorID {
			out = append(out, p)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *payoutRepo) SumPendingAmount() (float64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var total float64
	for _, p := range r.db.payouts {
		if p.Status == models.PayoutStatusPending {
			total += p.Amount
		}
	}
	return total, nil
}

type refundRepo struct{ db *DB }

func (r *refundRepo) CreatePolicy(p *models.RefundPolicy) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.ID = r.db.id()
	stamp(&p.CreatedAt)
	r.db.policies[p.ID] = *p
	return nil
}

func (r *refundRepo) GetPolicyByID(id uint) (*models.RefundPolicy, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.policies[id]
	if !ok {
		return nil, repositories.ErrRefundPolicyNotFound
	}
	return &p, nil
}

func (r *refundRepo) ListActivePolicies() ([]models.RefundPolicy, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.RefundPolicy
	for _, p := range r.db.policies {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *refundRepo) CreateRequest(req *models.BookingRefundRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req.ID = r.db.id()
	stamp(&req.CreatedAt)
	r.db.requests[req.ID] = *req
	return nil
}

func (r *refundRepo) GetRequestByID(id uint) (*models.BookingRefundRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.requests[id]
	if !ok {
		return nil, repositories.ErrRefundRequestNotFound
	}
	return &req, nil
}

func (r *refundRepo) UpdateRequest(req *models.BookingRefundRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req.UpdatedAt = time.Now()
	r.db.requests[req.ID] = *req
	return nil
}

func (r *refundRepo) PendingRequestExists(bookingID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, req := range r.db.requests {
		if req.BookingID == bookingID && req.Status == models.RefundRequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *refundRepo) ListRequestsByStatus(status string, limit, offset int) ([]models.BookingRefundRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.BookingRefundRequest
	for _, req := range r.db.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return paginate(out, limit, offset), nil
}

type notificationRepo struct{ db *DB }

func (r *notificationRepo) Create(n *models.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n.ID = r.db.id()
	stamp(&n.CreatedAt)
	r.db.notifications = append(r.db.notifications, *n)
	return nil
}

func (r *notificationRepo) Update(n *models.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.notifications {
		if r.db.notifications[i].ID == n.ID {
			r.db.notifications[i] = *n
			return nil
		}
	}
	return nil
}

func (r *notificationRepo) ListByUser(userID uint, limit, offset int) ([]models.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Notification
	for _, n := range r.db.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
