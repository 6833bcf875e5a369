// Package dashboard aggregates platform-wide financial figures for admins.
// Everything here is a read projection; the only write is the lazy creation
// of the system wallet itself.
package dashboard

import (
	"context"

	"tutorpay/internal/repositories"
	"tutorpay/internal/services/wallet"
)

// Summary is the admin financial overview.
type Summary struct {
	SystemWalletBalance    float64 `json:"system_wallet_balance"`
	PendingPayoutLiability float64 `json:"pending_payout_liability"`
	TotalUserBalance       float64 `json:"total_user_balance"`
	WalletCount            int64   `json:"wallet_count"`
}

// Service produces the admin dashboard.
type Service interface {
	GetSummary(ctx context.Context) (*Summary, error)
}

type service struct {
	wallets  repositories.WalletRepository
	payouts  repositories.PayoutRepository
	tx       repositories.TxManager
	ledger   wallet.Service
	systemID uint
}

// NewService creates the dashboard. systemOwnerID is the reserved owner
// identity of the platform wallet; it is resolved through the same
// get-or-create path as any user wallet rather than a special-cased
// singleton.
func NewService(
	wallets repositories.WalletRepository,
	payouts repositories.PayoutRepository,
	tx repositories.TxManager,
	ledger wallet.Service,
	systemOwnerID uint,
) Service {
	return &service{
		wallets:  wallets,
		payouts:  payouts,
		tx:       tx,
		ledger:   ledger,
		systemID: systemOwnerID,
	}
}

func (s *service) GetSummary(ctx context.Context) (*Summary, error) {
	var systemBalance float64
	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		w, err := s.ledger.GetOrCreate(r, s.systemID)
		if err != nil {
			return err
		}
		systemBalance = w.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	liability, err := s.payouts.SumPendingAmount()
	if err != nil {
		return nil, err
	}
	userTotal, err := s.wallets.TotalBalanceExcluding(s.systemID)
	if err != nil {
		return nil, err
	}
	count, err := s.wallets.CountWallets()
	if err != nil {
		return nil, err
	}

	return &Summary{
		SystemWalletBalance:    systemBalance,
		PendingPayoutLiability: liability,
		TotalUserBalance:       userTotal,
		WalletCount:            count,
	}, nil
}
