package wallet

import "errors"

// Service errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidEntryType  = errors.New("invalid ledger entry type")
	ErrWalletNotFound    = errors.New("wallet not found")
)
