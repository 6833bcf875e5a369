/*
Package wallet implements the wallet store and the append-only transaction
ledger.

Every balance change in the system goes through Apply, which mutates the
wallet row and writes the WalletTransaction explaining it inside the caller's
database transaction. The ledger is the source of truth: for any wallet the
signed amounts of its rows sum to the current balance starting from zero, and
a debit can never drive a balance negative.

Usage:

	svc := wallet.NewService(repo, cache, metrics)

	err := txMgr.Execute(ctx, func(r *repositories.Repos) error {
	    _, err := svc.Apply(r, wallet.EntryRequest{
	        UserID: userID,
	        Amount: amount,
	        Type:   models.TransactionTypeCredit,
	        Reason: models.TransactionReasonDeposit,
	    })
	    return err
	})
	svc.InvalidateCache(ctx, userID)

Multi-wallet moves compose Apply calls inside one unit of work so all entries
commit or none do. ApplyAll is the convenience form for callers whose entry
list is known up front.
*/
package wallet
