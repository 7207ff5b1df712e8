package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// RECONCILIATION - Statement total vs. computed posted total
// =============================================================================

// ReconcileResult reports a successful reconciliation.
type ReconcileResult struct {
	AccountID   ledger.ID
	AsOf        time.Time
	PostedTotal decimal.Decimal
	// Marked counts transactions newly flagged reconciled by this call.
	Marked int
}

// Reconcile compares the asserted statement total as of asOf against the
// account's posted total over transactions dated on or before asOf. On a
// match every contributing transaction is marked reconciled; on a mismatch
// nothing is written and Conflict is returned. Calling it again with the
// same figures succeeds and marks nothing new.
func (a *Accounts) Reconcile(ctx context.Context, id ledger.ID, asOf time.Time, asserted decimal.Decimal) (ReconcileResult, error) {
	if err := requireID(id, "account"); err != nil {
		return ReconcileResult{}, err
	}
	if asOf.IsZero() {
		return ReconcileResult{}, ledger.BadRequest("statement date is required")
	}

	s := a.env.store
	if _, err := lookup(ctx, s.Accounts(), id, "account"); err != nil {
		return ReconcileResult{}, err
	}
	txs, err := liveTransactions(ctx, s)
	if err != nil {
		return ReconcileResult{}, err
	}

	matched := make([]ledger.Transaction, 0)
	for _, tx := range txs {
		if tx.Posted && ledger.OnOrBefore(tx.ServiceDate, asOf) && ledger.AccountSides.Involves(id, tx) {
			matched = append(matched, tx)
		}
	}

	total := ledger.Posted(id, matched, ledger.AccountSides)
	if !total.Equal(asserted) {
		return ReconcileResult{}, ledger.Conflict("statement total %s does not match posted total %s as of %s",
			asserted, total, ledger.FormatDay(asOf))
	}

	result := ReconcileResult{AccountID: id, AsOf: ledger.Day(asOf), PostedTotal: total}
	now := a.env.stamp()
	for _, tx := range matched {
		if tx.Reconciled {
			continue
		}
		tx.Reconciled = true
		tx.Touch(now)
		if err := s.Transactions().Update(ctx, tx); err != nil {
			return ReconcileResult{}, ledger.Internal(err)
		}
		result.Marked++
	}
	return result, nil
}
