/*
balance.go - Pure balance calculators

PURPOSE:
  Turns a set of transactions (already stripped of deleted rows) into the
  derived figures the ledger shows: pending, posted, balance, and for
  debt-bearing accounts the payment due. Nothing here touches a Store.

SIDES:
  Every transaction has an owning side and, for accounts, a counterparty
  side. A transaction counts positively toward the owning ID and negatively
  toward the counterparty ID, so a transfer (Account X, Payee = Account Y)
  moves the same magnitude out of one ledger and into the other.

  AccountSides:  owning = AccountID, counterparty = PayeeID
  EnvelopeSides: owning = EnvelopeID, no counterparty

FORMULAS:
  Pending = owning(non-posted) - counterparty(non-posted)
  Posted  = owning(posted) - counterparty(posted)
  Balance = Pending + Posted

  DebtPayment (account A, shadow debt envelope A):
    debt           = net of transactions on or before today whose EnvelopeID is A
    budgetedToDate = sum of budgets on envelope A whose period begins on or before today
    payment        = max(0, budgetedToDate + debt - balance)

EXAMPLE:
  +10.5 pending on A, -50 posted on A, +0.5 posted to payee A,
  +3 reconciled to payee A, -1 posted on A in envelope A,
  -0.1 reconciled on A in envelope A, +0.1 reconciled to payee A in envelope A,
  budgets 1.0 (period begun) and 0.1 (period in 100 days):

  Pending 10.5, Posted -54.7, Balance -44.2, Payment 44.0
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SIDES
// =============================================================================

// Sides selects which transaction fields identify the owning and
// counterparty participants. A nil Counter means one-sided.
type Sides struct {
	Owning  func(Transaction) ID
	Counter func(Transaction) ID
}

var (
	AccountSides = Sides{
		Owning:  func(t Transaction) ID { return t.AccountID },
		Counter: func(t Transaction) ID { return t.PayeeID },
	}
	EnvelopeSides = Sides{
		Owning: func(t Transaction) ID { return t.EnvelopeID },
	}
)

// Contribution returns the signed amount tx adds to id's ledger.
func (s Sides) Contribution(id ID, tx Transaction) decimal.Decimal {
	total := decimal.Zero
	if s.Owning != nil && s.Owning(tx) == id {
		total = total.Add(tx.Amount)
	}
	if s.Counter != nil && s.Counter(tx) == id {
		total = total.Sub(tx.Amount)
	}
	return total
}

// Involves reports whether tx touches id on either side.
func (s Sides) Involves(id ID, tx Transaction) bool {
	return (s.Owning != nil && s.Owning(tx) == id) || (s.Counter != nil && s.Counter(tx) == id)
}

// Net sums the contributions of every transaction accepted by keep.
func (s Sides) Net(id ID, txs []Transaction, keep func(Transaction) bool) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if keep != nil && !keep(tx) {
			continue
		}
		total = total.Add(s.Contribution(id, tx))
	}
	return total
}

// =============================================================================
// CALCULATORS
// =============================================================================

func isPending(tx Transaction) bool { return !tx.Posted }
func isPosted(tx Transaction) bool  { return tx.Posted }

func Pending(id ID, txs []Transaction, s Sides) decimal.Decimal {
	return s.Net(id, txs, isPending)
}

func Posted(id ID, txs []Transaction, s Sides) decimal.Decimal {
	return s.Net(id, txs, isPosted)
}

func Balance(id ID, txs []Transaction, s Sides) decimal.Decimal {
	return Pending(id, txs, s).Add(Posted(id, txs, s))
}

// PostedAsOf is Posted restricted to transactions dated on or before asOf.
func PostedAsOf(id ID, txs []Transaction, s Sides, asOf time.Time) decimal.Decimal {
	return s.Net(id, txs, func(tx Transaction) bool {
		return tx.Posted && OnOrBefore(tx.ServiceDate, asOf)
	})
}

// DebtPayment computes how much should currently be paid toward the debt
// of accountID, whose shadow debt envelope shares its ID. The result is
// never negative.
func DebtPayment(accountID ID, txs []Transaction, budgets []Budget, periods []BudgetPeriod, today time.Time) decimal.Decimal {
	debt := AccountSides.Net(accountID, txs, func(tx Transaction) bool {
		return tx.EnvelopeID == accountID && OnOrBefore(tx.ServiceDate, today)
	})

	begins := make(map[ID]time.Time, len(periods))
	for _, p := range periods {
		begins[p.ID] = p.BeginDate
	}
	budgeted := decimal.Zero
	for _, b := range budgets {
		if b.EnvelopeID != accountID {
			continue
		}
		begin, ok := begins[b.BudgetPeriodID]
		if !ok || !OnOrBefore(begin, today) {
			continue
		}
		budgeted = budgeted.Add(b.Amount)
	}

	balance := Balance(accountID, txs, AccountSides)
	payment := budgeted.Add(debt).Sub(balance)
	if payment.IsNegative() {
		return decimal.Zero
	}
	return payment
}
