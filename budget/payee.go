package budget

import (
	"context"

	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// PAYEE LOGIC
// =============================================================================

// Payees manages transaction counterparties. A payee sharing its ID with an
// account is an account payee and is only changed through Accounts.
type Payees struct {
	env *env
}

type PayeeInput struct {
	Description string
	Notes       string
	Hidden      bool
}

type PayeeView struct {
	ledger.Payee
	IsAccount bool
}

func (p *Payees) Create(ctx context.Context, in PayeeInput) (ledger.Payee, error) {
	if err := requireDescription(in.Description); err != nil {
		return ledger.Payee{}, err
	}

	now := p.env.stamp()
	payee := ledger.Payee{
		ID:          p.env.newID(),
		Description: text(in.Description),
		Notes:       text(in.Notes),
		Lifecycle:   ledger.Lifecycle{CreatedAt: now, ModifiedAt: now},
	}
	payee.SetHidden(in.Hidden, now)

	if err := p.env.store.Payees().Create(ctx, payee); err != nil {
		return ledger.Payee{}, ledger.Internal(err)
	}
	return payee, nil
}

func (p *Payees) Read(ctx context.Context, id ledger.ID) (PayeeView, error) {
	if err := requireID(id, "payee"); err != nil {
		return PayeeView{}, err
	}
	payee, err := lookup(ctx, p.env.store.Payees(), id, "payee")
	if err != nil {
		return PayeeView{}, err
	}
	isAccount, err := exists(ctx, p.env.store.Accounts(), id)
	if err != nil {
		return PayeeView{}, err
	}
	return payeeView(payee, isAccount), nil
}

func (p *Payees) Search(ctx context.Context, f ledger.Filter) ([]PayeeView, error) {
	s := p.env.store
	payees, err := s.Payees().Read(ctx, f.IDs)
	if err != nil {
		return nil, ledger.Internal(err)
	}
	accounts, err := ledger.ReadAll(ctx, s.Accounts())
	if err != nil {
		return nil, ledger.Internal(err)
	}
	isAccount := make(map[ledger.ID]bool, len(accounts))
	for _, a := range accounts {
		isAccount[a.ID] = true
	}

	payees = ledger.Apply(f, payees)
	views := make([]PayeeView, 0, len(payees))
	for _, payee := range payees {
		views = append(views, payeeView(payee, isAccount[payee.ID]))
	}
	return views, nil
}

func payeeView(payee ledger.Payee, isAccount bool) PayeeView {
	if desc, ok := ledger.ReservedDescription(payee.ID); ok {
		payee.Description = desc
	}
	return PayeeView{Payee: payee, IsAccount: isAccount}
}

func (p *Payees) Update(ctx context.Context, id ledger.ID, in PayeeInput) (ledger.Payee, error) {
	if err := requireID(id, "payee"); err != nil {
		return ledger.Payee{}, err
	}
	if ledger.IsReservedPayee(id) {
		return ledger.Payee{}, ledger.Forbidden("payee %s is reserved", id)
	}
	if err := requireDescription(in.Description); err != nil {
		return ledger.Payee{}, err
	}

	payee, err := p.mutable(ctx, id)
	if err != nil {
		return ledger.Payee{}, err
	}

	now := p.env.stamp()
	payee.Description, payee.Notes = text(in.Description), text(in.Notes)
	payee.SetHidden(in.Hidden, now)
	payee.Touch(now)
	if err := p.env.store.Payees().Update(ctx, payee); err != nil {
		return ledger.Payee{}, ledger.Internal(err)
	}
	return payee, nil
}

func (p *Payees) Delete(ctx context.Context, id ledger.ID) error {
	if err := requireID(id, "payee"); err != nil {
		return err
	}
	if ledger.IsReservedPayee(id) {
		return ledger.Forbidden("payee %s is reserved", id)
	}

	payee, err := p.mutable(ctx, id)
	if err != nil {
		return err
	}
	if !payee.IsHidden() {
		return ledger.Conflict("payee %s must be hidden before it is deleted", id)
	}
	txs, err := liveTransactions(ctx, p.env.store)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.PayeeID == id {
			return ledger.Conflict("payee %s is referenced by transactions", id)
		}
	}

	payee.MarkDeleted(p.env.stamp())
	return ledger.Internal(p.env.store.Payees().Update(ctx, payee))
}

// mutable loads a payee that this logic may change.
func (p *Payees) mutable(ctx context.Context, id ledger.ID) (ledger.Payee, error) {
	payee, err := lookup(ctx, p.env.store.Payees(), id, "payee")
	if err != nil {
		return ledger.Payee{}, err
	}
	isAccount, err := exists(ctx, p.env.store.Accounts(), id)
	if err != nil {
		return ledger.Payee{}, err
	}
	if isAccount {
		return ledger.Payee{}, ledger.Conflict("payee %s belongs to an account; change it through the account", id)
	}
	return payee, nil
}
