package budget

import (
	"context"

	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// ENVELOPE GROUPS & ENVELOPES
// =============================================================================

// Envelopes manages envelope groups and the envelopes inside them.
//
// Reserved groups (System, Income, Debt) and reserved envelopes (Income,
// Ignored) are Forbidden for every mutation. Debt envelopes share their ID
// with an account and are changed through Accounts; direct mutation is a
// Conflict.
type Envelopes struct {
	env *env
}

type GroupInput struct {
	Description string
	Notes       string
	Hidden      bool
}

type EnvelopeInput struct {
	Description     string
	Notes           string
	GroupID         ledger.ID
	IgnoreOverspend bool
	Hidden          bool
}

// EnvelopeFilter narrows Search to one group when GroupID is set.
type EnvelopeFilter struct {
	ledger.Filter
	GroupID ledger.ID
}

// -----------------------------------------------------------------------------
// Groups
// -----------------------------------------------------------------------------

func (e *Envelopes) CreateGroup(ctx context.Context, in GroupInput) (ledger.EnvelopeGroup, error) {
	if err := requireDescription(in.Description); err != nil {
		return ledger.EnvelopeGroup{}, err
	}

	now := e.env.stamp()
	group := ledger.EnvelopeGroup{
		ID:          e.env.newID(),
		Description: text(in.Description),
		Notes:       text(in.Notes),
		Lifecycle:   ledger.Lifecycle{CreatedAt: now, ModifiedAt: now},
	}
	group.SetHidden(in.Hidden, now)

	if err := e.env.store.EnvelopeGroups().Create(ctx, group); err != nil {
		return ledger.EnvelopeGroup{}, ledger.Internal(err)
	}
	return group, nil
}

func (e *Envelopes) ReadGroup(ctx context.Context, id ledger.ID) (ledger.EnvelopeGroup, error) {
	if err := requireID(id, "envelope group"); err != nil {
		return ledger.EnvelopeGroup{}, err
	}
	group, err := lookup(ctx, e.env.store.EnvelopeGroups(), id, "envelope group")
	if err != nil {
		return ledger.EnvelopeGroup{}, err
	}
	return describeGroup(group), nil
}

func (e *Envelopes) SearchGroups(ctx context.Context, f ledger.Filter) ([]ledger.EnvelopeGroup, error) {
	groups, err := e.env.store.EnvelopeGroups().Read(ctx, f.IDs)
	if err != nil {
		return nil, ledger.Internal(err)
	}
	groups = ledger.Apply(f, groups)
	for i := range groups {
		groups[i] = describeGroup(groups[i])
	}
	return groups, nil
}

func describeGroup(g ledger.EnvelopeGroup) ledger.EnvelopeGroup {
	if desc, ok := ledger.ReservedDescription(g.ID); ok {
		g.Description = desc
	}
	return g
}

func (e *Envelopes) UpdateGroup(ctx context.Context, id ledger.ID, in GroupInput) (ledger.EnvelopeGroup, error) {
	if err := requireID(id, "envelope group"); err != nil {
		return ledger.EnvelopeGroup{}, err
	}
	if ledger.IsReservedGroup(id) {
		return ledger.EnvelopeGroup{}, ledger.Forbidden("envelope group %s is reserved", id)
	}
	if err := requireDescription(in.Description); err != nil {
		return ledger.EnvelopeGroup{}, err
	}

	s := e.env.store
	group, err := lookup(ctx, s.EnvelopeGroups(), id, "envelope group")
	if err != nil {
		return ledger.EnvelopeGroup{}, err
	}

	now := e.env.stamp()
	group.Description, group.Notes = text(in.Description), text(in.Notes)
	group.SetHidden(in.Hidden, now)
	group.Touch(now)
	if err := s.EnvelopeGroups().Update(ctx, group); err != nil {
		return ledger.EnvelopeGroup{}, ledger.Internal(err)
	}
	return group, nil
}

func (e *Envelopes) DeleteGroup(ctx context.Context, id ledger.ID) error {
	if err := requireID(id, "envelope group"); err != nil {
		return err
	}
	if ledger.IsReservedGroup(id) {
		return ledger.Forbidden("envelope group %s is reserved", id)
	}

	s := e.env.store
	group, err := lookup(ctx, s.EnvelopeGroups(), id, "envelope group")
	if err != nil {
		return err
	}
	if !group.IsHidden() {
		return ledger.Conflict("envelope group %s must be hidden before it is deleted", id)
	}

	envelopes, err := ledger.ReadAll(ctx, s.Envelopes())
	if err != nil {
		return ledger.Internal(err)
	}
	for _, envelope := range ledger.NotDeleted(envelopes) {
		if envelope.EnvelopeGroupID == id {
			return ledger.Conflict("envelope group %s still contains envelope %s", id, envelope.ID)
		}
	}

	group.MarkDeleted(e.env.stamp())
	return ledger.Internal(s.EnvelopeGroups().Update(ctx, group))
}

// -----------------------------------------------------------------------------
// Envelopes
// -----------------------------------------------------------------------------

func (e *Envelopes) Create(ctx context.Context, in EnvelopeInput) (ledger.Envelope, error) {
	if err := requireDescription(in.Description); err != nil {
		return ledger.Envelope{}, err
	}
	if err := e.checkGroup(ctx, in.GroupID); err != nil {
		return ledger.Envelope{}, err
	}

	now := e.env.stamp()
	envelope := ledger.Envelope{
		ID:              e.env.newID(),
		Description:     text(in.Description),
		Notes:           text(in.Notes),
		EnvelopeGroupID: in.GroupID,
		IgnoreOverspend: in.IgnoreOverspend,
		Lifecycle:       ledger.Lifecycle{CreatedAt: now, ModifiedAt: now},
	}
	envelope.SetHidden(in.Hidden, now)

	if err := e.env.store.Envelopes().Create(ctx, envelope); err != nil {
		return ledger.Envelope{}, ledger.Internal(err)
	}
	return envelope, nil
}

// checkGroup validates the group a user envelope is placed in.
func (e *Envelopes) checkGroup(ctx context.Context, groupID ledger.ID) error {
	if err := requireID(groupID, "envelope group"); err != nil {
		return err
	}
	if ledger.IsReservedGroup(groupID) {
		return ledger.Forbidden("envelopes cannot be placed in reserved group %s", groupID)
	}
	_, err := lookup(ctx, e.env.store.EnvelopeGroups(), groupID, "envelope group")
	return err
}

func (e *Envelopes) Read(ctx context.Context, id ledger.ID) (ledger.Envelope, error) {
	if err := requireID(id, "envelope"); err != nil {
		return ledger.Envelope{}, err
	}
	envelope, err := lookup(ctx, e.env.store.Envelopes(), id, "envelope")
	if err != nil {
		return ledger.Envelope{}, err
	}
	return describeEnvelope(envelope), nil
}

func (e *Envelopes) Search(ctx context.Context, f EnvelopeFilter) ([]ledger.Envelope, error) {
	envelopes, err := e.env.store.Envelopes().Read(ctx, f.IDs)
	if err != nil {
		return nil, ledger.Internal(err)
	}
	out := make([]ledger.Envelope, 0, len(envelopes))
	for _, envelope := range ledger.Apply(f.Filter, envelopes) {
		if f.GroupID != "" && envelope.EnvelopeGroupID != f.GroupID {
			continue
		}
		out = append(out, describeEnvelope(envelope))
	}
	return out, nil
}

func describeEnvelope(envelope ledger.Envelope) ledger.Envelope {
	if desc, ok := ledger.ReservedDescription(envelope.ID); ok {
		envelope.Description = desc
	}
	return envelope
}

func (e *Envelopes) Update(ctx context.Context, id ledger.ID, in EnvelopeInput) (ledger.Envelope, error) {
	if err := requireID(id, "envelope"); err != nil {
		return ledger.Envelope{}, err
	}
	if ledger.IsReservedEnvelope(id) {
		return ledger.Envelope{}, ledger.Forbidden("envelope %s is reserved", id)
	}
	if err := requireDescription(in.Description); err != nil {
		return ledger.Envelope{}, err
	}

	envelope, err := e.mutable(ctx, id)
	if err != nil {
		return ledger.Envelope{}, err
	}
	if err := e.checkGroup(ctx, in.GroupID); err != nil {
		return ledger.Envelope{}, err
	}

	now := e.env.stamp()
	envelope.Description, envelope.Notes = text(in.Description), text(in.Notes)
	envelope.EnvelopeGroupID = in.GroupID
	envelope.IgnoreOverspend = in.IgnoreOverspend
	envelope.SetHidden(in.Hidden, now)
	envelope.Touch(now)
	if err := e.env.store.Envelopes().Update(ctx, envelope); err != nil {
		return ledger.Envelope{}, ledger.Internal(err)
	}
	return envelope, nil
}

func (e *Envelopes) Delete(ctx context.Context, id ledger.ID) error {
	if err := requireID(id, "envelope"); err != nil {
		return err
	}
	if ledger.IsReservedEnvelope(id) {
		return ledger.Forbidden("envelope %s is reserved", id)
	}

	envelope, err := e.mutable(ctx, id)
	if err != nil {
		return err
	}
	if !envelope.IsHidden() {
		return ledger.Conflict("envelope %s must be hidden before it is deleted", id)
	}

	s := e.env.store
	txs, err := liveTransactions(ctx, s)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.EnvelopeID == id {
			return ledger.Conflict("envelope %s is referenced by transactions", id)
		}
	}
	budgets, err := liveBudgets(ctx, s)
	if err != nil {
		return err
	}
	if nonZeroBudget(budgets, id) {
		return ledger.Conflict("envelope %s has non-zero budgets", id)
	}

	envelope.MarkDeleted(e.env.stamp())
	return ledger.Internal(s.Envelopes().Update(ctx, envelope))
}

// mutable loads an envelope that this logic may change.
func (e *Envelopes) mutable(ctx context.Context, id ledger.ID) (ledger.Envelope, error) {
	envelope, err := lookup(ctx, e.env.store.Envelopes(), id, "envelope")
	if err != nil {
		return ledger.Envelope{}, err
	}
	isDebt, err := exists(ctx, e.env.store.Accounts(), id)
	if err != nil {
		return ledger.Envelope{}, err
	}
	if isDebt {
		return ledger.Envelope{}, ledger.Conflict("envelope %s tracks account debt; change it through the account", id)
	}
	return envelope, nil
}
