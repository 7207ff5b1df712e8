package ledger

import "time"

// =============================================================================
// RESERVED IDENTITIES - System-owned records
// =============================================================================

// Reserved records are never created through normal flows and can never be
// mutated or deleted by users. They are identified by equality against this
// table rather than by a flag on the row.
const (
	StartingBalancePayeeID ID = "00000000-0000-0000-0000-000000000001"

	SystemGroupID ID = "00000000-0000-0000-0000-000000000010"
	IncomeGroupID ID = "00000000-0000-0000-0000-000000000011"
	DebtGroupID   ID = "00000000-0000-0000-0000-000000000012"

	IncomeEnvelopeID  ID = "00000000-0000-0000-0000-000000000020"
	IgnoredEnvelopeID ID = "00000000-0000-0000-0000-000000000021"
)

// reservedDescriptions stand in for localized resources.
var reservedDescriptions = map[ID]string{
	StartingBalancePayeeID: "Starting Balance",
	SystemGroupID:          "System",
	IncomeGroupID:          "Income",
	DebtGroupID:            "Debt",
	IncomeEnvelopeID:       "Income",
	IgnoredEnvelopeID:      "Ignored",
}

func IsReservedPayee(id ID) bool { return id == StartingBalancePayeeID }

func IsReservedGroup(id ID) bool {
	return id == SystemGroupID || id == IncomeGroupID || id == DebtGroupID
}

func IsReservedEnvelope(id ID) bool {
	return id == IncomeEnvelopeID || id == IgnoredEnvelopeID
}

// IsReserved reports whether id names any system-owned record.
func IsReserved(id ID) bool {
	_, ok := reservedDescriptions[id]
	return ok
}

// ReservedDescription returns the display text for a reserved record.
func ReservedDescription(id ID) (string, bool) {
	d, ok := reservedDescriptions[id]
	return d, ok
}

// ReservedSet groups the rows that must exist before the engine is used.
type ReservedSet struct {
	Payees    []Payee
	Groups    []EnvelopeGroup
	Envelopes []Envelope
}

// ReservedRecords builds the reserved rows stamped with now.
func ReservedRecords(now time.Time) ReservedSet {
	lc := Lifecycle{CreatedAt: now, ModifiedAt: now}
	return ReservedSet{
		Payees: []Payee{
			{ID: StartingBalancePayeeID, Description: reservedDescriptions[StartingBalancePayeeID], Lifecycle: lc},
		},
		Groups: []EnvelopeGroup{
			{ID: SystemGroupID, Description: reservedDescriptions[SystemGroupID], Lifecycle: lc},
			{ID: IncomeGroupID, Description: reservedDescriptions[IncomeGroupID], Lifecycle: lc},
			{ID: DebtGroupID, Description: reservedDescriptions[DebtGroupID], Lifecycle: lc},
		},
		Envelopes: []Envelope{
			{ID: IncomeEnvelopeID, Description: reservedDescriptions[IncomeEnvelopeID], EnvelopeGroupID: IncomeGroupID, IgnoreOverspend: true, Lifecycle: lc},
			{ID: IgnoredEnvelopeID, Description: reservedDescriptions[IgnoredEnvelopeID], EnvelopeGroupID: SystemGroupID, IgnoreOverspend: true, Lifecycle: lc},
		},
	}
}
