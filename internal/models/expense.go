package models

// SplitType defines how an expense is divided among its participants.
type SplitType string

const (
	SplitEqual   SplitType = "EQUAL"
	SplitExact   SplitType = "EXACT"
	SplitPercent SplitType = "PERCENT"
)

// Valid reports whether t is one of the known split types.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitPercent:
		return true
	}
	return false
}

// Expense represents a recorded shared cost. Immutable once created.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	// May be supplied by the client; generated when empty.
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PaidBy is the user ID of the payer. Must be a group member.
	PaidBy string

	// TotalCents is the total expense amount in cents. Always positive.
	TotalCents int64

	// SplitType determines how TotalCents divides among Participants.
	SplitType SplitType

	// Participants are the user IDs splitting this expense.
	// Non-empty subset of the group's members.
	Participants []string

	// Description is an optional free-text note.
	Description string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseEntry is one row of the expense-derived debt log: ower owes payer
// AmountCents toward expense ExpenseID. The payer's own share produces no
// entry. Entries are append-only and, together with settlements, are the
// authoritative source for every balance.
type ExpenseEntry struct {
	ExpenseID   string
	GroupID     string
	OwerID      string
	PayerID     string
	AmountCents int64
}
