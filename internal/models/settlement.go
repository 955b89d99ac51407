package models

// Settlement represents a real-world payment between two users that offsets
// what FromUserID owes ToUserID. Immutable once recorded.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// AmountCents is the payment amount in cents. Always positive.
	AmountCents int64

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}

// BalanceRow is one derived balance: FromUserID owes ToUserID AmountCents.
// Rows are always oriented so AmountCents is positive; each user pair yields
// at most one row.
type BalanceRow struct {
	FromUserID  string
	ToUserID    string
	AmountCents int64
}
