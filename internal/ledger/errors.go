package ledger

import "errors"

// Sentinel errors returned by the engine. Handlers map these to HTTP status
// codes with errors.Is; everything else is treated as internal.
var (
	// ErrInvalidSplit covers sum mismatches, missing or unknown participant
	// splits, and percentages not summing to 100.
	ErrInvalidSplit = errors.New("invalid split")

	// ErrInvalidMembership is returned when the payer or a participant is
	// not a member of the expense's group.
	ErrInvalidMembership = errors.New("user is not a group member")

	// ErrInvalidSettlement is returned for self-settlements and
	// non-positive settlement amounts.
	ErrInvalidSettlement = errors.New("invalid settlement")

	// ErrNotFound is returned for unknown user, group, or expense IDs.
	ErrNotFound = errors.New("not found")
)
