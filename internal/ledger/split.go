package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/nmehta6/splitledger/internal/models"
)

// percentEpsilon is the tolerance on the percentage sum for PERCENT splits.
const percentEpsilon = 0.01

// SplitShare carries one participant's share of an expense as provided by
// the caller: an exact cent amount for EXACT splits or a percentage for
// PERCENT splits.
type SplitShare struct {
	UserID      string
	AmountCents int64
	Percentage  float64
}

// ComputeSplits divides totalCents among participants according to
// splitType and returns the cents each participant owes. It is a pure
// function: identical inputs always produce identical outputs, and the
// returned shares always sum to totalCents exactly.
//
// Indivisible remainders (EQUAL, PERCENT) are distributed one cent at a
// time to participants in ascending user-id order (excess cents are taken
// back in descending order), so the distribution is reproducible.
// Violations of the split contract return ErrInvalidSplit.
func ComputeSplits(totalCents int64, splitType models.SplitType, participants []string, shares []SplitShare) (map[string]int64, error) {
	if totalCents <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidSplit)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalidSplit)
	}

	switch splitType {
	case models.SplitEqual:
		return equalSplit(totalCents, participants), nil
	case models.SplitExact:
		return exactSplit(totalCents, participants, shares)
	case models.SplitPercent:
		return percentSplit(totalCents, participants, shares)
	default:
		return nil, fmt.Errorf("%w: unknown split type %q", ErrInvalidSplit, splitType)
	}
}

// equalSplit gives every participant floor(total/n) cents and assigns the
// remaining cents to the first participants in ascending id order.
func equalSplit(totalCents int64, participants []string) map[string]int64 {
	n := int64(len(participants))
	base := totalCents / n
	remainder := totalCents - base*n

	splits := make(map[string]int64, n)
	for _, id := range sortedIDs(participants) {
		owed := base
		if remainder > 0 {
			owed++
			remainder--
		}
		splits[id] = owed
	}
	return splits
}

// exactSplit takes each participant's amount verbatim. The amounts must
// cover every participant, reference no one else, be positive, and sum to
// the total with zero tolerance.
func exactSplit(totalCents int64, participants []string, shares []SplitShare) (map[string]int64, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: exact split requires split amounts", ErrInvalidSplit)
	}

	members := participantSet(participants)
	splits := make(map[string]int64, len(participants))
	var sum int64
	for _, share := range shares {
		if !members[share.UserID] {
			return nil, fmt.Errorf("%w: split user %s is not a participant", ErrInvalidSplit, share.UserID)
		}
		if _, dup := splits[share.UserID]; dup {
			return nil, fmt.Errorf("%w: duplicate split for user %s", ErrInvalidSplit, share.UserID)
		}
		if share.AmountCents <= 0 {
			return nil, fmt.Errorf("%w: split amount for user %s must be positive", ErrInvalidSplit, share.UserID)
		}
		splits[share.UserID] = share.AmountCents
		sum += share.AmountCents
	}

	if len(splits) != len(members) {
		return nil, fmt.Errorf("%w: every participant needs a split amount", ErrInvalidSplit)
	}
	if sum != totalCents {
		return nil, fmt.Errorf("%w: split amounts sum to %d cents, total is %d", ErrInvalidSplit, sum, totalCents)
	}
	return splits, nil
}

// percentSplit converts percentages to cents via floor(total*pct/100) and
// forces the sum back to the total with the same ascending-id remainder
// rule as equalSplit.
func percentSplit(totalCents int64, participants []string, shares []SplitShare) (map[string]int64, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: percent split requires percentages", ErrInvalidSplit)
	}

	members := participantSet(participants)
	percentages := make(map[string]float64, len(participants))
	var totalPct float64
	for _, share := range shares {
		if !members[share.UserID] {
			return nil, fmt.Errorf("%w: split user %s is not a participant", ErrInvalidSplit, share.UserID)
		}
		if _, dup := percentages[share.UserID]; dup {
			return nil, fmt.Errorf("%w: duplicate split for user %s", ErrInvalidSplit, share.UserID)
		}
		if share.Percentage <= 0 {
			return nil, fmt.Errorf("%w: percentage for user %s must be positive", ErrInvalidSplit, share.UserID)
		}
		percentages[share.UserID] = share.Percentage
		totalPct += share.Percentage
	}

	if len(percentages) != len(members) {
		return nil, fmt.Errorf("%w: every participant needs a percentage", ErrInvalidSplit)
	}
	// The slack keeps boundary sums like 49.995+49.995 inside the
	// tolerance despite float representation error.
	if math.Abs(totalPct-100) > percentEpsilon+1e-9 {
		return nil, fmt.Errorf("%w: percentages sum to %.2f, must be 100", ErrInvalidSplit, totalPct)
	}

	ids := sortedIDs(participants)
	splits := make(map[string]int64, len(ids))
	var sum int64
	for _, id := range ids {
		owed := int64(math.Floor(float64(totalCents) * percentages[id] / 100))
		splits[id] = owed
		sum += owed
	}

	// Percentage sums inside the tolerance need not hit 100 exactly, so the
	// floored shares can undershoot the total by more than one cent per
	// participant, or overshoot it. Force the sum back to the total: add
	// leftover cents cyclically in ascending id order, or take excess cents
	// back cyclically in descending id order.
	remainder := totalCents - sum
	for i := 0; remainder > 0; i = (i + 1) % len(ids) {
		splits[ids[i]]++
		remainder--
	}
	for i := len(ids) - 1; remainder < 0; i = (i - 1 + len(ids)) % len(ids) {
		splits[ids[i]]--
		remainder++
	}
	return splits, nil
}

func participantSet(participants []string) map[string]bool {
	set := make(map[string]bool, len(participants))
	for _, id := range participants {
		set[id] = true
	}
	return set
}

func sortedIDs(participants []string) []string {
	ids := make([]string, len(participants))
	copy(ids, participants)
	sort.Strings(ids)
	return ids
}
