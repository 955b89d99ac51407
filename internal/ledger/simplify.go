package ledger

import (
	"context"
	"sort"

	"github.com/nmehta6/splitledger/internal/models"
)

// SuggestSettlements derives a small set of transfers that would clear the
// group's current balances, matching the largest debtors against the
// largest creditors greedily. It is a read-only derivation over the group
// balance rows and records nothing; callers turn accepted suggestions into
// real settlements via Settle.
//
// Deterministic: ties between equal net amounts break on ascending user id.
func (e *Engine) SuggestSettlements(ctx context.Context, groupID string) ([]models.BalanceRow, error) {
	balances, err := e.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	// Net position per user within the group: positive is owed money.
	net := make(map[string]int64)
	for _, row := range balances {
		net[row.FromUserID] -= row.AmountCents
		net[row.ToUserID] += row.AmountCents
	}

	type position struct {
		userID string
		amount int64
	}
	var debtors, creditors []position
	for userID, amount := range net {
		switch {
		case amount < 0:
			debtors = append(debtors, position{userID, -amount})
		case amount > 0:
			creditors = append(creditors, position{userID, amount})
		}
	}
	byAmountDesc := func(ps []position) {
		sort.Slice(ps, func(i, j int) bool {
			if ps[i].amount != ps[j].amount {
				return ps[i].amount > ps[j].amount
			}
			return ps[i].userID < ps[j].userID
		})
	}
	byAmountDesc(debtors)
	byAmountDesc(creditors)

	suggestions := []models.BalanceRow{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		transfer := debtors[i].amount
		if creditors[j].amount < transfer {
			transfer = creditors[j].amount
		}
		suggestions = append(suggestions, models.BalanceRow{
			FromUserID:  debtors[i].userID,
			ToUserID:    creditors[j].userID,
			AmountCents: transfer,
		})
		debtors[i].amount -= transfer
		creditors[j].amount -= transfer
		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}
	return suggestions, nil
}
