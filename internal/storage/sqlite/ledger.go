package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nmehta6/splitledger/internal/models"
)

// The balance indexes key every user pair by (low, high) with the two IDs
// in lexicographic order. amount_cents is signed: positive means the low
// user owes the high user. A debt "from owes to" therefore adds +amount
// when from is the low ID and -amount otherwise; a settlement is the same
// delta negated.

// pairKey returns the ordered pair key and the sign of a "from owes to"
// delta under that key.
func pairKey(from, to string) (low, high string, sign int64) {
	if from < to {
		return from, to, 1
	}
	return to, from, -1
}

// applyPairDelta adds a signed "from owes to amount" delta to the global
// pair index within tx.
func applyPairDelta(ctx context.Context, tx *sql.Tx, from, to string, amountCents int64) error {
	low, high, sign := pairKey(from, to)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pair_balances (low_user_id, high_user_id, amount_cents)
		VALUES (?, ?, ?)
		ON CONFLICT (low_user_id, high_user_id)
		DO UPDATE SET amount_cents = amount_cents + excluded.amount_cents`,
		low, high, sign*amountCents,
	)
	if err != nil {
		return fmt.Errorf("failed to update pair balance: %w", err)
	}
	return nil
}

// applyGroupPairDelta is applyPairDelta for the per-group index.
func applyGroupPairDelta(ctx context.Context, tx *sql.Tx, groupID, from, to string, amountCents int64) error {
	low, high, sign := pairKey(from, to)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO group_pair_balances (group_id, low_user_id, high_user_id, amount_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (group_id, low_user_id, high_user_id)
		DO UPDATE SET amount_cents = amount_cents + excluded.amount_cents`,
		groupID, low, high, sign*amountCents,
	)
	if err != nil {
		return fmt.Errorf("failed to update group pair balance: %w", err)
	}
	return nil
}

// AppendExpense persists the expense, its debt entries, and the index
// updates as one transaction.
func (s *SQLiteStore) AppendExpense(ctx context.Context, expense *models.Expense, entries []models.ExpenseEntry) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	participants, err := json.Marshal(expense.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (id, group_id, paid_by, total_cents, split_type, participants, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PaidBy, expense.TotalCents,
		string(expense.SplitType), string(participants), expense.Description, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	// Entries always belong to this expense, so key them by its id; that
	// also covers callers that left entry.ExpenseID blank for a generated id.
	for _, entry := range entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO expense_entries (expense_id, group_id, ower_id, payer_id, amount_cents)
			VALUES (?, ?, ?, ?, ?)`,
			expense.ID, entry.GroupID, entry.OwerID, entry.PayerID, entry.AmountCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense entry: %w", err)
		}

		if err := applyPairDelta(ctx, tx, entry.OwerID, entry.PayerID, entry.AmountCents); err != nil {
			return err
		}
		if err := applyGroupPairDelta(ctx, tx, entry.GroupID, entry.OwerID, entry.PayerID, entry.AmountCents); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense returns the logged expense with its full participant set, or
// nil if no expense has that id.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense := &models.Expense{}
	var splitType, participants string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, paid_by, total_cents, split_type, participants, description, created_at
		FROM expenses WHERE id = ?`, id,
	).Scan(
		&expense.ID, &expense.GroupID, &expense.PaidBy, &expense.TotalCents,
		&splitType, &participants, &expense.Description, &expense.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expense.SplitType = models.SplitType(splitType)
	if err := json.Unmarshal([]byte(participants), &expense.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	return expense, nil
}

// AppendSettlement persists the settlement and the global index update as
// one transaction. The delta is the negation of a debt: from paid to, so
// from owes to that much less. Nothing clamps at zero; over-settling
// flips the pair's sign.
func (s *SQLiteStore) AppendSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settlements (id, from_user_id, to_user_id, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		settlement.ID, settlement.FromUserID, settlement.ToUserID,
		settlement.AmountCents, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := applyPairDelta(ctx, tx, settlement.FromUserID, settlement.ToUserID, -settlement.AmountCents); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NetBalance returns the signed net amount between two users: positive
// means userA owes userB.
func (s *SQLiteStore) NetBalance(ctx context.Context, userA, userB string) (int64, error) {
	low, high, sign := pairKey(userA, userB)

	var amount int64
	err := s.db.QueryRowContext(ctx,
		"SELECT amount_cents FROM pair_balances WHERE low_user_id = ? AND high_user_id = ?",
		low, high,
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get pair balance: %w", err)
	}
	return sign * amount, nil
}

// UserBalances returns every nonzero balance involving the user, oriented
// so the amount is positive.
func (s *SQLiteStore) UserBalances(ctx context.Context, userID string) ([]models.BalanceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT low_user_id, high_user_id, amount_cents
		FROM pair_balances
		WHERE (low_user_id = ? OR high_user_id = ?) AND amount_cents != 0
		ORDER BY low_user_id, high_user_id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user balances: %w", err)
	}
	defer rows.Close()

	return collectBalanceRows(rows)
}

// GroupBalances returns every nonzero balance derived from the group's
// expenses, oriented so the amount is positive.
func (s *SQLiteStore) GroupBalances(ctx context.Context, groupID string) ([]models.BalanceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT low_user_id, high_user_id, amount_cents
		FROM group_pair_balances
		WHERE group_id = ? AND amount_cents != 0
		ORDER BY low_user_id, high_user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query group balances: %w", err)
	}
	defer rows.Close()

	return collectBalanceRows(rows)
}

// collectBalanceRows scans (low, high, signed amount) rows and orients each
// one into the owing direction.
func collectBalanceRows(rows *sql.Rows) ([]models.BalanceRow, error) {
	balances := []models.BalanceRow{}
	for rows.Next() {
		var low, high string
		var amount int64
		if err := rows.Scan(&low, &high, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		if amount > 0 {
			balances = append(balances, models.BalanceRow{FromUserID: low, ToUserID: high, AmountCents: amount})
		} else {
			balances = append(balances, models.BalanceRow{FromUserID: high, ToUserID: low, AmountCents: -amount})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

// RebuildBalanceIndex recomputes both index tables from the append-only
// logs. The logs are authoritative; this replaces whatever the incremental
// updates produced.
func (s *SQLiteStore) RebuildBalanceIndex(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"pair_balances", "group_pair_balances"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	entryRows, err := tx.QueryContext(ctx,
		"SELECT group_id, ower_id, payer_id, amount_cents FROM expense_entries ORDER BY seq",
	)
	if err != nil {
		return fmt.Errorf("failed to read expense entries: %w", err)
	}
	entries := []models.ExpenseEntry{}
	for entryRows.Next() {
		var e models.ExpenseEntry
		if err := entryRows.Scan(&e.GroupID, &e.OwerID, &e.PayerID, &e.AmountCents); err != nil {
			entryRows.Close()
			return fmt.Errorf("failed to scan expense entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := entryRows.Err(); err != nil {
		entryRows.Close()
		return fmt.Errorf("failed to iterate expense entries: %w", err)
	}
	entryRows.Close()

	for _, e := range entries {
		if err := applyPairDelta(ctx, tx, e.OwerID, e.PayerID, e.AmountCents); err != nil {
			return err
		}
		if err := applyGroupPairDelta(ctx, tx, e.GroupID, e.OwerID, e.PayerID, e.AmountCents); err != nil {
			return err
		}
	}

	settlementRows, err := tx.QueryContext(ctx,
		"SELECT from_user_id, to_user_id, amount_cents FROM settlements ORDER BY created_at, id",
	)
	if err != nil {
		return fmt.Errorf("failed to read settlements: %w", err)
	}
	type transfer struct {
		from, to string
		amount   int64
	}
	transfers := []transfer{}
	for settlementRows.Next() {
		var t transfer
		if err := settlementRows.Scan(&t.from, &t.to, &t.amount); err != nil {
			settlementRows.Close()
			return fmt.Errorf("failed to scan settlement: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := settlementRows.Err(); err != nil {
		settlementRows.Close()
		return fmt.Errorf("failed to iterate settlements: %w", err)
	}
	settlementRows.Close()

	for _, t := range transfers {
		if err := applyPairDelta(ctx, tx, t.from, t.to, -t.amount); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
