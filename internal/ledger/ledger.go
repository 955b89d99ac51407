// Package ledger implements the expense-splitting ledger engine: split
// calculation, expense and settlement recording, and balance queries over
// the append-only logs kept by the storage layer.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nmehta6/splitledger/internal/models"
	"github.com/nmehta6/splitledger/internal/storage"
)

// Engine is the facade the transport layer talks to. It validates requests,
// computes splits, and delegates persistence to the store. The engine holds
// no mutable state of its own; write serialization and read consistency are
// the store's transaction boundary.
type Engine struct {
	store storage.Store
}

// New creates an Engine backed by the given store.
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// ExpenseInput carries an expense-creation request in engine units (cents).
type ExpenseInput struct {
	ExpenseID    string
	GroupID      string
	PaidBy       string
	TotalCents   int64
	SplitType    models.SplitType
	Participants []string
	Shares       []SplitShare
	Description  string
}

// CreateExpense validates the request, computes the per-participant splits,
// and appends the expense with its debt entries as one atomic write.
// All validation happens before any mutation.
func (e *Engine) CreateExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error) {
	if input.PaidBy == "" {
		return nil, fmt.Errorf("%w: paid_by must be provided", ErrInvalidMembership)
	}

	group, err := e.store.GetGroup(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, input.GroupID)
	}
	if !group.HasMember(input.PaidBy) {
		return nil, fmt.Errorf("%w: payer %s is not in group %s", ErrInvalidMembership, input.PaidBy, group.ID)
	}
	seen := make(map[string]bool, len(input.Participants))
	for _, id := range input.Participants {
		if !group.HasMember(id) {
			return nil, fmt.Errorf("%w: participant %s is not in group %s", ErrInvalidMembership, id, group.ID)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate participant %s", ErrInvalidSplit, id)
		}
		seen[id] = true
	}

	splits, err := ComputeSplits(input.TotalCents, input.SplitType, input.Participants, input.Shares)
	if err != nil {
		return nil, err
	}

	// Assign the id here so the debt entries built below reference it.
	expenseID := input.ExpenseID
	if expenseID == "" {
		expenseID = uuid.New().String()
	}

	expense := &models.Expense{
		ID:           expenseID,
		GroupID:      input.GroupID,
		PaidBy:       input.PaidBy,
		TotalCents:   input.TotalCents,
		SplitType:    input.SplitType,
		Participants: input.Participants,
		Description:  input.Description,
	}

	// One entry per participant except the payer; the payer owes themself
	// nothing for their own share.
	entries := make([]models.ExpenseEntry, 0, len(splits))
	for _, ower := range sortedIDs(input.Participants) {
		if ower == input.PaidBy {
			continue
		}
		entries = append(entries, models.ExpenseEntry{
			ExpenseID:   expense.ID,
			GroupID:     expense.GroupID,
			OwerID:      ower,
			PayerID:     expense.PaidBy,
			AmountCents: splits[ower],
		})
	}

	if err := e.store.AppendExpense(ctx, expense, entries); err != nil {
		return nil, err
	}

	slog.Info("expense recorded",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"paid_by", expense.PaidBy,
		"total_cents", expense.TotalCents,
		"split_type", expense.SplitType,
		"entries", len(entries),
	)
	return expense, nil
}

// Expense returns a recorded expense, including its full participant set.
func (e *Engine) Expense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := e.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: expense %s", ErrNotFound, expenseID)
	}
	return expense, nil
}

// Settle validates and records a payment from one user to another. The
// outstanding balance is not consulted: a settlement larger than the debt
// flips the direction rather than being rejected, since balances are
// derived state.
func (e *Engine) Settle(ctx context.Context, fromUserID, toUserID string, amountCents int64) (*models.Settlement, error) {
	if fromUserID == "" || toUserID == "" {
		return nil, fmt.Errorf("%w: both user IDs must be provided", ErrInvalidSettlement)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot settle with self", ErrInvalidSettlement)
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidSettlement)
	}
	for _, id := range []string{fromUserID, toUserID} {
		user, err := e.store.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
	}

	settlement := &models.Settlement{
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		AmountCents: amountCents,
	}
	if err := e.store.AppendSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	slog.Info("settlement recorded",
		"settlement_id", settlement.ID,
		"from_user_id", fromUserID,
		"to_user_id", toUserID,
		"amount_cents", amountCents,
	)
	return settlement, nil
}

// NetBalance returns the signed net amount between two users: positive
// means userA owes userB.
func (e *Engine) NetBalance(ctx context.Context, userA, userB string) (int64, error) {
	return e.store.NetBalance(ctx, userA, userB)
}

// UserBalances returns every nonzero balance involving the user.
func (e *Engine) UserBalances(ctx context.Context, userID string) ([]models.BalanceRow, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return e.store.UserBalances(ctx, userID)
}

// GroupBalances returns every nonzero balance derived from the group's
// expenses.
func (e *Engine) GroupBalances(ctx context.Context, groupID string) ([]models.BalanceRow, error) {
	if err := e.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return e.store.GroupBalances(ctx, groupID)
}

// CreateUser records a new user.
func (e *Engine) CreateUser(ctx context.Context, name string) (*models.User, error) {
	user := &models.User{Name: name}
	if err := e.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user created", "user_id", user.ID, "name", user.Name)
	return user, nil
}

// CreateGroup records a new group. Every member must already exist.
func (e *Engine) CreateGroup(ctx context.Context, name string, members []string) (*models.Group, error) {
	for _, id := range members {
		user, err := e.store.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
	}

	group := &models.Group{Name: name, Members: members}
	if err := e.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	slog.Info("group created", "group_id", group.ID, "name", group.Name, "members", len(members))
	return group, nil
}

// Users lists all users.
func (e *Engine) Users(ctx context.Context) ([]*models.User, error) {
	return e.store.ListUsers(ctx)
}

// Groups lists all groups.
func (e *Engine) Groups(ctx context.Context) ([]*models.Group, error) {
	return e.store.ListGroups(ctx)
}

// GroupMembers lists the members of a group.
func (e *Engine) GroupMembers(ctx context.Context, groupID string) ([]*models.User, error) {
	if err := e.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return e.store.ListGroupMembers(ctx, groupID)
}

func (e *Engine) requireGroup(ctx context.Context, groupID string) error {
	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}
	return nil
}
