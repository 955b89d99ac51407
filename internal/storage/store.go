// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/nmehta6/splitledger/internal/models"
)

// Store defines the persistence interface for the ledger engine.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the engine.
//
// The expense and settlement logs are append-only and authoritative. The
// pair-balance index is a cache maintained inside the same transaction as
// each append, and must always be rebuildable from the logs alone.
type Store interface {
	// CreateUser persists a new user. ID and CreatedAt are populated by the
	// store when unset.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID. Returns nil, nil when not found.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// ListUsers returns all users ordered by name.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateGroup persists a new group with its member set.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID, including its member IDs.
	// Returns nil, nil when not found.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns all groups ordered by name.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// ListGroupMembers returns the member users of a group ordered by name.
	ListGroupMembers(ctx context.Context, groupID string) ([]*models.User, error)

	// AppendExpense atomically persists the expense, appends its derived
	// debt entries, and updates the balance indexes. Either everything
	// persists or nothing does.
	AppendExpense(ctx context.Context, expense *models.Expense, entries []models.ExpenseEntry) error

	// GetExpense retrieves a logged expense by ID, including its full
	// participant set. Returns nil, nil when not found.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// AppendSettlement atomically persists the settlement and updates the
	// global balance index.
	AppendSettlement(ctx context.Context, settlement *models.Settlement) error

	// NetBalance returns the signed net amount between two users:
	// positive means userA owes userB.
	NetBalance(ctx context.Context, userA, userB string) (int64, error)

	// UserBalances returns every nonzero balance involving the user,
	// oriented so the amount is positive (from owes to).
	UserBalances(ctx context.Context, userID string) ([]models.BalanceRow, error)

	// GroupBalances returns every nonzero balance derived from the group's
	// expenses, oriented so the amount is positive.
	GroupBalances(ctx context.Context, groupID string) ([]models.BalanceRow, error)

	// RebuildBalanceIndex recomputes the balance indexes from the two
	// append-only logs, replacing the incrementally maintained state.
	RebuildBalanceIndex(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
