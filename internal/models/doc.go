// Package models defines the core domain models for the ledger engine.
//
// # Immutability
//
// Expenses and Settlements are append-only facts: once recorded they are
// never edited or deleted. Corrections happen by recording new expenses or
// settlements. Balances are never stored as mutable rows — they are derived
// on demand from the two append-only logs (expense-derived entries and
// settlements), with an incrementally maintained index acting purely as a
// cache of that derivation.
//
// # Money
//
// All amounts inside the engine are integer cents (the minimum currency
// unit). Decimal numbers exist only at the JSON boundary; see the money
// package for the conversion rules. This keeps split arithmetic exact and
// free of floating-point drift.
//
// # Identity
//
// Users and Groups are created once and referenced by UUID strings
// everywhere else. Group membership is fixed at creation.
package models
