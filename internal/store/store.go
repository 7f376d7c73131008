// Package store persists the payment ledger: parent payment transactions
// and the per-provider transaction rows that settle them. Every state
// transition couples the provider row and the parent status inside one
// database transaction so a webhook can never partially apply.
package store

import "errors"

// ErrNotFound is returned when a ledger record does not exist.
var ErrNotFound = errors.New("record not found")
