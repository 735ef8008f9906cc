package store

import (
	"context"
	"errors"

	"ledger/internal/core"
)

var (
	// ErrAccountNotFound means nothing has been persisted yet.
	ErrAccountNotFound = errors.New("account not found")
	// ErrCorruptAccount means persisted state exists but cannot be used.
	ErrCorruptAccount = errors.New("corrupt account record")
)

// Ports for account persistence adapters.
type (
	AccountLoader interface {
		// Load returns the persisted account, ErrAccountNotFound when
		// nothing is stored yet, or another error when the stored record
		// cannot be read.
		Load(ctx context.Context) (core.Account, error)
	}

	AccountSaver interface {
		// Save replaces the persisted account wholesale.
		Save(ctx context.Context, a core.Account) error
	}

	AccountStore interface {
		AccountLoader
		AccountSaver
	}
)
