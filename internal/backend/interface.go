package backend

import (
	"context"
	"time"

	"ledger/internal/ledger"
	"ledger/internal/store"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// BackendResult contains the account store, the optional notifier and a
// cleanup function. Notifier is nil when no event sink is configured.
type BackendResult struct {
	Store    store.AccountStore
	Notifier ledger.Notifier
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	AccountFile string

	// SQLite specific
	SQLiteDBPath string

	// Events, optional for every backend
	AMQPURL            string
	AMQPExchange       string
	AMQPQueue          string
	AMQPPublishTimeout time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
