package backend

import (
	"context"

	"expensetracker/internal/repository"
	"expensetracker/internal/services"
)

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// Result is a ready-to-use transaction service and the store behind it.
type Result struct {
	Store   repository.Store
	Service *services.TransactionService
	Cleanup CleanupFunc
}

// Factory builds backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Empty AMQPURL disables change events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
