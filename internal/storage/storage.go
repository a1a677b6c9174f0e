// Package storage provides persistence for watched debate sessions.
package storage

import (
	"github.com/alienxp03/debatecast/internal/core"
)

// Storage defines the interface for session persistence.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Session operations
	SaveSession(rec *core.Record) error
	GetSession(id string) (*core.Record, error)
	DeleteSession(id string) error
	ListSessions(limit, offset int) ([]*core.RecordSummary, error)
	FindByPrefix(prefix string) (string, error)
}
