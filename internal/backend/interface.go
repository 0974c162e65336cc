// Package backend assembles the store and identity gateway pair for a
// configured backend type.
package backend

import (
	"context"

	"fintrack/internal/identity"
	"fintrack/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the assembled gateways and an optional cleanup.
type Result struct {
	Store    store.Store
	Identity identity.Provider
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// Managed store gateway (rest backend).
	StoreURL        string
	StoreAnonKey    string
	ServiceRoleKey  string
	OAuthRedirectTo string

	// Self-hosted backend.
	SQLiteDBPath string
}

type BackendType string

const (
	RESTBackend   BackendType = "rest"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case RESTBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
