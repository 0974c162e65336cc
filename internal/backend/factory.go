package backend

import (
	"context"
	"fmt"

	"fintrack/internal/identity/gotrue"
	"fintrack/internal/identity/local"
	idmem "fintrack/internal/identity/memory"
	"fintrack/internal/log"
	storemem "fintrack/internal/store/memory"
	"fintrack/internal/store/rest"
	"fintrack/internal/store/sqlite"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RESTBackend:
		return f.createRESTBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createRESTBackend wires the managed store and identity gateways.
// Both speak to the same base URL with the same anon key; the service
// role key unlocks the privileged user lookup.
func (f *DefaultFactory) createRESTBackend(config Config) (*Result, error) {
	st := rest.New(config.StoreURL, config.StoreAnonKey, f.logger)
	id := gotrue.New(config.StoreURL, config.StoreAnonKey, config.ServiceRoleKey)

	f.logger.Info("Remote gateway backend initialized", log.FieldBackend, RESTBackend.String())
	return &Result{
		Store:    st,
		Identity: id,
		Cleanup:  func() error { return nil },
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	f.logger.Info("SQLite backend initialized",
		log.FieldBackend, SQLiteBackend.String(),
		"db_path", config.SQLiteDBPath)
	return &Result{
		Store:    repo,
		Identity: local.New(repo.DB()),
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(_ Config) (*Result, error) {
	f.logger.Info("Memory backend initialized", log.FieldBackend, MemoryBackend.String())
	return &Result{
		Store:    storemem.New(),
		Identity: idmem.New(),
		Cleanup:  func() error { return nil },
	}, nil
}
