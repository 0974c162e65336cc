package backend

import (
	"fmt"

	"fintrack/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		StoreURL:        appConfig.StoreURL,
		StoreAnonKey:    appConfig.StoreAnonKey,
		ServiceRoleKey:  appConfig.ServiceRoleKey,
		OAuthRedirectTo: appConfig.OAuthRedirectTo,

		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case RESTBackend:
		if c.StoreURL == "" {
			return fmt.Errorf("store URL is required for the rest backend")
		}
		if c.StoreAnonKey == "" {
			return fmt.Errorf("store anon key is required for the rest backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for the sqlite backend")
		}
	case MemoryBackend:
		// Nothing to check.
	}

	return nil
}
