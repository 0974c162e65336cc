package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"fintrack/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestFromAppConfigRejectsUnknownBackend(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should be rejected")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory needs nothing", Config{Type: MemoryBackend}, false},
		{"rest needs url", Config{Type: RESTBackend, StoreAnonKey: "key"}, true},
		{"rest needs key", Config{Type: RESTBackend, StoreURL: "https://store.example.com"}, true},
		{"rest complete", Config{Type: RESTBackend, StoreURL: "https://store.example.com", StoreAnonKey: "key"}, false},
		{"sqlite needs path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "oracle"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	f := NewFactory(testLogger())
	result, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Store == nil || result.Identity == nil {
		t.Fatal("memory backend missing gateways")
	}
	if err := result.Cleanup(); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(testLogger())
	dbPath := filepath.Join(t.TempDir(), "fintrack.db")

	result, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer result.Cleanup()

	if result.Store == nil || result.Identity == nil {
		t.Fatal("sqlite backend missing gateways")
	}
}
