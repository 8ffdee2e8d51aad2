// Package database selects a storage backend and owns the lifetime of the
// open store.
//
// The backend is chosen by configuration, never by sniffing the platform.
// A Manager is built once at startup and passed to whatever needs the store.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/cartkeeper/internal/store"
)

// Kind names a backend.
type Kind string

const (
	// KindSQLite is a durable SQLite file.
	KindSQLite Kind = "sqlite"

	// KindMemory is an ephemeral database that lives as long as the process.
	KindMemory Kind = "memory"

	// KindRemote is a network backend. Not implemented: it always reports
	// BACKEND_UNAVAILABLE.
	KindRemote Kind = "remote"
)

// Backend opens a store.
type Backend interface {
	Kind() Kind
	Open(ctx context.Context, opts ...store.Option) (*store.Store, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend Kind

	// Path is the SQLite file for KindSQLite.
	Path string

	// Driver is store.DriverCGO or store.DriverPureGo for KindSQLite.
	Driver string

	// Endpoint is the server address for KindRemote.
	Endpoint string
}

// New returns the backend named by cfg.Backend.
func New(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case KindSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite backend: path is required")
		}
		return &SQLiteBackend{Path: cfg.Path, Driver: cfg.Driver}, nil
	case KindMemory:
		return &MemoryBackend{}, nil
	case KindRemote:
		return &RemoteBackend{Endpoint: cfg.Endpoint}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s, %s or %s)", cfg.Backend, KindSQLite, KindMemory, KindRemote)
	}
}

// SQLiteBackend stores data in a SQLite file.
type SQLiteBackend struct {
	Path   string
	Driver string
}

// Kind implements Backend.
func (b *SQLiteBackend) Kind() Kind { return KindSQLite }

// Open creates the parent directory if needed and opens the file.
func (b *SQLiteBackend) Open(ctx context.Context, opts ...store.Option) (*store.Store, error) {
	if dir := filepath.Dir(b.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return store.Open(ctx, store.Config{Driver: b.Driver, DSN: b.Path}, opts...)
}

// MemoryBackend keeps data in an in-memory SQLite database on the pure Go
// driver. Data is lost when the store is closed.
type MemoryBackend struct{}

// Kind implements Backend.
func (b *MemoryBackend) Kind() Kind { return KindMemory }

// Open opens a fresh, empty database.
func (b *MemoryBackend) Open(ctx context.Context, opts ...store.Option) (*store.Store, error) {
	return store.Open(ctx, store.Config{Driver: store.DriverPureGo, DSN: store.MemoryDSN}, opts...)
}

// RemoteBackend is a placeholder for a network store.
type RemoteBackend struct {
	Endpoint string
}

// Kind implements Backend.
func (b *RemoteBackend) Kind() Kind { return KindRemote }

// Open always fails with BACKEND_UNAVAILABLE.
func (b *RemoteBackend) Open(context.Context, ...store.Option) (*store.Store, error) {
	return nil, store.BackendUnavailable(string(KindRemote))
}
