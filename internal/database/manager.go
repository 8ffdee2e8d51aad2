package database

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/cartkeeper/internal/store"
)

// Manager opens the backend on first use and hands out the same store until
// Close.
type Manager struct {
	backend Backend
	opts    []store.Option
	logger  *slog.Logger

	mu sync.Mutex
	st *store.Store
}

// NewManager creates a manager for backend. opts are passed to every Open.
func NewManager(backend Backend, logger *slog.Logger, opts ...store.Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend: backend,
		opts:    append([]store.Option{store.WithLogger(logger)}, opts...),
		logger:  logger,
	}
}

// Backend returns the managed backend.
func (m *Manager) Backend() Backend {
	return m.backend
}

// Acquire returns the open store, opening it on the first call. Concurrent
// callers get the same store. A failed open is not cached.
func (m *Manager) Acquire(ctx context.Context) (*store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st != nil {
		return m.st, nil
	}
	st, err := m.backend.Open(ctx, m.opts...)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("store opened", "backend", m.backend.Kind())
	m.st = st
	return st, nil
}

// Reset clears every data table not named in keep and recreates the default
// store.
func (m *Manager) Reset(ctx context.Context, keep ...string) error {
	st, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	return st.Reset(ctx, keep...)
}

// Close closes the open store, if any. A later Acquire opens a new one.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st == nil {
		return nil
	}
	err := m.st.Close()
	m.st = nil
	return err
}
