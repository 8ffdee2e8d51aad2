package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/notify"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(context.Background(), Config{DSN: path})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	var firstID string
	for i := 0; i < 3; i++ {
		s, err := Open(ctx, Config{DSN: path})
		require.NoError(t, err, "Open() iteration %d", i)

		stores, err := s.ListStores(ctx)
		require.NoError(t, err)
		require.Len(t, stores, 1, "reopening must not add stores")
		if firstID == "" {
			firstID = stores[0].ID
		}
		assert.Equal(t, firstID, stores[0].ID)

		v, err := SchemaVersion(ctx, s.DB())
		require.NoError(t, err)
		assert.Equal(t, currentSchemaVersion, v)
		require.NoError(t, s.Close())
	}
}

func TestOpen_CreatesDefaultStore(t *testing.T) {
	s := createTestStore(t)

	st := defaultStore(t, s)
	assert.Equal(t, DefaultStoreName, st.Name)
	assert.Equal(t, "id-0001", st.ID)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.expected))
		})
	}
}

func TestOpen_Memory(t *testing.T) {
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, Config{Driver: driver, DSN: MemoryDSN})
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.verifyPragma("foreign_keys", "1"))

			st := defaultStore(t, s)
			_, err = s.CreateList(ctx, st.ID, "Weekly")
			require.NoError(t, err)

			// The single pinned connection keeps the database alive.
			lists, err := s.ListLists(ctx, st.ID)
			require.NoError(t, err)
			assert.Len(t, lists, 1)
		})
	}
}

func TestOpen_PureGoDriverFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "purego.db")

	s, err := Open(ctx, Config{Driver: DriverPureGo, DSN: path})
	require.NoError(t, err)
	st := defaultStore(t, s)
	require.NoError(t, s.Close())

	// A file written by one driver opens with the other.
	s2, err := Open(ctx, Config{Driver: DriverCGO, DSN: path})
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, st.ID, defaultStore(t, s2).ID)
}

func TestOpen_SharedBus(t *testing.T) {
	bus := notify.NewBus(nil)
	s := createTestStore(t, WithBus(bus))
	assert.Same(t, bus, s.Bus())

	calls := countPublishes(t, s)
	_, err := s.CreateStore(context.Background(), "Corner Shop")
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
}

func TestClose_Nil(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}
