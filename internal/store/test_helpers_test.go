package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/testutil"
)

// createTestStore opens a fresh file-backed store with a deterministic clock
// and sequential IDs.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequentialIDs("id")),
	}, opts...)
	s, err := Open(context.Background(), Config{DSN: path}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// defaultStore returns the store created by Open.
func defaultStore(t *testing.T, s *Store) model.Store {
	t.Helper()
	stores, err := s.ListStores(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, stores)
	return stores[0]
}

// testLayout is a store with two aisles and sections:
//
//	Produce (0): Fruit (0), Vegetables (1)
//	Dairy (1):   Milk (0)
type testLayout struct {
	store                model.Store
	produce, dairy       model.Aisle
	fruit, veg, milkSect model.Section
}

func seedLayout(t *testing.T, s *Store) testLayout {
	t.Helper()
	ctx := context.Background()
	l := testLayout{store: defaultStore(t, s)}

	var err error
	l.produce, err = s.CreateAisle(ctx, model.NewAisle{StoreID: l.store.ID, Name: "Produce"})
	require.NoError(t, err)
	l.dairy, err = s.CreateAisle(ctx, model.NewAisle{StoreID: l.store.ID, Name: "Dairy"})
	require.NoError(t, err)
	l.fruit, err = s.CreateSection(ctx, model.NewSection{AisleID: l.produce.ID, Name: "Fruit"})
	require.NoError(t, err)
	l.veg, err = s.CreateSection(ctx, model.NewSection{AisleID: l.produce.ID, Name: "Vegetables"})
	require.NoError(t, err)
	l.milkSect, err = s.CreateSection(ctx, model.NewSection{AisleID: l.dairy.ID, Name: "Milk"})
	require.NoError(t, err)
	return l
}

// countPublishes subscribes to the store's bus and returns a counter.
func countPublishes(t *testing.T, s *Store) *int {
	t.Helper()
	n := new(int)
	unsubscribe := s.Bus().Subscribe(func() error {
		*n++
		return nil
	})
	t.Cleanup(unsubscribe)
	return n
}
