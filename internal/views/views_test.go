package views

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/store"
	"github.com/roach88/cartkeeper/internal/testutil"
)

type fixture struct {
	s    *store.Store
	st   model.Store
	list model.ShoppingList
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{DSN: store.MemoryDSN},
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithIDGenerator(testutil.NewSequentialIDs("id")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	stores, err := s.ListStores(ctx)
	require.NoError(t, err)
	list, err := s.ActiveList(ctx, stores[0].ID)
	require.NoError(t, err)
	return fixture{s: s, st: stores[0], list: list}
}

// seed builds a small layout and list:
//
//	Produce (0): Fruit (0), Vegetables (1)
//	Dairy (1):   Milk (0)
func seed(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	s := f.s

	produce, err := s.CreateAisle(ctx, model.NewAisle{StoreID: f.st.ID, Name: "Produce"})
	require.NoError(t, err)
	dairy, err := s.CreateAisle(ctx, model.NewAisle{StoreID: f.st.ID, Name: "Dairy"})
	require.NoError(t, err)
	fruit, err := s.CreateSection(ctx, model.NewSection{AisleID: produce.ID, Name: "Fruit"})
	require.NoError(t, err)
	veg, err := s.CreateSection(ctx, model.NewSection{AisleID: produce.ID, Name: "Vegetables"})
	require.NoError(t, err)
	milk, err := s.CreateSection(ctx, model.NewSection{AisleID: dairy.ID, Name: "Milk"})
	require.NoError(t, err)

	catalog := []model.NewItem{
		{Name: "Bananas", SectionID: &fruit.ID},
		{Name: "Apples", SectionID: &fruit.ID, IsFavorite: true},
		{Name: "Carrots", SectionID: &veg.ID},
		{Name: "Whole Milk", SectionID: &milk.ID},
		{Name: "Butter", AisleID: &dairy.ID},
		{Name: "Batteries"},
		{Name: "Gift Wrap", IsHidden: true},
	}
	entries := []model.ListItemInput{
		{Qty: 6},
		{Qty: 1, Notes: "green"},
		{Qty: 1},
		{Qty: 2, Unit: "l"},
		{Qty: 1},
		{Qty: 4},
	}
	for i, in := range catalog {
		in.StoreID = f.st.ID
		it, err := s.CreateItem(ctx, in)
		require.NoError(t, err)
		if i >= len(entries) {
			continue
		}
		e := entries[i]
		e.ListID, e.StoreItemID = f.list.ID, &it.ID
		li, err := s.SaveListItem(ctx, e)
		require.NoError(t, err)
		if it.Name == "Carrots" {
			_, err = s.SetListItemChecked(ctx, li.ID, true)
			require.NoError(t, err)
		}
	}
	_, err = s.SaveListItem(ctx, model.ListItemInput{ListID: f.list.ID, Name: "Candles", Qty: 0})
	require.NoError(t, err)
}

func TestListView_Golden(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	v := NewListView(f.s, f.s.Bus(), f.list.ID)
	defer v.Close()

	out, err := v.Render(context.Background())
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "list_view", []byte(out))
}

func TestCatalogView_Golden(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	v := NewCatalogView(f.s, f.s.Bus(), f.st.ID)
	defer v.Close()

	out, err := v.Render(context.Background())
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "catalog_view", []byte(out))
}

func TestListView_RefreshesAfterPublish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v := NewListView(f.s, f.s.Bus(), f.list.ID)
	defer v.Close()

	groups, err := v.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
	_, err = v.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Loads(), "second read is served from cache")

	_, err = f.s.SaveListItem(ctx, model.ListItemInput{ListID: f.list.ID, Name: "Tea", Qty: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Loads(), "publish invalidates without reloading")

	groups, err = v.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Loads())
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Len())
}

func TestListView_CloseStopsRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v := NewListView(f.s, f.s.Bus(), f.list.ID)
	_, err := v.Groups(ctx)
	require.NoError(t, err)
	v.Close()
	v.Close()

	_, err = f.s.SaveListItem(ctx, model.ListItemInput{ListID: f.list.ID, Name: "Tea", Qty: 1})
	require.NoError(t, err)

	groups, err := v.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups, "a closed view keeps its last value")
	assert.Equal(t, 0, f.s.Bus().Len())
}

func TestListView_SnapshotGrouping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	aisle, err := f.s.CreateAisle(ctx, model.NewAisle{StoreID: f.st.ID, Name: "Snacks"})
	require.NoError(t, err)
	chips, err := f.s.CreateItem(ctx, model.NewItem{StoreID: f.st.ID, Name: "Chips", AisleID: &aisle.ID})
	require.NoError(t, err)
	_, err = f.s.SaveListItem(ctx, model.ListItemInput{ListID: f.list.ID, StoreItemID: &chips.ID, Qty: 1})
	require.NoError(t, err)

	// Renaming the aisle does not move existing entries.
	_, err = f.s.UpdateAisle(ctx, aisle.ID, model.AislePatch{Name: model.Ptr("Chips & Dips")})
	require.NoError(t, err)

	v := NewListView(f.s, f.s.Bus(), f.list.ID)
	defer v.Close()
	groups, err := v.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Snacks", groups[0].Name)
}

func TestFormatListItem(t *testing.T) {
	tests := []struct {
		li   model.ListItem
		want string
	}{
		{model.ListItem{Name: "Milk", Qty: 1}, "[ ] Milk"},
		{model.ListItem{Name: "Milk", Qty: 2, Unit: "l"}, "[ ] Milk x2 l"},
		{model.ListItem{Name: "Flour", Qty: 1.5, Unit: "kg", IsChecked: true}, "[x] Flour x1.5 kg"},
		{model.ListItem{Name: "Eggs", Qty: 12, Notes: "free range"}, "[ ] Eggs x12 (free range)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatListItem(tt.li))
	}
}
