package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/model"
)

func aisleNames(aisles []model.Aisle) []string {
	names := make([]string, len(aisles))
	for i, a := range aisles {
		names[i] = a.Name
	}
	return names
}

func TestCreateAisle_DefaultSortOrderAppends(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)

	a1, err := s.CreateAisle(ctx, model.NewAisle{StoreID: st.ID, Name: "Produce"})
	require.NoError(t, err)
	a2, err := s.CreateAisle(ctx, model.NewAisle{StoreID: st.ID, Name: "Dairy"})
	require.NoError(t, err)
	a3, err := s.CreateAisle(ctx, model.NewAisle{StoreID: st.ID, Name: "Frozen", SortOrder: model.Ptr(10)})
	require.NoError(t, err)
	a4, err := s.CreateAisle(ctx, model.NewAisle{StoreID: st.ID, Name: "Bakery"})
	require.NoError(t, err)

	assert.Equal(t, 0, a1.SortOrder)
	assert.Equal(t, 1, a2.SortOrder)
	assert.Equal(t, 10, a3.SortOrder)
	assert.Equal(t, 11, a4.SortOrder)
}

func TestCreateAisle_Validation(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)

	_, err := s.CreateAisle(ctx, model.NewAisle{StoreID: st.ID, Name: "   "})
	assert.True(t, IsConstraintViolation(err))

	_, err = s.CreateAisle(ctx, model.NewAisle{StoreID: "missing", Name: "Produce"})
	assert.True(t, IsNotFound(err))
}

func TestListAisles_OrderedBySortThenCreation(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)

	for _, in := range []model.NewAisle{
		{Name: "C", SortOrder: model.Ptr(2)},
		{Name: "A", SortOrder: model.Ptr(1)},
		{Name: "B", SortOrder: model.Ptr(1)},
		{Name: "Z", SortOrder: model.Ptr(-1)},
	} {
		in.StoreID = st.ID
		_, err := s.CreateAisle(ctx, in)
		require.NoError(t, err)
	}

	aisles, err := s.ListAisles(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "A", "B", "C"}, aisleNames(aisles))
}

func TestUpdateAisle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	updated, err := s.UpdateAisle(ctx, l.produce.ID, model.AislePatch{Name: model.Ptr("Fresh Produce")})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Produce", updated.Name)
	assert.Equal(t, l.produce.SortOrder, updated.SortOrder)
	assert.True(t, updated.UpdatedAt.After(l.produce.UpdatedAt))

	got, err := s.GetAisle(ctx, l.produce.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Produce", got.Name)

	_, err = s.UpdateAisle(ctx, l.produce.ID, model.AislePatch{Name: model.Ptr("")})
	assert.True(t, IsConstraintViolation(err))
}

func TestReorderAisles(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)
	calls := countPublishes(t, s)

	err := s.ReorderAisles(ctx, l.store.ID, []model.SortUpdate{
		{ID: l.dairy.ID, SortOrder: 0},
		{ID: l.produce.ID, SortOrder: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	aisles, err := s.ListAisles(ctx, l.store.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dairy", "Produce"}, aisleNames(aisles))
}

func TestReorderAisles_FailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)
	calls := countPublishes(t, s)

	// The first update is applied inside the transaction before the second
	// one fails.
	err := s.ReorderAisles(ctx, l.store.ID, []model.SortUpdate{
		{ID: l.dairy.ID, SortOrder: 0},
		{ID: "no-such-aisle", SortOrder: 1},
		{ID: l.produce.ID, SortOrder: 2},
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 0, *calls, "failed reorder must not publish")

	aisles, err := s.ListAisles(ctx, l.store.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Produce", "Dairy"}, aisleNames(aisles))
	assert.Equal(t, 0, aisles[0].SortOrder)
	assert.Equal(t, 1, aisles[1].SortOrder)
}

func TestReorderAisles_RejectsForeignAndDeleted(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	other, err := s.CreateStore(ctx, "Other")
	require.NoError(t, err)
	foreign, err := s.CreateAisle(ctx, model.NewAisle{StoreID: other.ID, Name: "Foreign"})
	require.NoError(t, err)

	err = s.ReorderAisles(ctx, l.store.ID, []model.SortUpdate{{ID: foreign.ID, SortOrder: 5}})
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.DeleteAisle(ctx, l.dairy.ID))
	err = s.ReorderAisles(ctx, l.store.ID, []model.SortUpdate{{ID: l.dairy.ID, SortOrder: 5}})
	assert.True(t, IsNotFound(err))

	err = s.ReorderAisles(ctx, l.store.ID, []model.SortUpdate{
		{ID: l.produce.ID, SortOrder: 1},
		{ID: l.produce.ID, SortOrder: 2},
	})
	assert.True(t, IsConstraintViolation(err))
}

func TestDeleteAisle_CascadesAndKeepsItems(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	apple, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Apples", SectionID: &l.fruit.ID})
	require.NoError(t, err)
	require.NotNil(t, apple.AisleID)
	kale, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Kale", AisleID: &l.produce.ID})
	require.NoError(t, err)
	milk, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Milk", SectionID: &l.milkSect.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAisle(ctx, l.produce.ID))

	_, err = s.GetAisle(ctx, l.produce.ID)
	assert.True(t, IsNotFound(err))
	_, err = s.GetSection(ctx, l.fruit.ID)
	assert.True(t, IsNotFound(err))
	_, err = s.GetSection(ctx, l.veg.ID)
	assert.True(t, IsNotFound(err))

	for _, id := range []string{apple.ID, kale.ID} {
		it, err := s.GetItem(ctx, id)
		require.NoError(t, err, "items survive aisle deletion")
		assert.Nil(t, it.AisleID)
		assert.Nil(t, it.SectionID)
	}

	// Other aisles are untouched.
	got, err := s.GetItem(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, &l.dairy.ID, got.AisleID)
	assert.Equal(t, &l.milkSect.ID, got.SectionID)

	sections, err := s.ListSections(ctx, l.store.ID)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Milk", sections[0].Name)

	assert.True(t, IsNotFound(s.DeleteAisle(ctx, l.produce.ID)))
}

func TestLayoutTree(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)
	_, err := s.CreateAisle(ctx, model.NewAisle{StoreID: l.store.ID, Name: "Bakery"})
	require.NoError(t, err)

	tree, err := s.LayoutTree(ctx, l.store.ID)
	require.NoError(t, err)
	require.Len(t, tree.Aisles, 3)
	assert.Equal(t, "Produce", tree.Aisles[0].Name)
	assert.Equal(t, []model.LayoutSection{
		{ID: l.fruit.ID, Name: "Fruit", SortOrder: 0},
		{ID: l.veg.ID, Name: "Vegetables", SortOrder: 1},
	}, tree.Aisles[0].Sections)
	assert.Len(t, tree.Aisles[1].Sections, 1)
	assert.NotNil(t, tree.Aisles[2].Sections)
	assert.Empty(t, tree.Aisles[2].Sections)

	_, err = s.LayoutTree(ctx, "missing")
	assert.True(t, IsNotFound(err))
}
