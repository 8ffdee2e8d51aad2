package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/model"
)

func TestCreateSection_InheritsStore(t *testing.T) {
	l := seedLayout(t, createTestStore(t))

	assert.Equal(t, l.store.ID, l.fruit.StoreID)
	assert.Equal(t, l.produce.ID, l.fruit.AisleID)
	assert.Equal(t, 0, l.fruit.SortOrder)
	assert.Equal(t, 1, l.veg.SortOrder)
	assert.Equal(t, 0, l.milkSect.SortOrder, "sort order is per aisle")
}

func TestCreateSection_RequiresLiveAisle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	_, err := s.CreateSection(ctx, model.NewSection{AisleID: "missing", Name: "X"})
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.DeleteAisle(ctx, l.dairy.ID))
	_, err = s.CreateSection(ctx, model.NewSection{AisleID: l.dairy.ID, Name: "Cheese"})
	assert.True(t, IsNotFound(err))
}

func TestListSectionsByAisle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	sections, err := s.ListSectionsByAisle(ctx, l.produce.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Fruit", sections[0].Name)
	assert.Equal(t, "Vegetables", sections[1].Name)

	all, err := s.ListSections(ctx, l.store.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Milk", all[2].Name)
}

func TestUpdateSection_MoveAisle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	item, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Carrots", SectionID: &l.veg.ID})
	require.NoError(t, err)

	moved, err := s.UpdateSection(ctx, l.veg.ID, model.SectionPatch{AisleID: &l.dairy.ID})
	require.NoError(t, err)
	assert.Equal(t, l.dairy.ID, moved.AisleID)

	got, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, &l.dairy.ID, got.AisleID, "items follow their section")
	assert.Equal(t, &l.veg.ID, got.SectionID)
}

func TestUpdateSection_RejectsOtherStoreAisle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	other, err := s.CreateStore(ctx, "Other")
	require.NoError(t, err)
	foreign, err := s.CreateAisle(ctx, model.NewAisle{StoreID: other.ID, Name: "Foreign"})
	require.NoError(t, err)

	_, err = s.UpdateSection(ctx, l.fruit.ID, model.SectionPatch{AisleID: &foreign.ID})
	assert.True(t, IsConstraintViolation(err))

	got, err := s.GetSection(ctx, l.fruit.ID)
	require.NoError(t, err)
	assert.Equal(t, l.produce.ID, got.AisleID)
}

func TestDeleteSection_NullsItemSection(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	item, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Pears", SectionID: &l.fruit.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSection(ctx, l.fruit.ID))

	got, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, &l.produce.ID, got.AisleID, "aisle is kept")
	assert.Nil(t, got.SectionID)
}

func TestReorderSections_FailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	// Milk lives in another aisle, so it is not a sibling.
	err := s.ReorderSections(ctx, l.produce.ID, []model.SortUpdate{
		{ID: l.veg.ID, SortOrder: 0},
		{ID: l.milkSect.ID, SortOrder: 1},
	})
	assert.True(t, IsNotFound(err))

	sections, err := s.ListSectionsByAisle(ctx, l.produce.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fruit", sections[0].Name)
	assert.Equal(t, 1, sections[1].SortOrder)

	require.NoError(t, s.ReorderSections(ctx, l.produce.ID, []model.SortUpdate{
		{ID: l.veg.ID, SortOrder: 0},
		{ID: l.fruit.ID, SortOrder: 1},
	}))
	sections, err = s.ListSectionsByAisle(ctx, l.produce.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vegetables", sections[0].Name)
}
