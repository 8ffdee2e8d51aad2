package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/model"
)

func TestCreateList_DefaultTitle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)

	l, err := s.CreateList(ctx, st.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultListTitle, l.Title)

	_, err = s.CreateList(ctx, "missing", "x")
	assert.True(t, IsNotFound(err))
}

func TestActiveList(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)

	first, err := s.ActiveList(ctx, st.ID)
	require.NoError(t, err)
	again, err := s.ActiveList(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	newer, err := s.CreateList(ctx, st.ID, "Party")
	require.NoError(t, err)
	active, err := s.ActiveList(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, active.ID, "newest uncompleted list wins")

	completed, err := s.CompleteList(ctx, newer.ID)
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	// Completing twice keeps the first completion time.
	again, err = s.CompleteList(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, completed.CompletedAt, again.CompletedAt)

	active, err = s.ActiveList(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	require.NoError(t, s.DeleteList(ctx, first.ID))
	created, err := s.ActiveList(ctx, st.ID)
	require.NoError(t, err)
	assert.NotContains(t, []string{first.ID, newer.ID}, created.ID)
	assert.False(t, created.Completed())
}

func TestUpdateList(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)

	l, err := s.CreateList(ctx, st.ID, "Weekly")
	require.NoError(t, err)

	l, err = s.UpdateList(ctx, l.ID, model.ListPatch{Title: model.Ptr("Monthly")})
	require.NoError(t, err)
	assert.Equal(t, "Monthly", l.Title)

	_, err = s.UpdateList(ctx, l.ID, model.ListPatch{Title: model.Ptr("")})
	assert.True(t, IsConstraintViolation(err))
}

func TestSaveListItem_InsertFromCatalog(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	milk, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Milk", SectionID: &l.milkSect.ID})
	require.NoError(t, err)
	list, err := s.ActiveList(ctx, l.store.ID)
	require.NoError(t, err)

	li, err := s.SaveListItem(ctx, model.ListItemInput{
		ListID:      list.ID,
		StoreItemID: &milk.ID,
		Qty:         2,
		Unit:        "l",
	})
	require.NoError(t, err)

	assert.Equal(t, "Milk", li.Name, "name comes from the catalog")
	assert.Equal(t, "milk", li.NameNorm)
	assert.Equal(t, l.store.ID, li.StoreID)
	assert.Equal(t, 2.0, li.Qty)
	assert.Equal(t, "l", li.Unit)
	assert.Equal(t, &l.dairy.ID, li.AisleID)
	assert.Equal(t, model.Ptr("Dairy"), li.AisleNameSnap)
	assert.Equal(t, model.Ptr(1), li.AisleSortSnap)
	assert.Equal(t, model.Ptr("Milk"), li.SectionNameSnap)
	assert.Equal(t, model.Ptr(0), li.SectionSortSnap)

	got, err := s.GetListItem(ctx, li.ID)
	require.NoError(t, err)
	assert.Equal(t, li.AisleNameSnap, got.AisleNameSnap)
	assert.Equal(t, li.SectionID, got.SectionID)

	touched, err := s.GetItem(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, touched.UsageCount)
}

func TestSaveListItem_SnapshotsAreFrozenUntilResave(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	apples, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Apples", SectionID: &l.fruit.ID})
	require.NoError(t, err)
	list, err := s.ActiveList(ctx, l.store.ID)
	require.NoError(t, err)
	li, err := s.SaveListItem(ctx, model.ListItemInput{ListID: list.ID, StoreItemID: &apples.ID, Qty: 1})
	require.NoError(t, err)

	_, err = s.UpdateAisle(ctx, l.produce.ID, model.AislePatch{Name: model.Ptr("Fresh")})
	require.NoError(t, err)
	_, err = s.UpdateItem(ctx, apples.ID, model.ItemPatch{Section: model.SetRef(l.veg.ID)})
	require.NoError(t, err)

	stale, err := s.GetListItem(ctx, li.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Ptr("Produce"), stale.AisleNameSnap)
	assert.Equal(t, model.Ptr("Fruit"), stale.SectionNameSnap)

	fresh, err := s.SaveListItem(ctx, model.ListItemInput{ID: li.ID, StoreItemID: &apples.ID, Qty: 3})
	require.NoError(t, err)
	assert.Equal(t, model.Ptr("Fresh"), fresh.AisleNameSnap)
	assert.Equal(t, model.Ptr("Vegetables"), fresh.SectionNameSnap)
	assert.Equal(t, 3.0, fresh.Qty)
	assert.Equal(t, li.CreatedAt, fresh.CreatedAt)

	after, err := s.GetItem(ctx, apples.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.UsageCount, "re-save does not count as a use")
}

func TestSaveListItem_DeletedCatalogItemKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := seedLayout(t, s)

	tea, err := s.CreateItem(ctx, model.NewItem{StoreID: l.store.ID, Name: "Tea", AisleID: &l.dairy.ID})
	require.NoError(t, err)
	list, err := s.ActiveList(ctx, l.store.ID)
	require.NoError(t, err)
	li, err := s.SaveListItem(ctx, model.ListItemInput{ListID: list.ID, StoreItemID: &tea.ID, Qty: 1})
	require.NoError(t, err)

	require.NoError(t, s.DeleteItem(ctx, tea.ID))

	got, err := s.SaveListItem(ctx, model.ListItemInput{ID: li.ID, StoreItemID: &tea.ID, Qty: 4})
	require.NoError(t, err)
	assert.Equal(t, "Tea", got.Name)
	assert.Equal(t, model.Ptr("Dairy"), got.AisleNameSnap)
	assert.Equal(t, 4.0, got.Qty)

	_, err = s.SaveListItem(ctx, model.ListItemInput{ListID: list.ID, StoreItemID: &tea.ID, Qty: 1})
	assert.True(t, IsNotFound(err), "new entries need a live catalog item")
}

func TestSaveListItem_FreeText(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)
	list, err := s.ActiveList(ctx, st.ID)
	require.NoError(t, err)

	li, err := s.SaveListItem(ctx, model.ListItemInput{ListID: list.ID, Name: "Birthday Candles", Qty: 0})
	require.NoError(t, err)
	assert.Nil(t, li.StoreItemID)
	assert.Nil(t, li.AisleID)
	assert.Equal(t, "birthday candle", li.NameNorm)
}

func TestSaveListItem_Validation(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)
	list, err := s.ActiveList(ctx, st.ID)
	require.NoError(t, err)

	other, err := s.CreateStore(ctx, "Other")
	require.NoError(t, err)
	foreign, err := s.CreateItem(ctx, model.NewItem{StoreID: other.ID, Name: "Foreign"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      model.ListItemInput
		wantErr func(error) bool
	}{
		{"negative qty", model.ListItemInput{ListID: list.ID, Name: "x", Qty: -1}, IsConstraintViolation},
		{"NaN qty", model.ListItemInput{ListID: list.ID, Name: "x", Qty: math.NaN()}, IsConstraintViolation},
		{"no name", model.ListItemInput{ListID: list.ID, Qty: 1}, IsConstraintViolation},
		{"missing list", model.ListItemInput{ListID: "missing", Name: "x", Qty: 1}, IsNotFound},
		{"missing entry", model.ListItemInput{ID: "missing", Name: "x", Qty: 1}, IsNotFound},
		{"foreign item", model.ListItemInput{ListID: list.ID, StoreItemID: &foreign.ID, Qty: 1}, IsConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveListItem(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, tt.wantErr(err), "unexpected error %v", err)
		})
	}

	items, err := s.ListListItems(ctx, list.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckAndClearListItems(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)
	list, err := s.ActiveList(ctx, st.ID)
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"Bread", "Jam", "Tea"} {
		li, err := s.SaveListItem(ctx, model.ListItemInput{ListID: list.ID, Name: name, Qty: 1})
		require.NoError(t, err)
		ids = append(ids, li.ID)
	}

	checked, err := s.SetListItemChecked(ctx, ids[0], true)
	require.NoError(t, err)
	assert.True(t, checked.IsChecked)
	require.NotNil(t, checked.CheckedAt)

	_, err = s.SetListItemChecked(ctx, ids[1], true)
	require.NoError(t, err)
	unchecked, err := s.SetListItemChecked(ctx, ids[1], false)
	require.NoError(t, err)
	assert.Nil(t, unchecked.CheckedAt)

	calls := countPublishes(t, s)
	again, err := s.SetListItemChecked(ctx, ids[0], true)
	require.NoError(t, err)
	require.NotNil(t, again.CheckedAt)
	assert.True(t, checked.CheckedAt.Equal(*again.CheckedAt), "re-checking keeps the original check time")
	_, err = s.SetListItemChecked(ctx, ids[2], false)
	require.NoError(t, err)
	assert.Equal(t, 0, *calls, "unchanged state must not publish")

	n, err := s.ClearCheckedListItems(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, *calls)

	items, err := s.ListListItems(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Jam", items[0].Name)
	assert.Equal(t, "Tea", items[1].Name)

	require.NoError(t, s.DeleteListItem(ctx, ids[2]))
	_, err = s.GetListItem(ctx, ids[2])
	assert.True(t, IsNotFound(err))
}

func TestDeleteList_CascadesToEntries(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	st := defaultStore(t, s)
	list, err := s.CreateList(ctx, st.ID, "Temp")
	require.NoError(t, err)
	li, err := s.SaveListItem(ctx, model.ListItemInput{ListID: list.ID, Name: "Ice", Qty: 1})
	require.NoError(t, err)

	require.NoError(t, s.DeleteList(ctx, list.ID))

	_, err = s.GetList(ctx, list.ID)
	assert.True(t, IsNotFound(err))
	_, err = s.GetListItem(ctx, li.ID)
	assert.True(t, IsNotFound(err))
}
