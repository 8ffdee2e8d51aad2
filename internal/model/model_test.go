package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTree = LayoutTree{
	StoreID: "s1",
	Aisles: []LayoutAisle{
		{ID: "a1", Name: "Produce", Sections: []LayoutSection{
			{ID: "s-fruit", Name: "Fruit"},
			{ID: "s-veg", Name: "Vegetables", SortOrder: 1},
		}},
		{ID: "a2", Name: "Dairy", SortOrder: 1, Sections: []LayoutSection{
			{ID: "s-milk", Name: "Milk"},
		}},
		{ID: "a3", Name: "Bakery", SortOrder: 2},
	},
}

func TestLayoutTree_Resolve(t *testing.T) {
	tests := []struct {
		name        string
		in          Suggestion
		wantAisle   string
		wantSection string
	}{
		{"empty", Suggestion{}, "", ""},
		{"aisle_and_section", Suggestion{AisleID: "a2", SectionID: "s-milk"}, "a2", "s-milk"},
		{"aisle_only", Suggestion{AisleID: "a3"}, "a3", ""},
		{"section_implies_aisle", Suggestion{SectionID: "s-veg"}, "a1", "s-veg"},
		{"unknown_aisle_discards_all", Suggestion{AisleID: "gone", SectionID: "s-milk"}, "", ""},
		{"section_in_other_aisle_dropped", Suggestion{AisleID: "a1", SectionID: "s-milk"}, "a1", ""},
		{"unknown_section_dropped", Suggestion{AisleID: "a2", SectionID: "gone"}, "a2", ""},
		{"unknown_section_alone", Suggestion{SectionID: "gone"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aisle, section := testTree.Resolve(tt.in)
			assert.Equal(t, tt.wantAisle, aisle)
			assert.Equal(t, tt.wantSection, section)
		})
	}
}

func TestLayoutTree_Lookup(t *testing.T) {
	a, ok := testTree.Aisle("a2")
	require.True(t, ok)
	assert.Equal(t, "Dairy", a.Name)

	_, ok = testTree.Aisle("nope")
	assert.False(t, ok)

	a, s, ok := testTree.Section("s-veg")
	require.True(t, ok)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "Vegetables", s.Name)

	_, _, ok = testTree.Section("nope")
	assert.False(t, ok)
}

func TestPositions(t *testing.T) {
	got := Positions([]string{"c", "a", "b"})
	want := []SortUpdate{{ID: "c", SortOrder: 0}, {ID: "a", SortOrder: 1}, {ID: "b", SortOrder: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Positions mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Positions(nil))
}

func TestRefUpdate(t *testing.T) {
	var zero RefUpdate
	assert.False(t, zero.Set)

	cleared := ClearRef()
	assert.True(t, cleared.Set)
	assert.Nil(t, cleared.ID)

	set := SetRef("a1")
	assert.True(t, set.Set)
	require.NotNil(t, set.ID)
	assert.Equal(t, "a1", *set.ID)

	assert.Equal(t, ClearRef(), SetRef(""))
}

func TestTimestampsAndCompletion(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, Timestamps{}.Deleted())
	assert.True(t, Timestamps{DeletedAt: &now}.Deleted())

	assert.False(t, ShoppingList{}.Completed())
	assert.True(t, ShoppingList{CompletedAt: &now}.Completed())
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	first := g.NewID()
	second := g.NewID()

	id, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, first, second)
}
