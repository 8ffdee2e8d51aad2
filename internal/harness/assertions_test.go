package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartkeeper/internal/model"
)

func testResult() *Result {
	r := NewResult()
	r.record(OpImport, map[string]any{"items": "milk, eggs"}, map[string]any{"succeeded": 2})
	r.record(OpCheck, map[string]any{"item": "milk"}, map[string]any{"checked": true})
	r.record(OpCheck, map[string]any{"item": "eggs"}, map[string]any{"checked": true})

	r.state = &finalState{
		tree: model.LayoutTree{Aisles: []model.LayoutAisle{
			{ID: "a1", Name: "Dairy", Sections: []model.LayoutSection{{ID: "s1", Name: "Milk"}}},
		}},
		sections: 1,
		items: []model.Item{
			{ID: "i1", Name: "Milk", NameNorm: "milk", AisleID: model.Ptr("a1"), SectionID: model.Ptr("s1")},
			{ID: "i2", Name: "Eggs", NameNorm: "egg"},
		},
		entries: []model.ListItem{
			{ID: "l1", Name: "Milk", NameNorm: "milk", Qty: 2, Unit: "l", IsChecked: true,
				AisleNameSnap: model.Ptr("Dairy"), SectionNameSnap: model.Ptr("Milk")},
			{ID: "l2", Name: "Eggs", NameNorm: "egg", Qty: 1},
		},
		order: []string{"Eggs", "Milk"},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	checked := true
	qty := 2.0
	assertions := []Assertion{
		{Type: AssertTraceContains, Op: OpCheck, Args: map[string]any{"item": "eggs"}},
		{Type: AssertTraceCount, Op: OpCheck, Count: 2},
		{Type: AssertTraceCount, Op: OpDeleteItem, Count: 0},
		{Type: AssertListContains, Item: "milk", Qty: &qty, Unit: "l", Checked: &checked, Aisle: "dairy", Section: "Milk"},
		{Type: AssertListContains, Item: "egg", Aisle: none, Section: none},
		{Type: AssertListOrder, Items: []string{"eggs", "milk"}},
		{Type: AssertListOrder, Items: []string{"Milk"}},
		{Type: AssertItemPlaced, Item: "Milk", Aisle: "Dairy", Section: "Milk"},
		{Type: AssertItemPlaced, Item: "eggs", Aisle: none},
		{Type: AssertCount, Entity: "aisles", Count: 1},
		{Type: AssertCount, Entity: "sections", Count: 1},
		{Type: AssertCount, Entity: "items", Count: 2},
		{Type: AssertCount, Entity: "list_items", Count: 2},
	}
	assert.Empty(t, EvaluateAssertions(testResult(), assertions))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	unchecked := false
	tests := []struct {
		name       string
		assertion  Assertion
		wantActual string
	}{
		{"trace_args_differ", Assertion{Type: AssertTraceContains, Op: OpCheck, Args: map[string]any{"item": "bread"}}, "3 trace event(s) without a match"},
		{"trace_count", Assertion{Type: AssertTraceCount, Op: OpImport, Count: 2}, "1"},
		{"missing_entry", Assertion{Type: AssertListContains, Item: "bread"}, "no such entry"},
		{"checked_differs", Assertion{Type: AssertListContains, Item: "milk", Checked: &unchecked}, "checked true != false"},
		{"unexpected_aisle", Assertion{Type: AssertListContains, Item: "milk", Aisle: none}, `aisle "Dairy", want none`},
		{"missing_aisle", Assertion{Type: AssertListContains, Item: "eggs", Aisle: "Dairy"}, `no aisle, want "Dairy"`},
		{"order", Assertion{Type: AssertListOrder, Items: []string{"Milk", "Eggs"}}, "Eggs, Milk"},
		{"order_missing_entry", Assertion{Type: AssertListOrder, Items: []string{"Bread"}}, ""},
		{"missing_item", Assertion{Type: AssertItemPlaced, Item: "bread"}, "no such item"},
		{"item_section", Assertion{Type: AssertItemPlaced, Item: "milk", Section: none}, `section "Milk", want none`},
		{"count", Assertion{Type: AssertCount, Entity: "items", Count: 3}, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(testResult(), []Assertion{tt.assertion})
			require.Len(t, failures, 1)
			assert.Equal(t, tt.assertion.Type, failures[0].Type)
			assert.Equal(t, tt.wantActual, failures[0].Actual)
		})
	}
}

func TestEvaluateAssertions_NoState(t *testing.T) {
	r := NewResult()
	failures := EvaluateAssertions(r, []Assertion{
		{Type: AssertTraceCount, Op: OpImport, Count: 0},
		{Type: AssertCount, Entity: "items"},
	})
	require.Len(t, failures, 1)
	assert.Equal(t, "none captured", failures[0].Actual)
}

func TestAssertionError_Message(t *testing.T) {
	err := &AssertionError{Type: AssertCount, Expected: "3 items", Actual: "2"}
	assert.Equal(t, "count: expected 3 items, got 2", err.Error())
}

func TestSnapshot(t *testing.T) {
	r := NewResult()
	r.record(OpImport, map[string]any{"items": "milk"}, map[string]any{"succeeded": 1, "created": "Milk"})
	r.record(OpClearChecked, nil, map[string]any{})
	r.List = "Dairy\n  Milk\n    - [ ] Milk\n"

	want := "# snap\n" +
		"1 import items=\"milk\" => created=\"Milk\" succeeded=1\n" +
		"2 clear_checked\n" +
		"\n" +
		"Dairy\n  Milk\n    - [ ] Milk\n"
	assert.Equal(t, want, string(Snapshot("snap", r)))
}
