package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// none marks an expected missing aisle or section.
const none = "-"

// EvaluateAssertions checks every assertion against a finished run and
// returns the failures in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []*AssertionError {
	var failures []*AssertionError
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) *AssertionError {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	}

	state := result.state
	if state == nil {
		return &AssertionError{Type: a.Type, Expected: "final state", Actual: "none captured"}
	}
	switch a.Type {
	case AssertListContains:
		return assertListContains(state, a)
	case AssertListOrder:
		return assertListOrder(state, a)
	case AssertItemPlaced:
		return assertItemPlaced(state, a)
	case AssertCount:
		return assertCount(state, a)
	}
	return &AssertionError{Type: a.Type, Expected: "known assertion type", Actual: a.Type}
}

// argsMatch reports whether every expected arg equals the event's, compared
// in printed form so YAML ints match recorded ints and strings alike.
func argsMatch(want, got map[string]any) bool {
	for k, v := range want {
		actual, ok := got[k]
		if !ok || fmt.Sprint(v) != fmt.Sprint(actual) {
			return false
		}
	}
	return true
}

func matching(trace []TraceEvent, a Assertion) int {
	n := 0
	for _, ev := range trace {
		if ev.Op == a.Op && argsMatch(a.Args, ev.Args) {
			n++
		}
	}
	return n
}

func describe(a Assertion) string {
	if len(a.Args) == 0 {
		return a.Op
	}
	return fmt.Sprintf("%s %v", a.Op, a.Args)
}

func assertTraceContains(trace []TraceEvent, a Assertion) *AssertionError {
	if matching(trace, a) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: describe(a),
		Actual:   fmt.Sprintf("%d trace event(s) without a match", len(trace)),
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) *AssertionError {
	if n := matching(trace, a); n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d x %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

func assertListContains(state *finalState, a Assertion) *AssertionError {
	norm := normalize.Name(a.Item)
	idx := slices.IndexFunc(state.entries, func(li model.ListItem) bool { return li.NameNorm == norm })
	if idx < 0 {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("entry %q", a.Item), Actual: "no such entry"}
	}
	li := state.entries[idx]

	var diffs []string
	if a.Qty != nil && *a.Qty != li.Qty {
		diffs = append(diffs, fmt.Sprintf("qty %v != %v", li.Qty, *a.Qty))
	}
	if a.Unit != "" && a.Unit != li.Unit {
		diffs = append(diffs, fmt.Sprintf("unit %q != %q", li.Unit, a.Unit))
	}
	if a.Checked != nil && *a.Checked != li.IsChecked {
		diffs = append(diffs, fmt.Sprintf("checked %v != %v", li.IsChecked, *a.Checked))
	}
	if d := placeDiff("aisle", a.Aisle, li.AisleNameSnap); d != "" {
		diffs = append(diffs, d)
	}
	if d := placeDiff("section", a.Section, li.SectionNameSnap); d != "" {
		diffs = append(diffs, d)
	}
	if len(diffs) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("entry %q as described", a.Item),
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

// placeDiff compares an expected aisle or section name with an actual one.
// An empty expectation is not checked; "-" expects no placement.
func placeDiff(field, want string, got *string) string {
	switch {
	case want == "":
		return ""
	case want == none && got == nil:
		return ""
	case want == none:
		return fmt.Sprintf("%s %q, want none", field, *got)
	case got == nil:
		return fmt.Sprintf("no %s, want %q", field, want)
	case !normalize.Equal(want, *got):
		return fmt.Sprintf("%s %q, want %q", field, *got, want)
	}
	return ""
}

func assertListOrder(state *finalState, a Assertion) *AssertionError {
	// Only the named entries are compared, in the order they render.
	var got []string
	for _, name := range state.order {
		if slices.ContainsFunc(a.Items, func(want string) bool { return normalize.Equal(want, name) }) {
			got = append(got, name)
		}
	}
	equal := len(got) == len(a.Items)
	for i := 0; equal && i < len(got); i++ {
		equal = normalize.Equal(got[i], a.Items[i])
	}
	if equal {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: strings.Join(a.Items, ", "),
		Actual:   strings.Join(got, ", "),
	}
}

func assertItemPlaced(state *finalState, a Assertion) *AssertionError {
	norm := normalize.Name(a.Item)
	idx := slices.IndexFunc(state.items, func(it model.Item) bool { return it.NameNorm == norm })
	if idx < 0 {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("catalog item %q", a.Item), Actual: "no such item"}
	}
	it := state.items[idx]

	var aisleName, sectionName *string
	if it.AisleID != nil {
		if la, ok := state.tree.Aisle(*it.AisleID); ok {
			aisleName = &la.Name
		}
	}
	if it.SectionID != nil {
		if _, ls, ok := state.tree.Section(*it.SectionID); ok {
			sectionName = &ls.Name
		}
	}

	var diffs []string
	if d := placeDiff("aisle", a.Aisle, aisleName); d != "" {
		diffs = append(diffs, d)
	}
	if d := placeDiff("section", a.Section, sectionName); d != "" {
		diffs = append(diffs, d)
	}
	if len(diffs) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("item %q placed as described", a.Item),
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

func assertCount(state *finalState, a Assertion) *AssertionError {
	var n int
	switch a.Entity {
	case "aisles":
		n = len(state.tree.Aisles)
	case "sections":
		n = state.sections
	case "items":
		n = len(state.items)
	case "list_items":
		n = len(state.entries)
	}
	if n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s", a.Count, a.Entity),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}
