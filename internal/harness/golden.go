package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario, fails the test on any failed expectation
// or assertion, and compares the trace and final list against
// testdata/golden/<name>.golden.
//
// Run with -update to regenerate golden files.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, e)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result))
	return result
}

// Snapshot renders a result as stable text: one line per trace event with
// keys sorted, then the final list.
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", name)
	for _, ev := range result.Trace {
		fmt.Fprintf(&b, "%d %s", ev.Seq, ev.Op)
		if len(ev.Args) > 0 {
			fmt.Fprintf(&b, " %s", fields(ev.Args))
		}
		if len(ev.Outcome) > 0 {
			fmt.Fprintf(&b, " => %s", fields(ev.Outcome))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(result.List)
	return []byte(b.String())
}

func fields(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		if s, ok := m[k].(string); ok {
			parts[i] = fmt.Sprintf("%s=%q", k, s)
		} else {
			parts[i] = fmt.Sprintf("%s=%v", k, m[k])
		}
	}
	return strings.Join(parts, " ")
}
