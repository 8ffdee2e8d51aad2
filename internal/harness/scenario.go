package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one end-to-end shopping test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Layout is the store's aisles in walking order.
	Layout []LayoutAisle `yaml:"layout,omitempty"`

	// Catalog items exist before the first step.
	Catalog []CatalogItem `yaml:"catalog,omitempty"`

	// Categorize maps item names to "Aisle" or "Aisle/Section". When set it
	// replaces name matching for imports.
	Categorize map[string]string `yaml:"categorize,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// LayoutAisle is an aisle and its sections in order.
type LayoutAisle struct {
	Name     string   `yaml:"name"`
	Sections []string `yaml:"sections,omitempty"`
}

// CatalogItem is an item seeded into the catalog.
type CatalogItem struct {
	Name    string `yaml:"name"`
	Aisle   string `yaml:"aisle,omitempty"`
	Section string `yaml:"section,omitempty"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op      string   `yaml:"op"`
	Text    string   `yaml:"text,omitempty"`
	Item    string   `yaml:"item,omitempty"`
	Aisle   string   `yaml:"aisle,omitempty"`
	Section string   `yaml:"section,omitempty"`
	Aisles  []string `yaml:"aisles,omitempty"`

	// Expect checks an import's counts. Only the fields given are checked.
	Expect *ImportExpect `yaml:"expect,omitempty"`

	// Error expects the step to fail with a store error of this code
	// (NOT_FOUND, CONSTRAINT_VIOLATION).
	Error string `yaml:"error,omitempty"`
}

// ImportExpect holds expected import counts.
type ImportExpect struct {
	Succeeded   *int `yaml:"succeeded,omitempty"`
	Failed      *int `yaml:"failed,omitempty"`
	Created     *int `yaml:"created,omitempty"`
	Categorized *int `yaml:"categorized,omitempty"`
}

// Step operations.
const (
	OpImport        = "import"
	OpAddItem       = "add_item"
	OpMoveItem      = "move_item"
	OpCheck         = "check"
	OpUncheck       = "uncheck"
	OpClearChecked  = "clear_checked"
	OpCompleteList  = "complete_list"
	OpReorderAisles = "reorder_aisles"
	OpDeleteAisle   = "delete_aisle"
	OpDeleteSection = "delete_section"
	OpDeleteItem    = "delete_item"
)

// Assertion validates the trace or final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Op and Args select trace events (trace_contains, trace_count).
	Op   string         `yaml:"op,omitempty"`
	Args map[string]any `yaml:"args,omitempty"`

	// Item, Aisle and Section identify what list_contains and item_placed
	// check. An aisle or section of "-" means none.
	Item    string   `yaml:"item,omitempty"`
	Aisle   string   `yaml:"aisle,omitempty"`
	Section string   `yaml:"section,omitempty"`
	Qty     *float64 `yaml:"qty,omitempty"`
	Unit    string   `yaml:"unit,omitempty"`
	Checked *bool    `yaml:"checked,omitempty"`

	// Items is the expected entry order (list_order).
	Items []string `yaml:"items,omitempty"`

	// Entity and Count are used by count; Count also by trace_count.
	Entity string `yaml:"entity,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertListContains  = "list_contains"
	AssertListOrder     = "list_order"
	AssertItemPlaced    = "item_placed"
	AssertCount         = "count"
)

var countEntities = []string{"aisles", "sections", "items", "list_items"}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Layout {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("layout[%d]: name is required", i)
		}
	}
	for i, it := range s.Catalog {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("catalog[%d]: name is required", i)
		}
		if it.Section != "" && it.Aisle == "" {
			return fmt.Errorf("catalog[%d]: section %q needs an aisle", i, it.Section)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("steps[%d]: %s is required for %s", index, field, s.Op)
		}
		return nil
	}

	switch s.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpImport:
		if err := need("text", strings.TrimSpace(s.Text)); err != nil {
			return err
		}
	case OpAddItem, OpMoveItem, OpCheck, OpUncheck, OpDeleteItem:
		if err := need("item", s.Item); err != nil {
			return err
		}
	case OpDeleteAisle:
		if err := need("aisle", s.Aisle); err != nil {
			return err
		}
	case OpDeleteSection:
		if err := need("aisle", s.Aisle); err != nil {
			return err
		}
		if err := need("section", s.Section); err != nil {
			return err
		}
	case OpReorderAisles:
		if len(s.Aisles) == 0 {
			return fmt.Errorf("steps[%d]: aisles list is required for %s", index, s.Op)
		}
	case OpClearChecked, OpCompleteList:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.Expect != nil && s.Op != OpImport {
		return fmt.Errorf("steps[%d]: expect only applies to %s", index, OpImport)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertListContains, AssertItemPlaced:
		if a.Item == "" {
			return fmt.Errorf("assertions[%d]: item is required for %s", index, a.Type)
		}
	case AssertListOrder:
		if len(a.Items) == 0 {
			return fmt.Errorf("assertions[%d]: items list is required for list_order", index)
		}
	case AssertCount:
		found := false
		for _, e := range countEntities {
			if a.Entity == e {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("assertions[%d]: entity must be one of %s", index, strings.Join(countEntities, ", "))
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
