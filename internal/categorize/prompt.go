package categorize

import (
	"fmt"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
)

const parsePrompt = `Extract the shopping list items from the following input.
Reply with JSON only, in the form:
{"items": [{"name": "...", "quantity": 1, "unit": "...", "notes": "..."}]}
Use the item name as written, without quantity or unit. Omit quantity when none is given.
Leave unit and notes empty when absent. Skip headings, prices and totals.`

// categorizePrompt lists the store layout with ids and asks for one choice.
func categorizePrompt(name string, tree model.LayoutTree) string {
	var b strings.Builder
	b.WriteString("You place grocery items in a store layout.\n")
	b.WriteString("Layout (aisle id: name, then section id: name):\n")
	for _, a := range tree.Aisles {
		fmt.Fprintf(&b, "- %s: %s\n", a.ID, a.Name)
		for _, s := range a.Sections {
			fmt.Fprintf(&b, "  - %s: %s\n", s.ID, s.Name)
		}
	}
	fmt.Fprintf(&b, "Item: %q\n", name)
	b.WriteString(`Reply with JSON only: {"aisle_id": "...", "section_id": "..."}.` + "\n")
	b.WriteString("Use only ids from the layout. Leave section_id empty when no section fits, and both empty when no aisle fits.\n")
	return b.String()
}
