// Package harness runs shopping scenarios end to end against a fresh
// in-memory store and checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: weekly_shop
//	description: "Imported items land in store order"
//	layout:
//	  - name: Produce
//	    sections: [Fruit, Vegetables]
//	  - name: Dairy
//	    sections: [Milk]
//	catalog:
//	  - name: Bananas
//	    aisle: Produce
//	    section: Fruit
//	categorize:
//	  skim milk: Dairy/Milk
//	steps:
//	  - op: import
//	    text: |
//	      2 bananas
//	      skim milk
//	    expect: {succeeded: 2, created: 1}
//	  - op: check
//	    item: skim milk
//	assertions:
//	  - type: list_contains
//	    item: skim milk
//	    checked: true
//	    aisle: Dairy
//
// Without a categorize map, new items are placed by matching their names
// against the layout (categorize.Names).
//
// # Step Operations
//
//   - import: parse text with the text parser and import it onto the active list
//   - add_item: add a catalog item, optionally placed
//   - move_item: move a catalog item to another aisle and section
//   - check, uncheck: toggle a list entry by name
//   - clear_checked: remove checked entries from the active list
//   - complete_list: complete the active list
//   - reorder_aisles: set the aisle walking order by name
//   - delete_aisle, delete_section, delete_item: delete by name
//
// # Assertion Types
//
//   - trace_contains: an operation ran, optionally with matching args
//   - trace_count: an operation ran exactly N times
//   - list_contains: the active list has an entry, with optional qty, unit,
//     checked state and aisle/section snapshot
//   - list_order: the active list renders these entries in this order
//   - item_placed: a catalog item's current aisle and section
//   - count: number of aisles, sections, items or list_items
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory database, testutil.DeterministicClock and
// testutil.SequentialIDs, so traces and rendered lists are byte-identical
// across runs and can be compared with golden files.
package harness
