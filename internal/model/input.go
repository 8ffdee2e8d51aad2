package model

// RefUpdate changes a nullable reference.
// The zero value leaves the reference untouched.
type RefUpdate struct {
	Set bool
	ID  *string
}

// SetRef points a reference at id. An empty id clears it.
func SetRef(id string) RefUpdate {
	if id == "" {
		return ClearRef()
	}
	return RefUpdate{Set: true, ID: &id}
}

// ClearRef nulls a reference.
func ClearRef() RefUpdate {
	return RefUpdate{Set: true}
}

// SortUpdate assigns a position to one sibling during a reorder.
type SortUpdate struct {
	ID        string `json:"id" yaml:"id"`
	SortOrder int    `json:"sort_order" yaml:"sort_order"`
}

// Positions assigns consecutive sort orders from 0 to ids in the given order.
func Positions(ids []string) []SortUpdate {
	updates := make([]SortUpdate, len(ids))
	for i, id := range ids {
		updates[i] = SortUpdate{ID: id, SortOrder: i}
	}
	return updates
}

// NewAisle describes an aisle to create. A nil SortOrder appends the aisle
// after the store's current last aisle.
type NewAisle struct {
	StoreID   string
	Name      string
	SortOrder *int
}

// AislePatch updates an aisle.
type AislePatch struct {
	Name      *string
	SortOrder *int
}

// NewSection describes a section to create. The store is taken from the aisle.
type NewSection struct {
	AisleID   string
	Name      string
	SortOrder *int
}

// SectionPatch updates a section. AisleID moves the section to another aisle
// of the same store.
type SectionPatch struct {
	Name      *string
	AisleID   *string
	SortOrder *int
}

// NewItem describes a catalog item to create.
type NewItem struct {
	StoreID    string
	Name       string
	AisleID    *string
	SectionID  *string
	IsHidden   bool
	IsFavorite bool
}

// ItemPatch updates a catalog item. Renaming re-derives the normalized name.
type ItemPatch struct {
	Name       *string
	Aisle      RefUpdate
	Section    RefUpdate
	IsHidden   *bool
	IsFavorite *bool
}

// ListPatch updates a shopping list.
type ListPatch struct {
	Title *string
}

// ListItemInput saves a list entry. An empty ID inserts a new entry; a
// non-empty ID re-saves an existing one and refreshes its snapshot.
type ListItemInput struct {
	ID          string
	ListID      string
	StoreItemID *string
	Name        string
	Qty         float64
	Unit        string
	Notes       string
}

// ParsedItem is one item produced by a bulk-parse collaborator.
type ParsedItem struct {
	Name     string   `json:"name" yaml:"name"`
	Quantity *float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Notes    string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Suggestion is a categorization proposal. Empty fields mean "unknown".
type Suggestion struct {
	AisleID   string `json:"aisle_id"`
	SectionID string `json:"section_id"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
