package model

import "time"

// Timestamps are shared by every entity.
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the row has been soft-deleted.
func (t Timestamps) Deleted() bool {
	return t.DeletedAt != nil
}

// Store is the root of a layout.
type Store struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Timestamps
}

// Aisle is an ordered division of a store.
type Aisle struct {
	ID        string `json:"id"`
	StoreID   string `json:"store_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	Timestamps
}

// Section is an ordered division of an aisle.
// INVARIANT: the aisle belongs to the same store as the section.
type Section struct {
	ID        string `json:"id"`
	StoreID   string `json:"store_id"`
	AisleID   string `json:"aisle_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	Timestamps
}

// Item is a catalog entry scoped to a store.
// INVARIANT: (StoreID, NameNorm) is unique among non-deleted items.
type Item struct {
	ID         string     `json:"id"`
	StoreID    string     `json:"store_id"`
	Name       string     `json:"name"`
	NameNorm   string     `json:"name_norm"`
	AisleID    *string    `json:"aisle_id,omitempty"`
	SectionID  *string    `json:"section_id,omitempty"`
	UsageCount int        `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	IsHidden   bool       `json:"is_hidden"`
	IsFavorite bool       `json:"is_favorite"`
	Timestamps
}

// ShoppingList is a list of things to buy at one store.
type ShoppingList struct {
	ID          string     `json:"id"`
	StoreID     string     `json:"store_id"`
	Title       string     `json:"title"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Timestamps
}

// Completed reports whether the list has been completed.
func (l ShoppingList) Completed() bool {
	return l.CompletedAt != nil
}

// ListItem is one entry on a shopping list.
//
// The Aisle*/Section* fields are snapshots taken when the entry was last
// saved. Later catalog changes do not rewrite them.
type ListItem struct {
	ID              string     `json:"id"`
	ListID          string     `json:"list_id"`
	StoreID         string     `json:"store_id"`
	StoreItemID     *string    `json:"store_item_id,omitempty"`
	Name            string     `json:"name"`
	NameNorm        string     `json:"name_norm"`
	Qty             float64    `json:"qty"`
	Unit            string     `json:"unit,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	IsChecked       bool       `json:"is_checked"`
	CheckedAt       *time.Time `json:"checked_at,omitempty"`
	AisleID         *string    `json:"aisle_id,omitempty"`
	AisleNameSnap   *string    `json:"aisle_name_snap,omitempty"`
	AisleSortSnap   *int       `json:"aisle_sort_snap,omitempty"`
	SectionID       *string    `json:"section_id,omitempty"`
	SectionNameSnap *string    `json:"section_name_snap,omitempty"`
	SectionSortSnap *int       `json:"section_sort_snap,omitempty"`
	Timestamps
}

// Setting is a key-value application setting.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
