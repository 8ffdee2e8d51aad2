// Package views keeps grouped, display-ready reads of a shopping list and a
// store catalog. A view re-reads the store lazily after any change published
// on the bus.
package views

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/cartkeeper/internal/grouping"
	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/notify"
)

// Source is what views read. *store.Store implements it.
type Source interface {
	ListListItems(ctx context.Context, listID string) ([]model.ListItem, error)
	ListItems(ctx context.Context, storeID string) ([]model.Item, error)
	LayoutTree(ctx context.Context, storeID string) (model.LayoutTree, error)
}

// cache holds one loaded value and drops it on every publish.
type cache[T any] struct {
	mu          sync.Mutex
	value       T
	valid       bool
	loads       int
	unsubscribe func()
}

func (c *cache[T]) subscribe(bus *notify.Bus) {
	c.unsubscribe = bus.Subscribe(func() error {
		c.mu.Lock()
		c.valid = false
		c.mu.Unlock()
		return nil
	})
}

func (c *cache[T]) get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid {
		return c.value, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.value, c.valid = v, true
	c.loads++
	return v, nil
}

// Loads reports how many times the view has read the store.
func (c *cache[T]) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// Close stops listening for changes.
func (c *cache[T]) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// ListView is a shopping list grouped by the aisle and section snapshots of
// its entries. Unchecked entries sort ahead of checked ones.
type ListView struct {
	cache[[]grouping.AisleGroup[model.ListItem]]
	src    Source
	listID string
}

// NewListView creates a view of listID that refreshes after publishes on bus.
func NewListView(src Source, bus *notify.Bus, listID string) *ListView {
	v := &ListView{src: src, listID: listID}
	v.subscribe(bus)
	return v
}

// ListKeys groups list entries by their snapshots.
var ListKeys = grouping.Keys[model.ListItem]{
	Aisle: func(li model.ListItem) *grouping.Location {
		return snapLocation(li.AisleID, li.AisleNameSnap, li.AisleSortSnap)
	},
	Section: func(li model.ListItem) *grouping.Location {
		return snapLocation(li.SectionID, li.SectionNameSnap, li.SectionSortSnap)
	},
	Less: func(a, b model.ListItem) bool {
		if a.IsChecked != b.IsChecked {
			return !a.IsChecked
		}
		if a.NameNorm != b.NameNorm {
			return a.NameNorm < b.NameNorm
		}
		return a.ID < b.ID
	},
}

func snapLocation(id, name *string, sort *int) *grouping.Location {
	if id == nil {
		return nil
	}
	loc := &grouping.Location{ID: *id}
	if name != nil {
		loc.Name = *name
	}
	if sort != nil {
		loc.SortOrder = *sort
	}
	return loc
}

// Groups returns the grouped list.
func (v *ListView) Groups(ctx context.Context) ([]grouping.AisleGroup[model.ListItem], error) {
	return v.get(ctx, func(ctx context.Context) ([]grouping.AisleGroup[model.ListItem], error) {
		items, err := v.src.ListListItems(ctx, v.listID)
		if err != nil {
			return nil, err
		}
		return grouping.Group(items, ListKeys), nil
	})
}

// Render returns the grouped list as an outline.
func (v *ListView) Render(ctx context.Context) (string, error) {
	groups, err := v.Groups(ctx)
	if err != nil {
		return "", err
	}
	return grouping.Render(groups, FormatListItem), nil
}

// FormatListItem renders one entry: "[x] Milk x2 l (organic)".
func FormatListItem(li model.ListItem) string {
	var b strings.Builder
	if li.IsChecked {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	b.WriteString(li.Name)
	if li.Qty != 1 || li.Unit != "" {
		b.WriteString(" x")
		b.WriteString(strconv.FormatFloat(li.Qty, 'f', -1, 64))
		if li.Unit != "" {
			b.WriteString(" ")
			b.WriteString(li.Unit)
		}
	}
	if li.Notes != "" {
		b.WriteString(" (")
		b.WriteString(li.Notes)
		b.WriteString(")")
	}
	return b.String()
}

// CatalogView is a store's catalog grouped by the current layout. Hidden
// items are left out.
type CatalogView struct {
	cache[[]grouping.AisleGroup[model.Item]]
	src     Source
	storeID string
}

// NewCatalogView creates a view of storeID's catalog that refreshes after
// publishes on bus.
func NewCatalogView(src Source, bus *notify.Bus, storeID string) *CatalogView {
	v := &CatalogView{src: src, storeID: storeID}
	v.subscribe(bus)
	return v
}

// Groups returns the grouped catalog.
func (v *CatalogView) Groups(ctx context.Context) ([]grouping.AisleGroup[model.Item], error) {
	return v.get(ctx, func(ctx context.Context) ([]grouping.AisleGroup[model.Item], error) {
		tree, err := v.src.LayoutTree(ctx, v.storeID)
		if err != nil {
			return nil, err
		}
		items, err := v.src.ListItems(ctx, v.storeID)
		if err != nil {
			return nil, err
		}
		visible := items[:0:0]
		for _, it := range items {
			if !it.IsHidden {
				visible = append(visible, it)
			}
		}
		return grouping.Group(visible, CatalogKeys(tree)), nil
	})
}

// Render returns the grouped catalog as an outline.
func (v *CatalogView) Render(ctx context.Context) (string, error) {
	groups, err := v.Groups(ctx)
	if err != nil {
		return "", err
	}
	return grouping.Render(groups, FormatCatalogItem), nil
}

// CatalogKeys groups catalog items by where tree places them now.
func CatalogKeys(tree model.LayoutTree) grouping.Keys[model.Item] {
	return grouping.Keys[model.Item]{
		Aisle: func(it model.Item) *grouping.Location {
			if it.AisleID == nil {
				return nil
			}
			a, ok := tree.Aisle(*it.AisleID)
			if !ok {
				return nil
			}
			return &grouping.Location{ID: a.ID, Name: a.Name, SortOrder: a.SortOrder}
		},
		Section: func(it model.Item) *grouping.Location {
			if it.SectionID == nil {
				return nil
			}
			_, sec, ok := tree.Section(*it.SectionID)
			if !ok {
				return nil
			}
			return &grouping.Location{ID: sec.ID, Name: sec.Name, SortOrder: sec.SortOrder}
		},
		Less: func(a, b model.Item) bool {
			if a.NameNorm != b.NameNorm {
				return a.NameNorm < b.NameNorm
			}
			return a.ID < b.ID
		},
	}
}

// FormatCatalogItem renders one catalog item, starring favorites.
func FormatCatalogItem(it model.Item) string {
	if it.IsFavorite {
		return it.Name + " *"
	}
	return it.Name
}
