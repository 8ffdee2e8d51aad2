// Package grouping orders display items into aisle and section groups.
//
// Ordering rules:
//   - items without an aisle come first, ahead of every categorized aisle
//   - categorized aisles sort by ascending SortOrder, ties by Name
//     (case-sensitive), then by ID
//   - sections inside an aisle follow the same rules
//   - a missing aisle or section is labelled "Uncategorized"
//
// The output depends only on the set of input items, not their order, as long
// as Keys.Less is a total order on items.
package grouping

import (
	"cmp"
	"slices"
	"strings"
)

// Uncategorized labels a missing aisle or section.
const Uncategorized = "Uncategorized"

// Location is an aisle or section as seen by a display item.
type Location struct {
	ID        string
	Name      string
	SortOrder int
}

// key identifies the group a location belongs to.
func (l *Location) key() string {
	if l == nil {
		return ""
	}
	if l.ID != "" {
		return "id:" + l.ID
	}
	return "name:" + l.Name
}

// Keys extracts locations from items. Aisle and Section return nil for
// "none". Less orders items inside a section; nil keeps input order.
type Keys[T any] struct {
	Aisle   func(T) *Location
	Section func(T) *Location
	Less    func(a, b T) bool
}

// AisleGroup is one aisle and its sections. Aisle is nil for the
// uncategorized group.
type AisleGroup[T any] struct {
	Aisle    *Location
	Name     string
	Sections []SectionGroup[T]
}

// SectionGroup is one section and its items. Section is nil for items
// without a section.
type SectionGroup[T any] struct {
	Section *Location
	Name    string
	Items   []T
}

// Len returns the number of items across all sections.
func (g AisleGroup[T]) Len() int {
	n := 0
	for _, s := range g.Sections {
		n += len(s.Items)
	}
	return n
}

// Group buckets items by aisle, then by section within each aisle.
func Group[T any](items []T, keys Keys[T]) []AisleGroup[T] {
	type sectionBucket struct {
		loc   *Location
		items []T
	}
	type aisleBucket struct {
		loc      *Location
		sections map[string]*sectionBucket
	}

	aisles := make(map[string]*aisleBucket)
	for _, item := range items {
		aLoc := keys.Aisle(item)
		ab, ok := aisles[aLoc.key()]
		if !ok {
			ab = &aisleBucket{loc: aLoc, sections: make(map[string]*sectionBucket)}
			aisles[aLoc.key()] = ab
		} else {
			ab.loc = representative(ab.loc, aLoc)
		}

		var sLoc *Location
		if keys.Section != nil {
			sLoc = keys.Section(item)
		}
		sb, ok := ab.sections[sLoc.key()]
		if !ok {
			sb = &sectionBucket{loc: sLoc}
			ab.sections[sLoc.key()] = sb
		} else {
			sb.loc = representative(sb.loc, sLoc)
		}
		sb.items = append(sb.items, item)
	}

	groups := make([]AisleGroup[T], 0, len(aisles))
	for _, ab := range aisles {
		g := AisleGroup[T]{Aisle: ab.loc, Name: label(ab.loc)}
		for _, sb := range ab.sections {
			sItems := sb.items
			if keys.Less != nil {
				slices.SortStableFunc(sItems, func(a, b T) int {
					switch {
					case keys.Less(a, b):
						return -1
					case keys.Less(b, a):
						return 1
					}
					return 0
				})
			}
			g.Sections = append(g.Sections, SectionGroup[T]{Section: sb.loc, Name: label(sb.loc), Items: sItems})
		}
		slices.SortFunc(g.Sections, func(a, b SectionGroup[T]) int {
			return CompareLocations(a.Section, b.Section)
		})
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b AisleGroup[T]) int {
		return CompareLocations(a.Aisle, b.Aisle)
	})
	return groups
}

// CompareLocations orders locations: nil first, then SortOrder, Name, ID.
func CompareLocations(a, b *Location) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// representative picks one location for a group whose items disagree
// (list snapshots taken at different times), independent of input order.
func representative(current, next *Location) *Location {
	if CompareLocations(next, current) < 0 {
		return next
	}
	return current
}

func label(l *Location) string {
	if l == nil || l.Name == "" {
		return Uncategorized
	}
	return l.Name
}
