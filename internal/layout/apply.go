package layout

import (
	"context"
	"fmt"

	"github.com/roach88/cartkeeper/internal/model"
)

// Writer is the part of the entity store Apply uses. *store.Store
// implements it.
type Writer interface {
	LayoutTree(ctx context.Context, storeID string) (model.LayoutTree, error)
	CreateAisle(ctx context.Context, in model.NewAisle) (model.Aisle, error)
	CreateSection(ctx context.Context, in model.NewSection) (model.Section, error)
	ReorderAisles(ctx context.Context, storeID string, updates []model.SortUpdate) error
	ReorderSections(ctx context.Context, aisleID string, updates []model.SortUpdate) error
}

// Report counts what Apply changed.
type Report struct {
	AislesCreated   int
	SectionsCreated int
}

// Apply makes the store's layout match l. Aisles and sections are matched
// by name, ignoring case and spacing; missing ones are created. Listed
// aisles and sections take their file positions. Ones the file does not
// mention are kept, after the listed ones, in their current order. Nothing
// is deleted.
func Apply(ctx context.Context, w Writer, storeID string, l Layout) (Report, error) {
	var rep Report
	tree, err := w.LayoutTree(ctx, storeID)
	if err != nil {
		return rep, err
	}

	existing := make(map[string]model.LayoutAisle, len(tree.Aisles))
	for _, a := range tree.Aisles {
		existing[nameKey(a.Name)] = a
	}

	listed := make(map[string]bool, len(l.Aisles))
	var aisleOrder []string
	for _, want := range l.Aisles {
		a, ok := existing[nameKey(want.Name)]
		if !ok {
			created, err := w.CreateAisle(ctx, model.NewAisle{StoreID: storeID, Name: want.Name})
			if err != nil {
				return rep, fmt.Errorf("create aisle %q: %w", want.Name, err)
			}
			rep.AislesCreated++
			a = model.LayoutAisle{ID: created.ID, Name: created.Name, SortOrder: created.SortOrder}
		}
		listed[a.ID] = true
		aisleOrder = append(aisleOrder, a.ID)

		n, err := applySections(ctx, w, a, want.Sections)
		if err != nil {
			return rep, err
		}
		rep.SectionsCreated += n
	}
	for _, a := range tree.Aisles {
		if !listed[a.ID] {
			aisleOrder = append(aisleOrder, a.ID)
		}
	}

	if err := w.ReorderAisles(ctx, storeID, model.Positions(aisleOrder)); err != nil {
		return rep, fmt.Errorf("reorder aisles: %w", err)
	}
	return rep, nil
}

func applySections(ctx context.Context, w Writer, a model.LayoutAisle, want []string) (int, error) {
	existing := make(map[string]string, len(a.Sections))
	for _, s := range a.Sections {
		existing[nameKey(s.Name)] = s.ID
	}

	created := 0
	listed := make(map[string]bool, len(want))
	var order []string
	for _, name := range want {
		id, ok := existing[nameKey(name)]
		if !ok {
			sec, err := w.CreateSection(ctx, model.NewSection{AisleID: a.ID, Name: name})
			if err != nil {
				return created, fmt.Errorf("create section %q in %q: %w", name, a.Name, err)
			}
			created++
			id = sec.ID
		}
		listed[id] = true
		order = append(order, id)
	}
	for _, s := range a.Sections {
		if !listed[s.ID] {
			order = append(order, s.ID)
		}
	}

	if err := w.ReorderSections(ctx, a.ID, model.Positions(order)); err != nil {
		return created, fmt.Errorf("reorder sections of %q: %w", a.Name, err)
	}
	return created, nil
}
