package store

import (
	"context"

	"github.com/roach88/cartkeeper/internal/model"
)

// LayoutTree returns the store's live aisles with their live sections, both
// in display order.
func (s *Store) LayoutTree(ctx context.Context, storeID string) (model.LayoutTree, error) {
	q := s.reader()
	if _, err := getStore(ctx, q, storeID); err != nil {
		return model.LayoutTree{}, err
	}
	aisles, err := listAisles(ctx, q, storeID)
	if err != nil {
		return model.LayoutTree{}, err
	}
	sections, err := listSections(ctx, q, storeID)
	if err != nil {
		return model.LayoutTree{}, err
	}

	byAisle := make(map[string][]model.LayoutSection, len(aisles))
	for _, sec := range sections {
		byAisle[sec.AisleID] = append(byAisle[sec.AisleID], model.LayoutSection{
			ID:        sec.ID,
			Name:      sec.Name,
			SortOrder: sec.SortOrder,
		})
	}

	tree := model.LayoutTree{StoreID: storeID, Aisles: make([]model.LayoutAisle, 0, len(aisles))}
	for _, a := range aisles {
		secs := byAisle[a.ID]
		if secs == nil {
			secs = []model.LayoutSection{}
		}
		tree.Aisles = append(tree.Aisles, model.LayoutAisle{
			ID:        a.ID,
			Name:      a.Name,
			SortOrder: a.SortOrder,
			Sections:  secs,
		})
	}
	return tree, nil
}
