package cli

import (
	"context"
	"fmt"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
	"github.com/roach88/cartkeeper/internal/store"
)

// SettingActiveStore holds the id of the store commands use when --store
// is not given.
const SettingActiveStore = "active_store"

// currentStore resolves --store, then the active store setting, then the
// first store. A stale setting falls through to the first store.
func (o *RootOptions) currentStore(ctx context.Context, st *store.Store) (model.Store, error) {
	if o.Store != "" {
		s, err := findStore(ctx, st, o.Store)
		if err != nil {
			return model.Store{}, storeError("unknown store", err)
		}
		return s, nil
	}

	setting, err := st.GetSetting(ctx, SettingActiveStore)
	switch {
	case err == nil:
		s, err := st.GetStore(ctx, setting.Value)
		if err == nil {
			return s, nil
		}
		if !store.IsNotFound(err) {
			return model.Store{}, storeError("failed to load active store", err)
		}
	case !store.IsNotFound(err):
		return model.Store{}, storeError("failed to read settings", err)
	}

	stores, err := st.ListStores(ctx)
	if err != nil {
		return model.Store{}, storeError("failed to list stores", err)
	}
	if len(stores) == 0 {
		// Open and Reset always leave one store behind.
		return model.Store{}, storeError("no stores", store.NotFound("store", ""))
	}
	return stores[0], nil
}

// findStore accepts a store id or name.
func findStore(ctx context.Context, st *store.Store, ref string) (model.Store, error) {
	s, err := st.GetStore(ctx, ref)
	if err == nil || !store.IsNotFound(err) {
		return s, err
	}
	stores, err := st.ListStores(ctx)
	if err != nil {
		return model.Store{}, err
	}
	for _, s := range stores {
		if normalize.Equal(s.Name, ref) {
			return s, nil
		}
	}
	return model.Store{}, store.NotFound("store", ref)
}

// findAisle accepts an aisle id or name within storeID.
func findAisle(ctx context.Context, st *store.Store, storeID, ref string) (model.Aisle, error) {
	aisles, err := st.ListAisles(ctx, storeID)
	if err != nil {
		return model.Aisle{}, err
	}
	for _, a := range aisles {
		if a.ID == ref {
			return a, nil
		}
	}
	for _, a := range aisles {
		if normalize.Equal(a.Name, ref) {
			return a, nil
		}
	}
	return model.Aisle{}, store.NotFound("aisle", ref)
}

// findSection accepts a section id or name within storeID. A name shared by
// sections of different aisles is ambiguous and must be given by id, or
// narrowed with aisleRef.
func findSection(ctx context.Context, st *store.Store, storeID, aisleRef, ref string) (model.Section, error) {
	var sections []model.Section
	var err error
	if aisleRef != "" {
		a, aerr := findAisle(ctx, st, storeID, aisleRef)
		if aerr != nil {
			return model.Section{}, aerr
		}
		sections, err = st.ListSectionsByAisle(ctx, a.ID)
	} else {
		sections, err = st.ListSections(ctx, storeID)
	}
	if err != nil {
		return model.Section{}, err
	}

	for _, s := range sections {
		if s.ID == ref {
			return s, nil
		}
	}
	var found []model.Section
	for _, s := range sections {
		if normalize.Equal(s.Name, ref) {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 0:
		return model.Section{}, store.NotFound("section", ref)
	case 1:
		return found[0], nil
	default:
		return model.Section{}, store.ConstraintViolation("section",
			fmt.Sprintf("section name %q is used in %d aisles; give the aisle or the section id", ref, len(found)), nil)
	}
}

// findItem accepts a catalog item id or name within storeID.
func findItem(ctx context.Context, st *store.Store, storeID, ref string) (model.Item, error) {
	it, err := st.GetItem(ctx, ref)
	if err == nil && it.StoreID == storeID {
		return it, nil
	}
	if err != nil && !store.IsNotFound(err) {
		return model.Item{}, err
	}
	return st.FindItemByName(ctx, storeID, ref)
}
