package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/store"
	"github.com/roach88/cartkeeper/internal/views"
)

// ItemOptions holds flags shared by item add and item update.
type ItemOptions struct {
	Name     string
	Aisle    string
	Section  string
	Hidden   bool
	Favorite bool
}

// NewItemCommand creates the item command group.
func NewItemCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the store catalog",
		Long: `Manage the catalog of things you buy at the current store.

Item names are unique per store after normalization, so "Apples" and
"apple" are the same item. Items may be given by id or by name.

Examples:
  cartkeeper item add "Whole milk" --aisle Dairy --section Milk
  cartkeeper item update "whole milk" --favorite
  cartkeeper item list`,
	}

	var flat bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the catalog grouped by aisle and section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			f := opts.formatter(cmd)
			if flat || f.Format == "json" {
				items, err := st.ListItems(ctx, s.ID)
				if err != nil {
					return storeError("failed to list items", err)
				}
				return f.Emit(items, func(w io.Writer) {
					for _, it := range items {
						fmt.Fprintf(w, "%s  %s\n", it.ID, views.FormatCatalogItem(it))
					}
				})
			}

			view := views.NewCatalogView(st, st.Bus(), s.ID)
			defer view.Close()
			out, err := view.Render(ctx)
			if err != nil {
				return storeError("failed to load catalog", err)
			}
			fmt.Fprint(f.Writer, out)
			return nil
		},
	}
	list.Flags().BoolVar(&flat, "flat", false, "list items with ids instead of grouping them")
	cmd.AddCommand(list)

	addOpts := &ItemOptions{}
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			in := model.NewItem{
				StoreID:    s.ID,
				Name:       args[0],
				IsHidden:   addOpts.Hidden,
				IsFavorite: addOpts.Favorite,
			}
			if in.AisleID, in.SectionID, err = placementRefs(ctx, st, s.ID, addOpts.Aisle, addOpts.Section); err != nil {
				return err
			}
			it, err := st.CreateItem(ctx, in)
			if err != nil {
				return storeError("failed to create item", err)
			}
			return emitItem(opts, cmd, it, "Created")
		},
	}
	add.Flags().StringVar(&addOpts.Aisle, "aisle", "", "aisle id or name")
	add.Flags().StringVar(&addOpts.Section, "section", "", "section id or name")
	add.Flags().BoolVar(&addOpts.Hidden, "hidden", false, "hide from the catalog view")
	add.Flags().BoolVar(&addOpts.Favorite, "favorite", false, "mark as a favorite")
	cmd.AddCommand(add)

	updOpts := &ItemOptions{}
	update := &cobra.Command{
		Use:   "update <item>",
		Short: "Rename, move, hide or favorite an item",
		Long: `Update a catalog item. Only the flags given are changed.

An empty --aisle or --section clears it. Moving to a section also moves the
item to that section's aisle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			it, err := findItem(ctx, st, s.ID, args[0])
			if err != nil {
				return storeError("unknown item", err)
			}

			var patch model.ItemPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &updOpts.Name
			}
			if flags.Changed("aisle") {
				ref, err := aisleRef(ctx, st, s.ID, updOpts.Aisle)
				if err != nil {
					return err
				}
				patch.Aisle = ref
			}
			if flags.Changed("section") {
				ref, err := sectionRef(ctx, st, s.ID, updOpts.Aisle, updOpts.Section)
				if err != nil {
					return err
				}
				patch.Section = ref
			}
			if flags.Changed("hidden") {
				patch.IsHidden = &updOpts.Hidden
			}
			if flags.Changed("favorite") {
				patch.IsFavorite = &updOpts.Favorite
			}

			it, err = st.UpdateItem(ctx, it.ID, patch)
			if err != nil {
				return storeError("failed to update item", err)
			}
			return emitItem(opts, cmd, it, "Updated")
		},
	}
	update.Flags().StringVar(&updOpts.Name, "name", "", "new name")
	update.Flags().StringVar(&updOpts.Aisle, "aisle", "", "aisle id or name (empty clears)")
	update.Flags().StringVar(&updOpts.Section, "section", "", "section id or name (empty clears)")
	update.Flags().BoolVar(&updOpts.Hidden, "hidden", false, "hide from the catalog view")
	update.Flags().BoolVar(&updOpts.Favorite, "favorite", false, "mark as a favorite")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <item>",
		Short: "Delete a catalog item; list entries keep their snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			it, err := findItem(ctx, st, s.ID, args[0])
			if err != nil {
				return storeError("unknown item", err)
			}
			if err := st.DeleteItem(ctx, it.ID); err != nil {
				return storeError("failed to delete item", err)
			}
			return emitItem(opts, cmd, it, "Deleted")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "find <name>",
		Short: "Look up an item by normalized name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			it, err := st.FindItemByName(ctx, s.ID, args[0])
			if err != nil {
				return storeError("no such item", err)
			}
			return opts.formatter(cmd).Emit(it, func(w io.Writer) {
				fmt.Fprintf(w, "%s  %s (used %d time(s))\n", it.ID, views.FormatCatalogItem(it), it.UsageCount)
			})
		},
	})

	return cmd
}

// placementRefs resolves optional aisle and section references for a new
// item. A section alone implies its aisle.
func placementRefs(ctx context.Context, st *store.Store, storeID, aisle, section string) (*string, *string, error) {
	var aisleID, sectionID *string
	if aisle != "" {
		a, err := findAisle(ctx, st, storeID, aisle)
		if err != nil {
			return nil, nil, storeError("unknown aisle", err)
		}
		aisleID = &a.ID
	}
	if section != "" {
		sec, err := findSection(ctx, st, storeID, aisle, section)
		if err != nil {
			return nil, nil, storeError("unknown section", err)
		}
		sectionID = &sec.ID
	}
	return aisleID, sectionID, nil
}

func aisleRef(ctx context.Context, st *store.Store, storeID, ref string) (model.RefUpdate, error) {
	if ref == "" {
		return model.ClearRef(), nil
	}
	a, err := findAisle(ctx, st, storeID, ref)
	if err != nil {
		return model.RefUpdate{}, storeError("unknown aisle", err)
	}
	return model.SetRef(a.ID), nil
}

func sectionRef(ctx context.Context, st *store.Store, storeID, aisle, ref string) (model.RefUpdate, error) {
	if ref == "" {
		return model.ClearRef(), nil
	}
	sec, err := findSection(ctx, st, storeID, aisle, ref)
	if err != nil {
		return model.RefUpdate{}, storeError("unknown section", err)
	}
	return model.SetRef(sec.ID), nil
}

func emitItem(opts *RootOptions, cmd *cobra.Command, it model.Item, verb string) error {
	return opts.formatter(cmd).Emit(it, func(w io.Writer) {
		fmt.Fprintf(w, "%s item %q (%s)\n", verb, it.Name, it.ID)
	})
}
