package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/model"
)

// NewAisleCommand creates the aisle command group.
func NewAisleCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aisle",
		Short: "Manage a store's aisles",
		Long: `Manage the aisles of the current store (see --store).

Aisles may be given by id or by name.

Examples:
  cartkeeper aisle add Produce
  cartkeeper aisle reorder Produce Bakery Dairy
  cartkeeper aisle delete Bakery`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List aisles in walking order",
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
			aisles, err := st.ListAisles(ctx, s.ID)
			if err != nil {
				return storeError("failed to list aisles", err)
			}
			return opts.formatter(cmd).Emit(aisles, func(w io.Writer) {
				for _, a := range aisles {
					fmt.Fprintf(w, "%3d  %s  %s\n", a.SortOrder, a.ID, a.Name)
				}
			})
		},
	})

	var position int
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an aisle (after the last one unless --position is set)",
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
			in := model.NewAisle{StoreID: s.ID, Name: args[0]}
			if cmd.Flags().Changed("position") {
				in.SortOrder = &position
			}
			a, err := st.CreateAisle(ctx, in)
			if err != nil {
				return storeError("failed to create aisle", err)
			}
			return emitAisle(opts, cmd, a, "Created")
		},
	}
	add.Flags().IntVar(&position, "position", 0, "sort order for the new aisle")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <aisle> <name>",
		Short: "Rename an aisle",
		Args:  cobra.ExactArgs(2),
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
			a, err := findAisle(ctx, st, s.ID, args[0])
			if err != nil {
				return storeError("unknown aisle", err)
			}
			a, err = st.UpdateAisle(ctx, a.ID, model.AislePatch{Name: &args[1]})
			if err != nil {
				return storeError("failed to rename aisle", err)
			}
			return emitAisle(opts, cmd, a, "Renamed")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <aisle>",
		Short: "Delete an aisle and its sections; its items become uncategorized",
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
			a, err := findAisle(ctx, st, s.ID, args[0])
			if err != nil {
				return storeError("unknown aisle", err)
			}
			if err := st.DeleteAisle(ctx, a.ID); err != nil {
				return storeError("failed to delete aisle", err)
			}
			return emitAisle(opts, cmd, a, "Deleted")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reorder <aisle>...",
		Short: "Set the walking order of aisles",
		Long: `Set the walking order of aisles. Aisles are numbered from 0 in the
order given; all of them are updated or none are.`,
		Args: cobra.MinimumNArgs(1),
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
			ids := make([]string, len(args))
			for i, ref := range args {
				a, err := findAisle(ctx, st, s.ID, ref)
				if err != nil {
					return storeError("unknown aisle", err)
				}
				ids[i] = a.ID
			}
			updates := model.Positions(ids)
			if err := st.ReorderAisles(ctx, s.ID, updates); err != nil {
				return storeError("failed to reorder aisles", err)
			}
			return opts.formatter(cmd).Emit(updates, func(w io.Writer) {
				fmt.Fprintf(w, "Reordered %d aisle(s)\n", len(updates))
			})
		},
	})

	return cmd
}

func emitAisle(opts *RootOptions, cmd *cobra.Command, a model.Aisle, verb string) error {
	return opts.formatter(cmd).Emit(a, func(w io.Writer) {
		fmt.Fprintf(w, "%s aisle %q (%s)\n", verb, a.Name, a.ID)
	})
}
