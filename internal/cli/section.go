package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/model"
)

// NewSectionCommand creates the section command group.
func NewSectionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Manage the sections within aisles",
		Long: `Manage the sections within the current store's aisles.

Sections may be given by id or by name; --aisle narrows a name that appears
in more than one aisle.

Examples:
  cartkeeper section add Dairy Milk
  cartkeeper section move Cheese Deli
  cartkeeper section reorder Produce Fruit Vegetables`,
	}

	var aisleRef string
	list := &cobra.Command{
		Use:   "list",
		Short: "List sections in walking order",
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
			var sections []model.Section
			if aisleRef != "" {
				a, err := findAisle(ctx, st, s.ID, aisleRef)
				if err != nil {
					return storeError("unknown aisle", err)
				}
				sections, err = st.ListSectionsByAisle(ctx, a.ID)
				if err != nil {
					return storeError("failed to list sections", err)
				}
			} else {
				sections, err = st.ListSections(ctx, s.ID)
				if err != nil {
					return storeError("failed to list sections", err)
				}
			}
			return opts.formatter(cmd).Emit(sections, func(w io.Writer) {
				for _, sec := range sections {
					fmt.Fprintf(w, "%3d  %s  %s  (aisle %s)\n", sec.SortOrder, sec.ID, sec.Name, sec.AisleID)
				}
			})
		},
	}
	list.Flags().StringVar(&aisleRef, "aisle", "", "only sections of this aisle")
	cmd.AddCommand(list)

	var position int
	add := &cobra.Command{
		Use:   "add <aisle> <name>",
		Short: "Add a section to an aisle",
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
			in := model.NewSection{AisleID: a.ID, Name: args[1]}
			if cmd.Flags().Changed("position") {
				in.SortOrder = &position
			}
			sec, err := st.CreateSection(ctx, in)
			if err != nil {
				return storeError("failed to create section", err)
			}
			return emitSection(opts, cmd, sec, "Created")
		},
	}
	add.Flags().IntVar(&position, "position", 0, "sort order for the new section")
	cmd.AddCommand(add)

	var renameAisle string
	rename := &cobra.Command{
		Use:   "rename <section> <name>",
		Short: "Rename a section",
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
			sec, err := findSection(ctx, st, s.ID, renameAisle, args[0])
			if err != nil {
				return storeError("unknown section", err)
			}
			sec, err = st.UpdateSection(ctx, sec.ID, model.SectionPatch{Name: &args[1]})
			if err != nil {
				return storeError("failed to rename section", err)
			}
			return emitSection(opts, cmd, sec, "Renamed")
		},
	}
	rename.Flags().StringVar(&renameAisle, "aisle", "", "aisle holding the section")
	cmd.AddCommand(rename)

	var moveAisle string
	move := &cobra.Command{
		Use:   "move <section> <aisle>",
		Short: "Move a section, with its items, to another aisle",
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
			sec, err := findSection(ctx, st, s.ID, moveAisle, args[0])
			if err != nil {
				return storeError("unknown section", err)
			}
			a, err := findAisle(ctx, st, s.ID, args[1])
			if err != nil {
				return storeError("unknown aisle", err)
			}
			sec, err = st.UpdateSection(ctx, sec.ID, model.SectionPatch{AisleID: &a.ID})
			if err != nil {
				return storeError("failed to move section", err)
			}
			return emitSection(opts, cmd, sec, "Moved")
		},
	}
	move.Flags().StringVar(&moveAisle, "from", "", "aisle currently holding the section")
	cmd.AddCommand(move)

	var deleteAisle string
	del := &cobra.Command{
		Use:   "delete <section>",
		Short: "Delete a section; its items stay in the aisle",
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
			sec, err := findSection(ctx, st, s.ID, deleteAisle, args[0])
			if err != nil {
				return storeError("unknown section", err)
			}
			if err := st.DeleteSection(ctx, sec.ID); err != nil {
				return storeError("failed to delete section", err)
			}
			return emitSection(opts, cmd, sec, "Deleted")
		},
	}
	del.Flags().StringVar(&deleteAisle, "aisle", "", "aisle holding the section")
	cmd.AddCommand(del)

	cmd.AddCommand(&cobra.Command{
		Use:   "reorder <aisle> <section>...",
		Short: "Set the order of sections within an aisle",
		Args:  cobra.MinimumNArgs(2),
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
			ids := make([]string, 0, len(args)-1)
			for _, ref := range args[1:] {
				sec, err := findSection(ctx, st, s.ID, a.ID, ref)
				if err != nil {
					return storeError("unknown section", err)
				}
				ids = append(ids, sec.ID)
			}
			updates := model.Positions(ids)
			if err := st.ReorderSections(ctx, a.ID, updates); err != nil {
				return storeError("failed to reorder sections", err)
			}
			return opts.formatter(cmd).Emit(updates, func(w io.Writer) {
				fmt.Fprintf(w, "Reordered %d section(s) in %q\n", len(updates), a.Name)
			})
		},
	})

	return cmd
}

func emitSection(opts *RootOptions, cmd *cobra.Command, s model.Section, verb string) error {
	return opts.formatter(cmd).Emit(s, func(w io.Writer) {
		fmt.Fprintf(w, "%s section %q (%s)\n", verb, s.Name, s.ID)
	})
}
