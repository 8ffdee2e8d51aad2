package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/model"
)

// NewStoreCommand creates the store command group.
func NewStoreCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stores",
		Long: `Manage the stores you shop at. Each store has its own layout,
catalog and shopping lists.

Examples:
  cartkeeper store list
  cartkeeper store add "Corner Market"
  cartkeeper store use "Corner Market"`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			current, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			stores, err := st.ListStores(ctx)
			if err != nil {
				return storeError("failed to list stores", err)
			}
			return opts.formatter(cmd).Emit(stores, func(w io.Writer) {
				for _, s := range stores {
					marker := " "
					if s.ID == current.ID {
						marker = "*"
					}
					fmt.Fprintf(w, "%s %s  %s\n", marker, s.ID, s.Name)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := st.CreateStore(ctx, args[0])
			if err != nil {
				return storeError("failed to create store", err)
			}
			return emitStore(opts, cmd, s, "Created")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <store> <name>",
		Short: "Rename a store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := findStore(ctx, st, args[0])
			if err != nil {
				return storeError("unknown store", err)
			}
			s, err = st.UpdateStore(ctx, s.ID, args[1])
			if err != nil {
				return storeError("failed to rename store", err)
			}
			return emitStore(opts, cmd, s, "Renamed")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <store>",
		Short: "Delete a store with its layout, catalog and lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := findStore(ctx, st, args[0])
			if err != nil {
				return storeError("unknown store", err)
			}
			if err := st.DeleteStore(ctx, s.ID); err != nil {
				return storeError("failed to delete store", err)
			}
			return emitStore(opts, cmd, s, "Deleted")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use <store>",
		Short: "Make a store the default for other commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := findStore(ctx, st, args[0])
			if err != nil {
				return storeError("unknown store", err)
			}
			if _, err := st.SetSetting(ctx, SettingActiveStore, s.ID); err != nil {
				return storeError("failed to save active store", err)
			}
			return emitStore(opts, cmd, s, "Using")
		},
	})

	return cmd
}

func emitStore(opts *RootOptions, cmd *cobra.Command, s model.Store, verb string) error {
	return opts.formatter(cmd).Emit(s, func(w io.Writer) {
		fmt.Fprintf(w, "%s store %q (%s)\n", verb, s.Name, s.ID)
	})
}
