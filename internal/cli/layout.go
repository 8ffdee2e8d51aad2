package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/layout"
)

// NewLayoutCommand creates the layout command group.
func NewLayoutCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Apply or export a store layout file",
		Long: `Describe a store's aisles and sections in a CUE file and apply it.

A layout file lists aisles in walking order, each with its sections:

  store: "Corner Market"
  aisles: [
    {name: "Produce", sections: ["Fruit", "Vegetables"]},
    {name: "Dairy", sections: ["Milk", "Cheese"]},
  ]

Applying is additive: missing aisles and sections are created and listed
ones are put in file order. Nothing is deleted.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "apply <file.cue>",
		Short: "Make the current store's layout match a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := layout.Load(args[0])
			if err != nil {
				var le *layout.Error
				if errors.As(err, &le) {
					return WrapExitError(ExitCommandError, "invalid layout file", err)
				}
				return WrapExitError(ExitCommandError, "failed to read layout file", err)
			}
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			rep, err := layout.Apply(ctx, st, s.ID, l)
			if err != nil {
				return storeError("failed to apply layout", err)
			}
			return opts.formatter(cmd).Emit(rep, func(w io.Writer) {
				fmt.Fprintf(w, "Applied layout to %q: %d aisle(s) and %d section(s) created\n",
					s.Name, rep.AislesCreated, rep.SectionsCreated)
			})
		},
	})

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the current store's layout as CUE",
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
			tree, err := st.LayoutTree(ctx, s.ID)
			if err != nil {
				return storeError("failed to load layout", err)
			}
			l := layout.FromTree(s.Name, tree)

			f := opts.formatter(cmd)
			if f.Format == "json" {
				return f.Success(l)
			}
			src, err := layout.Format(l)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to format layout", err)
			}
			if output != "" {
				if err := os.WriteFile(output, src, 0o644); err != nil {
					return WrapExitError(ExitFailure, "failed to write layout", err)
				}
				fmt.Fprintf(f.Writer, "Wrote %s\n", output)
				return nil
			}
			_, err = f.Writer.Write(src)
			return err
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.AddCommand(export)

	return cmd
}
