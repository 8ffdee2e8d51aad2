package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/store"
)

// NewResetCommand creates the reset command.
func NewResetCommand(opts *RootOptions) *cobra.Command {
	var (
		keep []string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data, leaving a single default store",
		Long: fmt.Sprintf(`Delete every row from the data tables, then recreate the default store.

--keep names tables to leave untouched. Keeping a table whose parent is
cleared still loses its rows. Tables: %s.

The reset is refused unless --yes is given.`, strings.Join(store.DataTables, ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to reset without --yes")
			}
			ctx := cmd.Context()
			if _, err := opts.open(ctx); err != nil {
				return err
			}
			if err := opts.manager.Reset(ctx, keep...); err != nil {
				return storeError("reset failed", err)
			}
			if keep == nil {
				keep = []string{}
			}
			return opts.formatter(cmd).Emit(map[string][]string{"kept": keep}, func(w io.Writer) {
				if len(keep) == 0 {
					fmt.Fprintln(w, "Database reset")
					return
				}
				fmt.Fprintf(w, "Database reset (kept %s)\n", strings.Join(keep, ", "))
			})
		},
	}

	cmd.Flags().StringSliceVar(&keep, "keep", nil, "tables to keep")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")

	return cmd
}
