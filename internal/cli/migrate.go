package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/store"
)

// migrationStatus is one row of migrate status.
type migrationStatus struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long: `Apply any pending schema migrations and report the schema version.

Every command migrates the database when it opens it; this command does only
that, which is useful after an upgrade.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			res, err := store.Migrate(ctx, st.DB(), store.Migrations)
			if err != nil {
				return storeError("migration failed", err)
			}
			return opts.formatter(cmd).Emit(res, func(w io.Writer) {
				fmt.Fprintf(w, "Schema at version %d\n", res.ToVersion)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List known migrations and whether each is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			version, err := store.SchemaVersion(ctx, st.DB())
			if err != nil {
				return storeError("failed to read schema version", err)
			}
			rows := make([]migrationStatus, len(store.Migrations))
			for i, m := range store.Migrations {
				rows[i] = migrationStatus{Version: m.Version, Name: m.Name, Applied: m.Version <= version}
			}
			return opts.formatter(cmd).Emit(rows, func(w io.Writer) {
				for _, r := range rows {
					mark := " "
					if r.Applied {
						mark = "x"
					}
					fmt.Fprintf(w, "[%s] %d  %s\n", mark, r.Version, r.Name)
				}
			})
		},
	})

	return cmd
}
