package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewSettingCommand creates the setting command group.
func NewSettingCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read and write application settings",
		Long: `Read and write key/value settings stored in the database.

The CLI keeps the active store in the "active_store" setting.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			settings, err := st.ListSettings(ctx)
			if err != nil {
				return storeError("failed to list settings", err)
			}
			return opts.formatter(cmd).Emit(settings, func(w io.Writer) {
				for _, s := range settings {
					fmt.Fprintf(w, "%s = %s\n", s.Key, s.Value)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := st.GetSetting(ctx, args[0])
			if err != nil {
				return storeError("unknown setting", err)
			}
			return opts.formatter(cmd).Emit(s, func(w io.Writer) {
				fmt.Fprintln(w, s.Value)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Create or replace a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := st.SetSetting(ctx, args[0], args[1])
			if err != nil {
				return storeError("failed to set setting", err)
			}
			return opts.formatter(cmd).Emit(s, func(w io.Writer) {
				fmt.Fprintf(w, "%s = %s\n", s.Key, s.Value)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			if err := st.DeleteSetting(ctx, args[0]); err != nil {
				return storeError("failed to delete setting", err)
			}
			return opts.formatter(cmd).Emit(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %s\n", args[0])
			})
		},
	})

	return cmd
}
