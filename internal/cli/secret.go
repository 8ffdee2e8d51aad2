package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/secrets"
)

// NewSecretCommand creates the secret command group.
func NewSecretCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage stored credentials",
		Long: `Manage credentials kept outside the database, such as the Gemini API key.

Values are never printed. Secrets live in secrets.path (mode 0600) unless
secrets.backend is "memory".

Examples:
  cartkeeper secret set gemini_api_key
  echo "$KEY" | cartkeeper secret set gemini_api_key -`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> [value|-]",
		Short: "Store a secret, reading it from stdin when no value is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			if len(args) == 2 && args[1] != "-" {
				value = args[1]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read secret", err)
				}
				value = strings.TrimSpace(string(data))
			}
			if value == "" {
				return NewExitError(ExitCommandError, "secret value is empty")
			}
			if err := opts.secrets.Set(cmd.Context(), args[0], value); err != nil {
				return WrapExitError(ExitFailure, "failed to store secret", err)
			}
			return opts.formatter(cmd).Emit(map[string]string{"key": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Stored %s\n", args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <key>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.secrets.Remove(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "failed to remove secret", err)
			}
			return opts.formatter(cmd).Emit(map[string]string{"key": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Removed %s\n", args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored secret keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := opts.secrets.Keys()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read secrets", err)
			}
			return opts.formatter(cmd).Emit(keys, func(w io.Writer) {
				for _, k := range keys {
					fmt.Fprintln(w, k)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <key>",
		Short: "Report whether a secret is available, from the store or the environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := ""
			if args[0] == opts.cfg.Categorizer.APIKeySecret {
				env = opts.cfg.Categorizer.APIKeyEnv
			}
			_, err := secrets.Lookup(cmd.Context(), opts.secrets, args[0], env)
			if errors.Is(err, secrets.ErrNotFound) {
				return NewExitError(ExitFailure, fmt.Sprintf("%s is not set", args[0]))
			}
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read secrets", err)
			}
			return opts.formatter(cmd).Emit(map[string]bool{"available": true}, func(w io.Writer) {
				fmt.Fprintf(w, "%s is set\n", args[0])
			})
		},
	})

	return cmd
}
