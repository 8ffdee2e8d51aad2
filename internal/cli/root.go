package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/config"
	"github.com/roach88/cartkeeper/internal/database"
	"github.com/roach88/cartkeeper/internal/logging"
	"github.com/roach88/cartkeeper/internal/secrets"
	"github.com/roach88/cartkeeper/internal/store"
)

// RootOptions holds global flags for all commands and the services built
// from them before a subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides database.path and selects the sqlite backend
	Store      string // store id or name; empty means the active store

	// LogWriter receives log output. Defaults to stderr.
	LogWriter io.Writer

	// StoreOptions are appended to the options used to open the store
	// (for testing: deterministic clock and ids).
	StoreOptions []store.Option

	cfg     *config.Config
	logger  *slog.Logger
	manager *database.Manager
	secrets secrets.Store
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cartkeeper CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cartkeeper",
		Short: "cartkeeper - shopping lists in store order",
		Long: `Keep a catalog of the things you buy, laid out by aisle and section
for each store you shop at, and a running shopping list that reads in the
order you walk the store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Close()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: $CARTKEEPER_CONFIG or <config dir>/cartkeeper/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "store id or name (default: active store)")

	// Add subcommands
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewAisleCommand(opts))
	cmd.AddCommand(NewSectionCommand(opts))
	cmd.AddCommand(NewItemCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewLayoutCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSettingCommand(opts))
	cmd.AddCommand(NewSecretCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger, database manager and
// secrets store. Nothing is opened yet.
func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.Database != "" {
		cfg.Database.Backend = string(database.KindSQLite)
		cfg.Database.Path = o.Database
	}

	level := cfg.Logging.Level
	if o.Verbose {
		level = "debug"
	}
	w := o.LogWriter
	if w == nil {
		w = os.Stderr
	}
	o.logger = logging.Setup(level, cfg.Logging.Format, w)

	backend, err := database.New(database.Config{
		Backend:  database.Kind(cfg.Database.Backend),
		Path:     cfg.Database.Path,
		Driver:   cfg.Database.Driver,
		Endpoint: cfg.Database.Endpoint,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid database configuration", err)
	}
	storeOpts := append([]store.Option{store.WithSlowQueryThreshold(cfg.Database.SlowQuery)}, o.StoreOptions...)
	o.manager = database.NewManager(backend, o.logger, storeOpts...)

	switch cfg.Secrets.Backend {
	case "memory":
		o.secrets = secrets.NewMemoryStore()
	default:
		o.secrets = secrets.NewFileStore(cfg.Secrets.Path)
	}

	o.cfg = cfg
	return nil
}

// Close releases the database.
func (o *RootOptions) Close() error {
	if o.manager == nil {
		return nil
	}
	return o.manager.Close()
}

// open returns the live store.
func (o *RootOptions) open(ctx context.Context) (*store.Store, error) {
	st, err := o.manager.Acquire(ctx)
	if err != nil {
		return nil, storeError("failed to open database", err)
	}
	return st, nil
}

// formatter returns an OutputFormatter writing to the command's output.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
