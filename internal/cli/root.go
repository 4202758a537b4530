package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Schema     string // overrides config schema
	Database   string // overrides config database.dsn

	config *Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ndcsqlite CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "ndcsqlite",
		Short:   "ndcsqlite - NDC query connector for SQLite",
		Long:    "Compiles NDC query requests into parameterized SQL and reassembles nested results.",
		Version: ir.ConnectorVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ndcsqlite.yaml found upward from cwd)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "catalog: CUE directory or YAML file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database DSN (SQLite path or Postgres URL)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewCapabilitiesCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewIntrospectCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// newLogger builds the text logger on stderr: Info by default, Debug
// with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Logger returns the command logger. Commands built without the root
// command (as in tests) log nowhere.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

// Config loads the configuration once and applies --schema and --db.
func (o *RootOptions) Config() (*Config, error) {
	if o.config != nil {
		return o.config, nil
	}
	cfg, path, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		o.Logger().Debug("config loaded", "path", path)
	}
	if o.Schema != "" {
		cfg.Schema = o.Schema
	}
	if o.Database != "" {
		cfg.Database.DSN = o.Database
	}
	o.config = cfg
	return cfg, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
