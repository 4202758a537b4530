package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcsqlite/internal/schema"
	"github.com/roach88/ndcsqlite/internal/store"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema response for the configured catalog",
		Long: `Print the collections, object types and scalar types the connector
exposes, in the protocol's schema response form.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			catalog, err := loadCatalog(rootOpts)
			if err != nil {
				return reportError(formatter, err)
			}
			return formatter.Document(schema.BuildSchemaResponse(catalog))
		},
	}
}

// NewCapabilitiesCommand creates the capabilities command.
func NewCapabilitiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "capabilities",
		Short:         "Print the connector's capabilities response",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newFormatter(rootOpts, cmd).Document(schema.CapabilitiesFor())
		},
	}
}

// IntrospectOptions holds flags for the introspect command.
type IntrospectOptions struct {
	*RootOptions
	Output string
}

// NewIntrospectCommand creates the introspect command.
func NewIntrospectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IntrospectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Generate a catalog from a live SQLite database",
		Long: `Read tables, columns, primary keys and foreign keys from the configured
SQLite database and print them as a YAML catalog that --schema accepts.

Examples:
  ndcsqlite introspect --db app.db
  ndcsqlite introspect --db app.db -o schema.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntrospect(cmd.Context(), opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the catalog to this file instead of stdout")
	return cmd
}

func runIntrospect(ctx context.Context, opts *IntrospectOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	if st.Driver() != store.DriverSQLite {
		return reportError(formatter, CodedError(ExitCommandError, ErrCodeBadConfig,
			fmt.Sprintf("introspect supports %s only, configured driver is %s", store.DriverSQLite, st.Driver()), nil))
	}

	catalog, err := st.IntrospectSQLite(ctx)
	if err != nil {
		return reportError(formatter, CodedError(ExitCommandError, ErrCodeDatabase, "introspection failed", err))
	}
	opts.Logger().Info("introspected database", "tables", len(catalog.Tables))

	if formatter.Format == "json" {
		return formatter.Success(catalog)
	}

	data, err := schema.MarshalYAML(catalog)
	if err != nil {
		return reportError(formatter, err)
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return reportError(formatter, CodedError(ExitCommandError, ErrCodeGeneric, "writing catalog", err))
		}
		fmt.Fprintf(formatter.Writer, "%s Wrote %d table(s) to %s\n", OKMark(), len(catalog.Tables), opts.Output)
		return nil
	}
	_, err = formatter.Writer.Write(data)
	return err
}
