package cli

import (
	"errors"

	"github.com/roach88/ndcsqlite/internal/engine"
	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/querysql"
	"github.com/roach88/ndcsqlite/internal/schema"
	"github.com/roach88/ndcsqlite/internal/store"
)

// Error codes (E001-E099) reuse the catalog load codes; E010 and up are
// CLI-only.
const (
	ErrCodeGeneric     = schema.ErrCodeGeneric
	ErrCodeNotFound    = schema.ErrCodeNotFound
	ErrCodeNoSchema    = "E010" // No catalog configured
	ErrCodeNoDatabase  = "E011" // No database configured
	ErrCodeDatabase    = "E012" // Database could not be opened
	ErrCodeBadRequest  = "E013" // Request file or flags unusable
	ErrCodeBadConfig   = "E014" // Configuration invalid
	ErrCodeQueryFailed = "E015" // Execution failed in storage
)

// loadCatalog loads and validates the configured catalog.
func loadCatalog(opts *RootOptions) (*ir.Catalog, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, CodedError(ExitCommandError, ErrCodeBadConfig, "invalid configuration", err)
	}
	if cfg.Schema == "" {
		return nil, CodedError(ExitCommandError, ErrCodeNoSchema, "no schema configured (use --schema or set schema in ndcsqlite.yaml)", nil)
	}

	catalog, err := schema.Load(cfg.Schema)
	if err != nil {
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) {
			return nil, CodedError(ExitCommandError, loadErr.Code, "loading schema", err)
		}
		var valErrs schema.ValidationErrors
		if errors.As(err, &valErrs) {
			return nil, CodedError(ExitFailure, valErrs[0].Code, "invalid schema", err)
		}
		return nil, CodedError(ExitFailure, ErrCodeGeneric, "invalid schema", err)
	}
	opts.Logger().Debug("catalog loaded", "schema", cfg.Schema, "tables", len(catalog.Tables))
	return catalog, nil
}

// openStore opens the configured database. The caller closes it.
func openStore(opts *RootOptions) (*store.Store, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, CodedError(ExitCommandError, ErrCodeBadConfig, "invalid configuration", err)
	}
	if cfg.Database.DSN == "" {
		return nil, CodedError(ExitCommandError, ErrCodeNoDatabase, "no database configured (use --db or set database.dsn)", nil)
	}

	st, err := store.OpenDriver(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, CodedError(ExitCommandError, ErrCodeDatabase, "opening database", err)
	}
	opts.Logger().Debug("database opened", "driver", cfg.Database.Driver)
	return st, nil
}

// newCompiler builds a compiler for catalog from the configured dialect
// and limits.
func newCompiler(opts *RootOptions, catalog *ir.Catalog) (*querysql.Compiler, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, CodedError(ExitCommandError, ErrCodeBadConfig, "invalid configuration", err)
	}
	dialect, err := cfg.ResolvedDialect()
	if err != nil {
		return nil, CodedError(ExitCommandError, ErrCodeBadConfig, "invalid configuration", err)
	}
	return querysql.NewCompiler(catalog,
		querysql.WithDialect(dialect),
		querysql.WithLimits(cfg.QueryLimits()),
	), nil
}

// newEngine builds an engine over exec. A nil exec is allowed for explain.
func newEngine(opts *RootOptions, catalog *ir.Catalog, exec engine.Executor) (*engine.Engine, error) {
	compiler, err := newCompiler(opts, catalog)
	if err != nil {
		return nil, err
	}
	return engine.New(compiler, exec, engine.WithLogger(opts.Logger())), nil
}
