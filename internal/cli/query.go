package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

// QueryOptions holds the request-building flags shared by query and explain.
type QueryOptions struct {
	*RootOptions
	Request string   // request JSON file, "-" for stdin
	Fields  []string // column names
	Where   string   // filter DSL
	OrderBy []string // col[:asc|desc]
	Limit   int64
	Offset  int64
	Count   string // name of a star_count aggregate
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [collection]",
		Short: "Execute a query request",
		Long: `Compile a query request to SQL, execute it and print the response.

The request is read from --request (protocol JSON) or built from flags.
Filters use a small predicate language:

  name = 'Ann' AND (email IS NULL OR email LIKE '%@example.com')

Examples:
  ndcsqlite query --request req.json
  ndcsqlite query users --fields id,name --where "name = 'Ann'"
  ndcsqlite query posts --order-by score:desc --limit 10 --count total`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args, cmd)
		},
	}
	addRequestFlags(cmd, opts)
	return cmd
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain [collection]",
		Short: "Show the SQL a query request compiles to",
		Long: `Compile a query request and print the SQL and parameters it would
execute, without touching the database. Takes the same inputs as query.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.Context(), opts, args, cmd)
		},
	}
	addRequestFlags(cmd, opts)
	return cmd
}

func addRequestFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "request JSON file (- for stdin)")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "columns to select (default: all)")
	cmd.Flags().StringVar(&opts.Where, "where", "", "filter expression")
	cmd.Flags().StringArrayVar(&opts.OrderBy, "order-by", nil, "order by col[:asc|desc] (repeatable)")
	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "maximum rows")
	cmd.Flags().Int64Var(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVar(&opts.Count, "count", "", "also return a row count aggregate under this name")
}

func runQuery(ctx context.Context, opts *QueryOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	catalog, err := loadCatalog(opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	req, err := opts.buildRequest(args, catalog, cmd.InOrStdin(), cmd)
	if err != nil {
		return reportError(formatter, err)
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	eng, err := newEngine(opts.RootOptions, catalog, st)
	if err != nil {
		return reportError(formatter, err)
	}

	resp, err := eng.Query(ctx, req)
	if err != nil {
		return reportError(formatter, err)
	}
	return formatter.Document(resp)
}

func runExplain(ctx context.Context, opts *QueryOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	catalog, err := loadCatalog(opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	req, err := opts.buildRequest(args, catalog, cmd.InOrStdin(), cmd)
	if err != nil {
		return reportError(formatter, err)
	}

	eng, err := newEngine(opts.RootOptions, catalog, nil)
	if err != nil {
		return reportError(formatter, err)
	}

	explained, err := eng.Explain(ctx, req)
	if err != nil {
		return reportError(formatter, err)
	}
	return formatter.Document(explained)
}

// buildRequest reads --request, or assembles a request from the flags.
func (o *QueryOptions) buildRequest(args []string, catalog *ir.Catalog, stdin io.Reader, cmd *cobra.Command) (*queryir.QueryRequest, error) {
	if o.Request != "" {
		return o.readRequest(stdin)
	}
	if len(args) == 0 {
		return nil, CodedError(ExitCommandError, ErrCodeBadRequest, "collection argument or --request is required", nil)
	}

	collection := args[0]
	table, ok := catalog.Table(collection)
	if !ok {
		return nil, queryir.BadRequest("unknown collection %q", collection).At("collection")
	}

	q := queryir.Query{}
	fields := o.Fields
	if len(fields) == 0 && o.Count == "" {
		fields = table.ColumnNames()
	}
	if len(fields) > 0 {
		q.Fields = make(map[string]queryir.Field, len(fields))
		for _, f := range fields {
			f = strings.TrimSpace(f)
			q.Fields[f] = queryir.ColumnField{Column: f}
		}
	}
	if o.Count != "" {
		q.Aggregates = map[string]queryir.Aggregate{o.Count: queryir.StarCount{}}
	}

	if o.Where != "" {
		where, err := queryir.ParseFilter(o.Where)
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	for _, term := range o.OrderBy {
		el, err := parseOrderBy(term)
		if err != nil {
			return nil, err
		}
		q.OrderBy = append(q.OrderBy, el)
	}

	if cmd.Flags().Changed("limit") {
		limit := o.Limit
		q.Limit = &limit
	}
	if cmd.Flags().Changed("offset") {
		offset := o.Offset
		q.Offset = &offset
	}

	return &queryir.QueryRequest{
		Collection:              collection,
		Query:                   q,
		CollectionRelationships: map[string]queryir.Relationship{},
	}, nil
}

func (o *QueryOptions) readRequest(stdin io.Reader) (*queryir.QueryRequest, error) {
	var (
		data []byte
		err  error
	)
	if o.Request == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(o.Request)
	}
	if err != nil {
		return nil, CodedError(ExitCommandError, ErrCodeBadRequest, "reading request", err)
	}
	return queryir.DecodeQueryRequest(data)
}

// parseOrderBy parses col[:asc|desc].
func parseOrderBy(term string) (queryir.OrderByElement, error) {
	col, dir, found := strings.Cut(strings.TrimSpace(term), ":")
	direction := queryir.Asc
	if found {
		switch strings.ToLower(dir) {
		case "asc":
		case "desc":
			direction = queryir.Desc
		default:
			return queryir.OrderByElement{}, queryir.BadRequest("order-by %q: direction must be asc or desc", term)
		}
	}
	if col == "" {
		return queryir.OrderByElement{}, queryir.BadRequest("order-by %q: column is required", term)
	}
	return queryir.OrderByElement{
		Target:    queryir.OrderByColumn{Name: col},
		Direction: direction,
	}, nil
}

// reportError prints err in the configured format and returns it as an
// ExitError. Request errors exit 1 with their kind as code; storage
// failures exit 1 with E015; ExitErrors keep their own codes.
func reportError(f *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ErrCode
		if code == "" {
			code = ErrCodeGeneric
		}
		_ = f.Error(code, exitErr.Error(), nil)
		return exitErr
	}
	if kind := queryir.KindOf(err); kind != "" {
		_ = f.Error(string(kind), err.Error(), nil)
		return CodedError(ExitFailure, string(kind), "request rejected", err)
	}
	_ = f.Error(ErrCodeQueryFailed, err.Error(), nil)
	return CodedError(ExitFailure, ErrCodeQueryFailed, "query failed", err)
}
