package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
	"github.com/roach88/ndcsqlite/internal/querysql"
)

// Executor runs one compiled statement and returns its rows keyed by
// column name. *store.Store implements it.
type Executor interface {
	QueryRows(ctx context.Context, query string, args ...any) ([]ir.IRObject, error)
}

// Engine answers query and explain requests.
//
// Every request is validated and fully compiled before the first statement
// runs: a request that fails to compile never touches storage. Explain
// uses the same compile path as Query, so the SQL it reports is the SQL
// Query would execute.
//
// Engine holds no per-request state; concurrent calls are independent.
type Engine struct {
	compiler *querysql.Compiler
	exec     Executor
	ids      RequestIDGenerator
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRequestIDs sets the request id generator. The default is UUIDv7.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// New creates an Engine that compiles with compiler and executes with exec.
// exec may be nil for an engine that only explains.
func New(compiler *querysql.Compiler, exec Executor, opts ...Option) *Engine {
	e := &Engine{
		compiler: compiler,
		exec:     exec,
		ids:      UUIDv7Generator{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compiler returns the engine's compiler.
func (e *Engine) Compiler() *querysql.Compiler {
	return e.compiler
}

// requestLogger tags a logger with the request id, collection and the
// request's content hash.
func (e *Engine) requestLogger(req *queryir.QueryRequest) *slog.Logger {
	log := e.logger.With("request_id", e.ids.Generate())
	if req == nil {
		return log
	}
	log = log.With("collection", req.Collection)
	if hash, err := ir.RequestHash(req.ToIR()); err == nil {
		log = log.With("request_hash", hash)
	}
	return log
}
