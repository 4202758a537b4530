package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
	"github.com/roach88/ndcsqlite/internal/querysql"
)

// Query compiles and executes req, returning one row set.
//
// Compilation errors are *queryir.Error values. Storage failures are
// returned wrapped; they carry no queryir kind.
func (e *Engine) Query(ctx context.Context, req *queryir.QueryRequest) (ir.QueryResponse, error) {
	log := e.requestLogger(req)

	plan, err := e.compiler.Compile(req)
	if err != nil {
		log.Warn("query rejected", "kind", queryir.KindOf(err), "error", err)
		return nil, err
	}
	if e.exec == nil {
		return nil, queryir.Internal("engine has no executor")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rs ir.RowSet
	if plan.Rows != nil {
		rows, err := e.run(ctx, log, "rows", plan.Rows)
		if err != nil {
			return nil, err
		}
		rs.Rows, err = Reassemble(req.Query.Fields, rows)
		if err != nil {
			log.Error("reassembly failed", "error", err)
			return nil, err
		}
	}

	if plan.Aggregates != nil {
		rows, err := e.run(ctx, log, "aggregates", plan.Aggregates)
		if err != nil {
			return nil, err
		}
		if len(rows) != 1 {
			return nil, queryir.Internal("aggregate query returned %d rows, expected 1", len(rows))
		}
		rs.Aggregates, err = pickAggregates(req.Query.Aggregates, rows[0])
		if err != nil {
			return nil, err
		}
	}

	log.Info("query complete", "rows", len(rs.Rows), "aggregates", len(rs.Aggregates))
	return ir.QueryResponse{rs}, nil
}

func (e *Engine) run(ctx context.Context, log *slog.Logger, pass string, q *querysql.CompiledQuery) ([]ir.IRObject, error) {
	args, err := q.Args()
	if err != nil {
		return nil, queryir.Internal("%s params: %v", pass, err)
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		hash, err := ir.StatementHash(q.SQL, q.Params)
		if err != nil {
			return nil, queryir.Internal("%s params: %v", pass, err)
		}
		log.Debug("executing", "pass", pass, "sql", q.SQL, "params", len(args), "statement_hash", hash)
	}

	rows, err := e.exec.QueryRows(ctx, q.SQL, args...)
	if err != nil {
		log.Error("execution failed", "pass", pass, "error", err)
		return nil, fmt.Errorf("execute %s: %w", pass, err)
	}
	return rows, nil
}

// pickAggregates copies the requested aggregates out of the single
// aggregate row. Columns that were not requested (the filler) are dropped.
func pickAggregates(requested map[string]queryir.Aggregate, row ir.IRObject) (ir.IRObject, error) {
	out := make(ir.IRObject, len(requested))
	for name := range requested {
		v, ok := row[name]
		if !ok {
			return nil, queryir.Internal("aggregate row has no column %q", name)
		}
		out[name] = v
	}
	return out, nil
}
