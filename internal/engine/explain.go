package engine

import (
	"context"
	"fmt"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
	"github.com/roach88/ndcsqlite/internal/querysql"
)

// Explain compiles req exactly as Query would and reports the statements
// and their parameters without executing anything. Keys are present only
// for the passes the request uses.
func (e *Engine) Explain(ctx context.Context, req *queryir.QueryRequest) (*ir.ExplainResponse, error) {
	log := e.requestLogger(req)

	plan, err := e.compiler.Compile(req)
	if err != nil {
		log.Warn("explain rejected", "kind", queryir.KindOf(err), "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details := map[string]string{}
	if err := addDetails(details, ir.ExplainSQL, ir.ExplainParams, plan.Rows); err != nil {
		return nil, err
	}
	if err := addDetails(details, ir.ExplainAggregatesSQL, ir.ExplainAggregatesParams, plan.Aggregates); err != nil {
		return nil, err
	}

	log.Debug("explained", "statements", len(details)/2)
	return &ir.ExplainResponse{Details: details}, nil
}

func addDetails(details map[string]string, sqlKey, paramsKey string, q *querysql.CompiledQuery) error {
	if q == nil {
		return nil
	}
	params := ir.IRArray{}
	params = append(params, q.Params...)
	data, err := ir.MarshalCanonical(params)
	if err != nil {
		return fmt.Errorf("encode %s: %w", paramsKey, err)
	}
	details[sqlKey] = q.SQL
	details[paramsKey] = string(data)
	return nil
}
