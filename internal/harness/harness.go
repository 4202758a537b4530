package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/ndcsqlite/internal/engine"
	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
	"github.com/roach88/ndcsqlite/internal/querysql"
	"github.com/roach88/ndcsqlite/internal/store"
	"github.com/roach88/ndcsqlite/internal/testutil"
)

// Options tune a scenario run.
type Options struct {
	// Logger receives engine logs. Nil discards them.
	Logger *slog.Logger

	// UpdateGolden rewrites the scenario's golden file instead of
	// comparing against it.
	UpdateGolden bool
}

// Harness is the test execution engine for one scenario.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Create fresh in-memory database and run fixtures
//  2. Decode and explain the request
//  3. Execute the request through the engine
//  4. Compare against expect or expect_error, then assertions and golden
//
// A non-nil error means the scenario could not be run at all; a request
// that fails or returns the wrong rows is reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.Exec(ctx, scenario.Fixtures...); err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Harness{
		store: st,
		engine: engine.New(
			querysql.NewCompiler(scenario.Schema.Catalog),
			st,
			engine.WithLogger(logger.With("scenario", scenario.Name)),
			engine.WithRequestIDs(testutil.NewFixedRequestID(scenario.Name)),
		),
		logger: logger,
	}

	result := NewResult()
	reqErr := h.execute(ctx, scenario, result)
	if errors.Is(reqErr, context.Canceled) || errors.Is(reqErr, context.DeadlineExceeded) {
		return nil, reqErr
	}

	if scenario.ExpectError != "" {
		checkExpectedError(scenario.ExpectError, reqErr, result)
		return result, nil
	}
	if reqErr != nil {
		result.AddError(fmt.Sprintf("request failed: %v", reqErr))
		return result, nil
	}

	if err := checkExpect(scenario.Expect, result.Response); err != nil {
		result.AddError(err.Error())
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if scenario.Golden != "" {
		if err := checkGoldenFile(scenario.Golden, result.Response, opts.UpdateGolden); err != nil {
			result.AddError(err.Error())
		}
	}

	h.logger.Debug("scenario complete", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}

// execute decodes, explains and runs the request, filling result. The
// returned error is the request's own failure, if any.
func (h *Harness) execute(ctx context.Context, scenario *Scenario, result *Result) error {
	req, err := scenario.Request.Decode()
	if err != nil {
		result.ErrorKind = errorKind(err)
		return err
	}

	explain, err := h.engine.Explain(ctx, req)
	if err != nil {
		result.ErrorKind = errorKind(err)
		return err
	}
	result.SQL = explain.Details

	resp, err := h.engine.Query(ctx, req)
	if err != nil {
		result.ErrorKind = errorKind(err)
		return err
	}
	result.Response = resp
	return nil
}

// errorKind names err's kind; storage failures have none and report "error".
func errorKind(err error) string {
	if kind := queryir.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func checkExpectedError(want string, err error, result *Result) {
	if err == nil {
		result.AddError(fmt.Sprintf("expected %s error, request succeeded", want))
		return
	}
	if result.ErrorKind != want {
		result.AddError(fmt.Sprintf("expected %s error, got %s: %v", want, result.ErrorKind, err))
	}
}

// checkExpect compares the expected row set with the first row set of the
// response, both canonically encoded.
func checkExpect(expect map[string]any, resp ir.QueryResponse) error {
	if len(resp) != 1 {
		return fmt.Errorf("expected one row set, got %d", len(resp))
	}

	want, err := ir.MarshalCanonical(expect)
	if err != nil {
		return fmt.Errorf("encode expect: %w", err)
	}
	got, err := ir.MarshalCanonical(resp[0].ToIR())
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	if !bytes.Equal(want, got) {
		return &AssertionError{Type: "expect", Expected: string(want), Actual: string(got)}
	}
	return nil
}

// CanonicalResponse encodes a response the way golden files store it.
func CanonicalResponse(resp ir.QueryResponse) ([]byte, error) {
	arr := make(ir.IRArray, len(resp))
	for i, rs := range resp {
		arr[i] = rs.ToIR()
	}
	return ir.MarshalCanonical(arr)
}

func checkGoldenFile(path string, resp ir.QueryResponse, update bool) error {
	got, err := CanonicalResponse(resp)
	if err != nil {
		return fmt.Errorf("golden: %w", err)
	}

	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("golden: %w", err)
		}
		if err := os.WriteFile(path, got, 0644); err != nil {
			return fmt.Errorf("golden: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("golden: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), got) {
		return &AssertionError{Type: "golden " + filepath.Base(path), Expected: string(bytes.TrimSpace(want)), Actual: string(got)}
	}
	return nil
}
