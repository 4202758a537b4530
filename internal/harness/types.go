package harness

import (
	"github.com/roach88/ndcsqlite/internal/ir"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Response is what the engine returned, nil when the request failed.
	Response ir.QueryResponse `json:"response,omitempty"`

	// ErrorKind is the kind of the request's error, if it failed.
	ErrorKind string `json:"error_kind,omitempty"`

	// SQL is the compiled statement text, keyed like explain details.
	SQL map[string]string `json:"sql,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// rows returns the returned rows, or nil.
func (r *Result) rows() []ir.IRObject {
	if len(r.Response) == 0 {
		return nil
	}
	return r.Response[0].Rows
}
