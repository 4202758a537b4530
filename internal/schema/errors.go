package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes (E001-E099), shared with the CLI's error output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE or YAML load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoTables    = "E007" // Catalog declares no tables
	ErrCodeBadTable    = "E008" // Table declaration malformed
)

// Catalog validation codes (E200-E299).
const (
	ErrTableNameEmpty    = "E201" // table name is required
	ErrDuplicateTable    = "E202" // two tables share a name
	ErrTableNoColumns    = "E203" // table declares no columns
	ErrFKTargetMissing   = "E204" // foreign key targets an unknown table
	ErrFKSourceColumn    = "E205" // foreign key column missing on the owning table
	ErrFKTargetColumn    = "E206" // foreign key column missing on the target table
	ErrPKColumnMissing   = "E207" // primary key names an unknown column
	ErrColumnInvalid     = "E208" // empty or duplicate column name
	ErrFKColumnsRequired = "E209" // foreign key maps no columns
)

// LoadError reports a catalog source that could not be read or decoded.
// Pos carries the CUE source position when one is known.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	b.WriteString(e.Code)
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Line returns the source line of the error, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one catalog.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no validation errors"
	case 1:
		return errs[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", errs[0].Error(), len(errs)-1)
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, field string) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeLoadFailed, Field: field, Message: err.Error()}
	}

	first := errs[0]
	loadErr := &LoadError{Code: ErrCodeLoadFailed, Field: field, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}
