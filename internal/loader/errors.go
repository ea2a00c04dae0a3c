// Package loader reads metamodels (CUE) and models (YAML or JSON) from disk
// and turns them into the in-memory ir.Schema and ir.Graph the query engine
// consumes.
package loader

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/modelq/internal/compiler"
)

// Error code constants - shared with the CLI.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeCompile      = "E007" // Metamodel does not compile
	ErrCodeParseModel   = "E008" // Model document is not valid YAML/JSON
	ErrCodeUnknownType  = "E009" // Model node names an undeclared type
	ErrCodeUnknownAttr  = "E010" // Model node sets an undeclared attribute
	ErrCodeInvalidValue = "E011" // Attribute value does not match its kind
	ErrCodeAbstractType = "E012" // Model node instantiates an abstract type
	ErrCodeContainment  = "E013" // Child type not allowed by parent's contains
	ErrCodeNoSchema     = "E014" // ModelLoader used without a schema
)

// LoadError represents an error that occurred while loading a metamodel or
// a model. Pos is set for CUE sources; Line and Column for model documents.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Line    int
	Column  int
	Pos     token.Pos

	// Violations are the metamodel validation errors behind an E007.
	Violations []compiler.ValidationError
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Line, e.Column, e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Code returns the LoadError code carried by err, or "" if err is not a
// LoadError.
func Code(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsNotFound reports whether err is a LoadError for a missing path.
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, path string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:       ErrCodeCompile,
			Message:    fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Path:       path,
			Pos:        compileErr.Pos,
			Violations: compileErr.Violations,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
		Path:    path,
	}
}
