package platform

import (
	"errors"

	"github.com/roach88/modelq/internal/engine"
	"github.com/roach88/modelq/internal/loader"
	"github.com/roach88/modelq/internal/store"
)

var (
	// ErrNoModel is returned by query actions on a session with no model loaded.
	ErrNoModel = errors.New("no model loaded in session")

	// ErrInvalidArgument is returned for empty or malformed action arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Codes reported by ErrorCode for platform failures.
const (
	CodeNoModel         = "NO_MODEL"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeGeneric         = "ERROR"
)

// ErrorCode returns the stable code for any error a platform action can
// return: a query error code (TYPE_NOT_FOUND, ...), a loader code (E0xx),
// or one of the platform codes above. nil yields "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := engine.ErrorCode(err); code != "" {
		return string(code)
	}
	if code := loader.Code(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, ErrNoModel):
		return CodeNoModel
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, store.ErrSessionNotFound):
		return CodeSessionNotFound
	default:
		return CodeGeneric
	}
}
