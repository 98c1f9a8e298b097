package cli

import (
	"errors"

	"github.com/simaogato/captable-backend/internal/domain"
)

// Process exit codes by error kind
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitValidation   = 2
	ExitNotFound     = 3
	ExitConflict     = 4
	ExitBusinessRule = 5
)

// usageError marks bad command-line input (missing flag, unparsable number)
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// Is lets usage errors share the validation exit code
func (e *usageError) Is(target error) bool {
	return target == domain.ErrValidation
}

// ExitCode maps an error returned by a command onto the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrValidation):
		return ExitValidation
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrConflict):
		return ExitConflict
	case errors.Is(err, domain.ErrBusinessRule):
		return ExitBusinessRule
	default:
		return ExitFailure
	}
}
