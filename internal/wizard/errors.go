package wizard

import (
	"errors"
	"fmt"

	"mat-portal/internal/validation"
)

var (
	// ErrNotFound indicates the session does not exist or expired.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStep indicates a step number outside 1..3.
	ErrInvalidStep = errors.New("invalid step")

	// ErrStepInvalid indicates required fields of a step failed validation.
	ErrStepInvalid = errors.New("step has invalid fields")

	// ErrSubmissionInProgress indicates the session is waiting on a submission.
	ErrSubmissionInProgress = errors.New("submission in progress")
)

// StepError carries the field failures that blocked an advance.
type StepError struct {
	Step   int
	Fields []validation.FieldError
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %d invalid field(s)", e.Step, len(e.Fields))
}

func (e *StepError) Unwrap() error {
	return ErrStepInvalid
}
