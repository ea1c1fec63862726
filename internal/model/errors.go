package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure modes the pipeline recovers from or
// surfaces to callers.
var (
	// ErrGenerationTimeout marks a generation call that exceeded its
	// stage deadline. Recovered by retry.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrGenerationMalformed marks a generation response that could not
	// be parsed into the required shape. Recovered by retry.
	ErrGenerationMalformed = errors.New("generation response malformed")

	// ErrRetryExhausted marks a job that consumed its attempt ceiling.
	// Terminal; the job is moved to FAILED.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrDuplicateSubmission is informational: a submit call reused an
	// idempotency key that already has a job record.
	ErrDuplicateSubmission = errors.New("duplicate submission")
)

// ValidationFailure carries the full list of schema violations from a
// rejected QC run.
type ValidationFailure struct {
	Violations []string
}

func (e *ValidationFailure) Error() string {
	if len(e.Violations) == 0 {
		return "article validation failed"
	}
	return fmt.Sprintf("article validation failed: %s", strings.Join(e.Violations, "; "))
}
