package core

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks an import whose text cannot be read as a recognized export.
	ErrFormat = errors.New("invalid csv")

	// ErrNoMatch is returned when an import parsed but named no known agent.
	ErrNoMatch = errors.New("no matching agents")

	// ErrFileTooLarge is returned when an import exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrAgentNotFound is returned when an agent id is unknown for the owner.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrDuplicateAgent is returned when an agent name is already used in the team.
	ErrDuplicateAgent = errors.New("duplicate agent name")

	// ErrValidation marks request input that failed validation.
	ErrValidation = errors.New("validation failed")
)

// FormatError describes why an import was rejected before any write.
type FormatError struct {
	Reason string
}

func newFormatError(format string, args ...any) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

func (e *FormatError) Error() string {
	return e.Reason
}

// Is lets errors.Is(err, ErrFormat) match any FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
