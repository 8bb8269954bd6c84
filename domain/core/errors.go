package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrProjectNotFound   = fmt.Errorf("%w: project", ErrNotFound)
	ErrParameterNotFound = fmt.Errorf("%w: drug parameter", ErrNotFound)
	ErrArtifactNotFound  = fmt.Errorf("%w: report artifact", ErrNotFound)

	// Validation errors
	ErrInvalidDesignInput = errors.New("invalid design input")
	ErrMissingCVIntra     = errors.New("CV_intra not available")
	ErrImplausibleValue   = errors.New("implausible parameter value")

	// Lifecycle errors
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPipelineActive    = errors.New("pipeline already running for project")
	ErrNotCompleted      = errors.New("project not yet completed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewDesignInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidDesignInput, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDesignInputError(err error) bool {
	return errors.Is(err, ErrInvalidDesignInput)
}
