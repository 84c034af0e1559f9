package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: tally run", ErrNotFound)
	ErrUnknownNode = fmt.Errorf("%w: node", ErrNotFound)
	ErrUnknownEdge = fmt.Errorf("%w: edge", ErrNotFound)
	ErrNoEnsemble  = fmt.Errorf("%w: ensemble", ErrNotFound)

	// Validation errors
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrParse            = errors.New("parse error")
	ErrEmptyModel       = errors.New("model has no edges")

	// Simulation errors
	ErrUnstable       = errors.New("no stable community matrix found")
	ErrSingular       = errors.New("community matrix is singular")
	ErrIllConditioned = errors.New("community matrix is ill-conditioned")
)

// Error constructors with context
func NewDimensionError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has size %d, want %d", ErrInvalidDimension, what, got, want)
}

func NewArgumentError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, field, reason)
}

func NewParseError(line int, reason string) error {
	return fmt.Errorf("%w: line %d: %s", ErrParse, line, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err stems from caller input rather
// than from the system.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDimension) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrEmptyModel)
}

func IsSimulationError(err error) bool {
	return errors.Is(err, ErrUnstable) || errors.Is(err, ErrSingular) || errors.Is(err, ErrIllConditioned)
}
