package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks failures the caller can fix by changing the request.
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownCategory = errors.New("unknown category")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
