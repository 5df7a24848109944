package alert

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage marks a durable read or write failure.
	ErrStorage = errors.New("storage error")
	// ErrPriceUnavailable marks any failure to obtain a quote.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrNotify marks a delivery failure.
	ErrNotify = errors.New("notify failed")
	// ErrValidation marks malformed inbound command text.
	ErrValidation = errors.New("invalid command")
)

// ValidationError describes why inbound text was rejected.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command %q: %s", e.Input, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
