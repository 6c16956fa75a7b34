package helpers

import (
	"errors"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type SimulatorError struct {
	Message string
	Cause   error
}

func (e *SimulatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SimulatorError) Unwrap() error {
	return e.Cause
}

// Distinct error types for classification at the session and API boundaries.
// TransportError means the connection itself failed and the session should
// fall back and retry; IntentError means the engine rejected or failed a
// specific request and the committed state is untouched.
type TransportError struct{ SimulatorError }
type IntentError struct{ SimulatorError }
type EngineError struct{ SimulatorError }
type StorageError struct{ SimulatorError }
type StructureError struct{ SimulatorError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{SimulatorError{Message: message, Cause: cause}}
}

func NewIntentError(message string, cause error) *IntentError {
	return &IntentError{SimulatorError{Message: message, Cause: cause}}
}

func NewEngineError(message string, cause error) *EngineError {
	return &EngineError{SimulatorError{Message: message, Cause: cause}}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{SimulatorError{Message: message, Cause: cause}}
}

func NewStructureError(message string, cause error) *StructureError {
	return &StructureError{SimulatorError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Classification helpers
// -----------------------------------------------------------------------------

// IsTransport reports whether err is a connection-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsIntent reports whether err is a rejected or failed intent.
func IsIntent(err error) bool {
	var ie *IntentError
	return errors.As(err, &ie)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		fmt.Printf("Warning: Attempt %d/%d failed for %s: %v. Retrying in %v\n", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return nil, lastErr
}
