package fetcher

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus is wrapped by failures caused by a non-200 response.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ErrRetriesExhausted is returned in Outcome.Err when every attempt failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// statusError records the status of a non-200 response.
func statusError(code int) error {
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
}
