package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conversion client.
var (
	ErrInvalidEndpoint  = errors.New("invalid backend endpoint")
	ErrTransport        = errors.New("backend request failed")
	ErrResponseTooLarge = errors.New("backend response too large")
	ErrInvalidResponse  = errors.New("invalid backend response")
)

// ServiceError is a non-2xx reply from the conversion service. Message is
// the service's own error text when it sent one.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Detail includes the status code, for logs.
func (e *ServiceError) Detail() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}
