package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session id")
)

// TransportError marks a backend failure at the transport level
// (unreachable host, timeout, malformed body). The orchestration layer
// absorbs these into in-band reply text instead of failing the request;
// any other backend error is treated as internal.
type TransportError struct {
	Backend string // "local" or "cloud"
	Err     error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(backend string, format string, args ...any) *TransportError {
	return &TransportError{Backend: backend, Err: fmt.Errorf(format, args...)}
}
