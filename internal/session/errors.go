package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCapability is matched by MissingCapabilityError.
	ErrMissingCapability = errors.New("missing capability")
	// ErrBufferAllocationFailed reports that the shared-memory region or
	// its pool/buffer objects could not be created.
	ErrBufferAllocationFailed = errors.New("buffer allocation failed")
	// ErrMappingFailed reports that the shared-memory region could not be
	// mapped into this process.
	ErrMappingFailed = errors.New("buffer mapping failed")
	// ErrTransport is matched by TransportError.
	ErrTransport = errors.New("transport error")
	// ErrProtocolViolation is matched by ProtocolViolationError.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrSessionFailed is returned when a session that already failed is
	// asked to keep running.
	ErrSessionFailed = errors.New("session failed")
)

// MissingCapabilityError reports a required global the compositor never
// advertised.
type MissingCapabilityError struct {
	Interface string
	Role      string
}

func (e *MissingCapabilityError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("missing capability: %s", e.Interface)
	}
	return fmt.Sprintf("missing capability: %s (%s)", e.Interface, e.Role)
}

func (e *MissingCapabilityError) Is(target error) bool {
	return target == ErrMissingCapability
}

// TransportError wraps a failure reading from or writing to the compositor.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolViolationError reports client logic that would break the
// protocol, such as acknowledging a serial that was never received.
type ProtocolViolationError struct {
	Message string
}

func (e *ProtocolViolationError) Error() string {
	return "protocol violation: " + e.Message
}

func (e *ProtocolViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}

func transportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
