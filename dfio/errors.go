package dfio

import (
	"errors"
	"fmt"
)

// ErrOptionNotValidForRead indicates a write-only option was passed to Read.
var ErrOptionNotValidForRead = errors.New("option not valid for read")

// ErrOptionNotValidForWrite indicates a read-only option was passed to Write.
var ErrOptionNotValidForWrite = errors.New("option not valid for write")

// -----------------------------------------------------------------------------
// Error taxonomy
// -----------------------------------------------------------------------------

// ConfigError indicates invalid configuration: a bad compression level, a
// negative chunk size, an empty or malformed path, an unknown format, or a
// remote scheme with no registered transport. It is always returned before
// any byte reaches any destination and is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "dfio: invalid configuration: " + e.Reason
}

// TransportError records a failure opening, writing, or closing one
// destination's byte stream. Retry policy, if any, belongs to the transport.
type TransportError struct {
	Destination string
	Op          string // "open", "write", "close"
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dfio: transport %s %s: %v", e.Op, e.Destination, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SerializationError records a format encode or decode failure. It is fatal
// for the affected chunk and surfaces on every destination of that chunk.
type SerializationError struct {
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("dfio: %s serialization: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DestinationError is one failing (chunk, destination) pair. Write aggregates
// every DestinationError of a call; none is dropped in favor of the first.
type DestinationError struct {
	Chunk       int
	Destination string
	Err         error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("dfio: chunk %d destination %s: %v", e.Chunk, e.Destination, e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }
