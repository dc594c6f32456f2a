// Package dfio provides uniform serialization of in-memory tabular datasets
// to one or more storage destinations.
//
// The core of the package is the write pipeline: a destination path (local
// filesystem or object storage) is resolved into a transport kind and a
// compression codec inferred from its suffix, the dataset is optionally split
// into row-count-bounded chunks, and each chunk's serialized byte stream is
// fanned out to the primary path and every copy path in parallel. Reading is
// the simpler single-destination inverse.
//
// Formats (CSV, JSON Lines, Parquet) and compression codecs (gzip, bzip2,
// zstd) are closed enumerations, not dynamic lookups. Serialization is
// delegated to format libraries; transports are pluggable through the
// Transport interface.
package dfio

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// -----------------------------------------------------------------------------
// Format
// -----------------------------------------------------------------------------

// Format identifies a serialization format for dataset contents.
//
// The set of formats is closed; Write and Read reject values outside it
// before any I/O happens.
type Format int

const (
	// FormatCSV is delimiter-separated text with a header row. Default.
	FormatCSV Format = iota

	// FormatJSON is JSON Lines: one JSON object per record, one per line.
	FormatJSON

	// FormatParquet is Apache Parquet columnar format.
	FormatParquet

	formatMax // sentinel for validation
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatParquet:
		return "parquet"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a format name ("csv", "json", "parquet") to its Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "csv":
		return FormatCSV, nil
	case "json", "jsonl":
		return FormatJSON, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return 0, &ConfigError{Reason: fmt.Sprintf("unknown format %q", name)}
	}
}

// valid reports whether f is a member of the closed format set.
func (f Format) valid() bool {
	return f >= 0 && f < formatMax
}

// -----------------------------------------------------------------------------
// Compression
// -----------------------------------------------------------------------------

// Compression identifies a stream compression codec. It is inferred from the
// destination path's suffix and never from content.
type Compression int

const (
	// CompressionNone passes bytes through unchanged.
	CompressionNone Compression = iota

	// CompressionGzip is gzip (.gz), levels 1..9.
	CompressionGzip

	// CompressionBzip2 is bzip2 (.bz2), levels 1..9.
	CompressionBzip2

	// CompressionZstd is Zstandard (.zst/.zstd), levels 1..22, with optional
	// internal parallel compression.
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// -----------------------------------------------------------------------------
// Transport
// -----------------------------------------------------------------------------

// Transport opens byte streams for destination paths.
//
// Implementations must accept the raw path form they were registered for:
// the local transport receives filesystem paths, remote transports receive
// full URIs (for example "s3://bucket/key"). Create must truncate-or-create;
// partially written destinations after a failure are the transport's concern.
type Transport interface {
	// Create opens a write-only byte sink at path, creating any missing
	// parents where the backend has that concept.
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Open opens path for reading. Missing paths return an error wrapping
	// ErrNotFound.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// ErrNotFound indicates a requested path does not exist.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }
