package dfio

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Read loads a dataset from a single path.
//
// Decompression is inferred from the path suffix with the same rule Write
// uses; the format must be supplied through options (default CSV). Missing
// paths fail with an error wrapping ErrNotFound; malformed content fails
// with a SerializationError.
func Read(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	cfg := defaultReadConfig()
	for _, opt := range opts {
		if err := opt.applyRead(cfg); err != nil {
			return nil, fmt.Errorf("dfio: %w", err)
		}
	}

	spec, err := resolveDestination(path, cfg.format)
	if err != nil {
		return nil, err
	}
	transport, err := cfg.mux.transportFor(spec)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder(cfg.format, cfg.fmtOpts)
	if err != nil {
		return nil, err
	}

	src, err := transport.Open(ctx, path)
	if err != nil {
		return nil, &TransportError{Destination: path, Op: "open", Err: err}
	}
	defer func() { _ = src.Close() }()

	raw, err := newDecompressor(src, spec.Compression)
	if err != nil {
		return nil, &SerializationError{Format: cfg.format, Err: err}
	}
	defer func() { _ = raw.Close() }()

	ds, err := dec.decode(raw)
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug("read complete",
		zap.String("path", path),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", ds.NumColumns()),
		zap.Stringer("compression", spec.Compression))
	return ds, nil
}
