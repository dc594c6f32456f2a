package dfio

import (
	"fmt"
	"io"
	"runtime"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultCompressLevel is the compression level used when none is supplied.
// It is valid for every supported codec.
const DefaultCompressLevel = 6

// Level bounds per codec.
const (
	minDeflateLevel = 1 // gzip and bzip2
	maxDeflateLevel = 9
	minZstdLevel    = 1
	maxZstdLevel    = 22
)

// ZstdOptions holds zstd-specific tuning.
type ZstdOptions struct {
	// Workers controls internal parallel compression. Zero keeps the codec
	// default, a negative value requests one worker per available CPU.
	Workers int
}

// validateCompression checks a (codec, level) combination without touching
// any sink. Write calls it for every resolved destination before any I/O.
func validateCompression(c Compression, level int, _ ZstdOptions) error {
	switch c {
	case CompressionNone:
		return nil
	case CompressionGzip, CompressionBzip2:
		if level < minDeflateLevel || level > maxDeflateLevel {
			return &ConfigError{Reason: fmt.Sprintf("%s level %d out of range [%d, %d]", c, level, minDeflateLevel, maxDeflateLevel)}
		}
		return nil
	case CompressionZstd:
		if level < minZstdLevel || level > maxZstdLevel {
			return &ConfigError{Reason: fmt.Sprintf("zstd level %d out of range [%d, %d]", level, minZstdLevel, maxZstdLevel)}
		}
		return nil
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown compression codec %d", int(c))}
	}
}

// -----------------------------------------------------------------------------
// Write side
// -----------------------------------------------------------------------------

// newCompressor wraps a raw sink with codec c so every written byte is
// compressed before it reaches the sink. Closing the returned WriteCloser
// flushes codec state (footer included) and then closes the underlying sink
// exactly once; repeated Close calls are no-ops.
func newCompressor(sink io.WriteCloser, c Compression, level int, z ZstdOptions) (io.WriteCloser, error) {
	if err := validateCompression(c, level, z); err != nil {
		return nil, err
	}

	switch c {
	case CompressionNone:
		return &compressedSink{sink: sink}, nil

	case CompressionGzip:
		gz, err := gzip.NewWriterLevel(sink, level)
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("gzip writer: %v", err)}
		}
		return &compressedSink{codec: gz, sink: sink}, nil

	case CompressionBzip2:
		bz, err := bzip2.NewWriter(sink, &bzip2.WriterConfig{Level: level})
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("bzip2 writer: %v", err)}
		}
		return &compressedSink{codec: bz, sink: sink}, nil

	case CompressionZstd:
		opts := []zstd.EOption{zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level))}
		if workers := zstdWorkers(z); workers > 0 {
			opts = append(opts, zstd.WithEncoderConcurrency(workers))
		}
		zw, err := zstd.NewWriter(sink, opts...)
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("zstd writer: %v", err)}
		}
		return &compressedSink{codec: zw, sink: sink}, nil

	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown compression codec %d", int(c))}
	}
}

// zstdWorkers resolves the Workers option: negative means automatic.
func zstdWorkers(z ZstdOptions) int {
	if z.Workers < 0 {
		return runtime.GOMAXPROCS(0)
	}
	return z.Workers
}

// compressedSink layers an optional codec stream over a raw sink and owns the
// close ordering: codec first (flushing its footer into the sink), sink
// second, each at most once.
type compressedSink struct {
	codec  io.WriteCloser // nil for CompressionNone
	sink   io.WriteCloser
	closed bool
}

func (s *compressedSink) Write(p []byte) (int, error) {
	if s.codec != nil {
		return s.codec.Write(p)
	}
	return s.sink.Write(p)
}

func (s *compressedSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.codec != nil {
		err = s.codec.Close()
	}
	if cerr := s.sink.Close(); err == nil {
		err = cerr
	}
	return err
}

// -----------------------------------------------------------------------------
// Read side
// -----------------------------------------------------------------------------

// newDecompressor wraps a raw source with the decoder for codec c. The
// returned ReadCloser closes only the decoder; the caller owns the source.
func newDecompressor(src io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(src), nil

	case CompressionGzip:
		gz, err := gzip.NewReader(src)
		if err != nil {
			return nil, err
		}
		return gz, nil

	case CompressionBzip2:
		bz, err := bzip2.NewReader(src, nil)
		if err != nil {
			return nil, err
		}
		return bz, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil

	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown compression codec %d", int(c))}
	}
}
