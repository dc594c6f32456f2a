package dfio

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// writeConfig holds the resolved configuration for one Write call.
type writeConfig struct {
	format    Format
	copies    []string
	level     int
	chunkSize int
	zstd      ZstdOptions
	fmtOpts   formatOptions
	mux       *TransportMux
	timeout   time.Duration
	logger    *zap.Logger
}

func defaultWriteConfig() *writeConfig {
	return &writeConfig{
		format: FormatCSV,
		level:  DefaultCompressLevel,
		zstd:   ZstdOptions{Workers: -1},
		mux:    NewTransportMux(),
		logger: zap.NewNop(),
	}
}

// readConfig holds the resolved configuration for one Read call.
type readConfig struct {
	format  Format
	fmtOpts formatOptions
	mux     *TransportMux
	logger  *zap.Logger
}

func defaultReadConfig() *readConfig {
	return &readConfig{
		format: FormatCSV,
		mux:    NewTransportMux(),
		logger: zap.NewNop(),
	}
}

// Option configures Write or Read. Options implement methods for the entry
// points they support; using an option with an unsupported entry point
// returns an error before any I/O.
type Option interface {
	applyWrite(*writeConfig) error
	applyRead(*readConfig) error
}

// -----------------------------------------------------------------------------
// Shared options
// -----------------------------------------------------------------------------

// formatOption implements Option for WithFormat.
type formatOption struct {
	format Format
}

// WithFormat sets the serialization format. Default: FormatCSV.
// The format is never inferred from the path.
func WithFormat(f Format) Option {
	return &formatOption{format: f}
}

func (o *formatOption) applyWrite(cfg *writeConfig) error {
	cfg.format = o.format
	return nil
}

func (o *formatOption) applyRead(cfg *readConfig) error {
	cfg.format = o.format
	return nil
}

// transportOption implements Option for WithTransport.
type transportOption struct {
	mux *TransportMux
}

// WithTransport sets the transport mux routing destinations to backends.
// Default: a mux with only the local filesystem transport. Register remote
// schemes (for example "s3") on the mux before writing to their URIs.
func WithTransport(mux *TransportMux) Option {
	return &transportOption{mux: mux}
}

func (o *transportOption) applyWrite(cfg *writeConfig) error {
	cfg.mux = o.mux
	return nil
}

func (o *transportOption) applyRead(cfg *readConfig) error {
	cfg.mux = o.mux
	return nil
}

// csvOption implements Option for WithCSVOptions.
type csvOption struct {
	opts CSVOptions
}

// WithCSVOptions sets CSV writer/reader options.
func WithCSVOptions(opts CSVOptions) Option {
	return &csvOption{opts: opts}
}

func (o *csvOption) applyWrite(cfg *writeConfig) error {
	cfg.fmtOpts.csv = o.opts
	return nil
}

func (o *csvOption) applyRead(cfg *readConfig) error {
	cfg.fmtOpts.csv = o.opts
	return nil
}

// jsonOption implements Option for WithJSONOptions.
type jsonOption struct {
	opts JSONOptions
}

// WithJSONOptions sets JSON Lines writer/reader options.
func WithJSONOptions(opts JSONOptions) Option {
	return &jsonOption{opts: opts}
}

func (o *jsonOption) applyWrite(cfg *writeConfig) error {
	cfg.fmtOpts.json = o.opts
	return nil
}

func (o *jsonOption) applyRead(cfg *readConfig) error {
	cfg.fmtOpts.json = o.opts
	return nil
}

// parquetOption implements Option for WithParquetOptions.
type parquetOption struct {
	opts ParquetOptions
}

// WithParquetOptions sets Parquet writer options (page compression).
func WithParquetOptions(opts ParquetOptions) Option {
	return &parquetOption{opts: opts}
}

func (o *parquetOption) applyWrite(cfg *writeConfig) error {
	cfg.fmtOpts.parquet = o.opts
	return nil
}

func (o *parquetOption) applyRead(cfg *readConfig) error {
	cfg.fmtOpts.parquet = o.opts
	return nil
}

// loggerOption implements Option for WithLogger.
type loggerOption struct {
	logger *zap.Logger
}

// WithLogger sets the logger for pipeline progress and per-destination
// failures. Default: zap.NewNop() (the library is silent).
func WithLogger(logger *zap.Logger) Option {
	return &loggerOption{logger: logger}
}

func (o *loggerOption) applyWrite(cfg *writeConfig) error {
	cfg.logger = o.logger
	return nil
}

func (o *loggerOption) applyRead(cfg *readConfig) error {
	cfg.logger = o.logger
	return nil
}

// -----------------------------------------------------------------------------
// Write-only options
// -----------------------------------------------------------------------------

// copiesOption implements Option for WithCopies (write-only).
type copiesOption struct {
	paths []string
}

// WithCopies adds copy destinations that receive the identical logical
// content as the primary path, written in parallel with it. Each copy's
// compression codec is inferred from its own suffix.
// This option is only valid for Write.
func WithCopies(paths ...string) Option {
	return &copiesOption{paths: paths}
}

func (o *copiesOption) applyWrite(cfg *writeConfig) error {
	cfg.copies = append(cfg.copies, o.paths...)
	return nil
}

func (o *copiesOption) applyRead(*readConfig) error {
	return fmt.Errorf("WithCopies: %w", ErrOptionNotValidForRead)
}

// levelOption implements Option for WithCompressLevel (write-only).
type levelOption struct {
	level int
}

// WithCompressLevel sets the compression level for every destination whose
// suffix implies a codec: 1..9 for gzip and bzip2, 1..22 for zstd.
// Default: DefaultCompressLevel. Out-of-range levels are rejected before any
// byte is written anywhere.
// This option is only valid for Write.
func WithCompressLevel(level int) Option {
	return &levelOption{level: level}
}

func (o *levelOption) applyWrite(cfg *writeConfig) error {
	cfg.level = o.level
	return nil
}

func (o *levelOption) applyRead(*readConfig) error {
	return fmt.Errorf("WithCompressLevel: %w", ErrOptionNotValidForRead)
}

// chunkSizeOption implements Option for WithChunkSize (write-only).
type chunkSizeOption struct {
	size int
}

// WithChunkSize splits the dataset into chunks of at most size rows, each
// written as an independent sibling output named with a zero-padded chunk
// index. Zero (the default) disables chunking; negative sizes are a
// configuration error. A size >= the row count writes a single unsuffixed
// output, same as no chunking.
// This option is only valid for Write.
func WithChunkSize(size int) Option {
	return &chunkSizeOption{size: size}
}

func (o *chunkSizeOption) applyWrite(cfg *writeConfig) error {
	cfg.chunkSize = o.size
	return nil
}

func (o *chunkSizeOption) applyRead(*readConfig) error {
	return fmt.Errorf("WithChunkSize: %w", ErrOptionNotValidForRead)
}

// zstdOption implements Option for WithZstdOptions (write-only).
type zstdOption struct {
	opts ZstdOptions
}

// WithZstdOptions sets zstd-specific tuning. Default: automatic worker
// count (one per available CPU).
// This option is only valid for Write.
func WithZstdOptions(opts ZstdOptions) Option {
	return &zstdOption{opts: opts}
}

func (o *zstdOption) applyWrite(cfg *writeConfig) error {
	cfg.zstd = o.opts
	return nil
}

func (o *zstdOption) applyRead(*readConfig) error {
	return fmt.Errorf("WithZstdOptions: %w", ErrOptionNotValidForRead)
}

// timeoutOption implements Option for WithTimeout (write-only).
type timeoutOption struct {
	timeout time.Duration
}

// WithTimeout bounds each destination's write within a chunk. A destination
// exceeding it is reported as that destination's timeout failure; siblings in
// the same chunk run to completion.
// This option is only valid for Write.
func WithTimeout(d time.Duration) Option {
	return &timeoutOption{timeout: d}
}

func (o *timeoutOption) applyWrite(cfg *writeConfig) error {
	cfg.timeout = o.timeout
	return nil
}

func (o *timeoutOption) applyRead(*readConfig) error {
	return fmt.Errorf("WithTimeout: %w", ErrOptionNotValidForRead)
}
