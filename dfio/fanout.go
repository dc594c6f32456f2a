package dfio

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fanoutBuffers is the per-destination channel depth. A slow destination
// backpressures the serializer once its buffers fill, keeping peak memory
// proportional to destinations, not to chunk size.
const fanoutBuffers = 16

// -----------------------------------------------------------------------------
// Write results
// -----------------------------------------------------------------------------

// WriteResult records the outcome of one (chunk, destination) write: the
// compressed bytes handed to the sink, the elapsed wall time, and the error
// if the destination failed.
type WriteResult struct {
	Chunk       int
	Destination string
	Bytes       int64
	Elapsed     time.Duration
	Err         error
}

// target pairs a resolved destination with the transport serving it and the
// chunk-adjusted output path.
type target struct {
	spec      DestinationSpec
	path      string
	transport Transport
}

// -----------------------------------------------------------------------------
// Fan-out writer
// -----------------------------------------------------------------------------

// writeChunk serializes one chunk once and writes the identical byte stream
// to every target concurrently.
//
// One task runs per destination; all start before the serializer and are
// awaited jointly. A destination that fails keeps draining its stream so it
// never stalls the serializer or its siblings, and its failure is recorded in
// its WriteResult rather than propagated as cancellation. The returned error
// is non-nil only for a serialization failure, which is fatal for the whole
// chunk.
func writeChunk(ctx context.Context, chunk int, ds *Dataset, enc encoder, targets []target, cfg *writeConfig) ([]WriteResult, error) {
	results := make([]WriteResult, len(targets))
	feeds := make([]chan []byte, len(targets))
	for i := range targets {
		feeds[i] = make(chan []byte, fanoutBuffers)
	}

	var g errgroup.Group
	for i := range targets {
		g.Go(func() error {
			results[i] = writeDestination(ctx, chunk, targets[i], feeds[i], cfg)
			return nil
		})
	}

	encErr := enc.encode(&fanWriter{feeds: feeds}, ds)
	for _, feed := range feeds {
		close(feed)
	}
	_ = g.Wait()

	for i := range results {
		r := &results[i]
		if r.Err != nil {
			cfg.logger.Warn("destination write failed",
				zap.Int("chunk", chunk),
				zap.String("destination", r.Destination),
				zap.Error(r.Err))
			continue
		}
		cfg.logger.Debug("destination write complete",
			zap.Int("chunk", chunk),
			zap.String("destination", r.Destination),
			zap.Int64("bytes", r.Bytes),
			zap.Duration("elapsed", r.Elapsed))
	}

	if encErr != nil {
		return results, encErr
	}
	return results, nil
}

// writeDestination runs one destination's task: open the sink, wrap it in
// the destination's compressor, consume the chunk stream, and tear down with
// close-once semantics. It always drains feed completely.
func writeDestination(ctx context.Context, chunk int, tgt target, feed <-chan []byte, cfg *writeConfig) WriteResult {
	start := time.Now()
	result := WriteResult{Chunk: chunk, Destination: tgt.path}

	finish := func(err error) WriteResult {
		for range feed {
			// Drain so the serializer and sibling destinations never block
			// on a dead consumer.
		}
		result.Elapsed = time.Since(start)
		result.Err = err
		return result
	}

	wctx := ctx
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	sink, err := tgt.transport.Create(wctx, tgt.path)
	if err != nil {
		return finish(&TransportError{Destination: tgt.path, Op: "open", Err: err})
	}

	counted := &countingSink{sink: sink}
	comp, err := newCompressor(counted, tgt.spec.Compression, cfg.level, cfg.zstd)
	if err != nil {
		_ = sink.Close()
		return finish(err)
	}

	var werr error
	for buf := range feed {
		if werr != nil {
			continue // drain
		}
		if ctxErr := wctx.Err(); ctxErr != nil {
			werr = &TransportError{Destination: tgt.path, Op: "write", Err: ctxErr}
			continue
		}
		if _, err := comp.Write(buf); err != nil {
			werr = &TransportError{Destination: tgt.path, Op: "write", Err: err}
		}
	}

	if err := comp.Close(); err != nil && werr == nil {
		werr = &TransportError{Destination: tgt.path, Op: "close", Err: err}
	}
	if werr == nil {
		if ctxErr := wctx.Err(); ctxErr != nil {
			werr = &TransportError{Destination: tgt.path, Op: "close", Err: ctxErr}
		}
	}

	result.Bytes = counted.n
	result.Elapsed = time.Since(start)
	result.Err = werr
	return result
}

// fanWriter is the io.Writer the serializer sees. Every Write hands each
// destination its own copy of the buffer: destinations may retain or consume
// bytes at their own pace, so no slice is ever shared between tasks.
type fanWriter struct {
	feeds []chan []byte
}

func (f *fanWriter) Write(p []byte) (int, error) {
	for _, feed := range f.feeds {
		cp := make([]byte, len(p))
		copy(cp, p)
		feed <- cp
	}
	return len(p), nil
}

// countingSink counts compressed bytes as they reach the raw sink.
type countingSink struct {
	sink io.WriteCloser
	n    int64
}

func (c *countingSink) Write(p []byte) (int, error) {
	n, err := c.sink.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingSink) Close() error {
	return c.sink.Close()
}
