package dfio

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Write report
// -----------------------------------------------------------------------------

// WriteReport is the outcome of one Write call: the resolved destination
// paths (primary first), the number of chunks, and one WriteResult per
// (chunk, destination) pair in chunk order.
type WriteReport struct {
	Destinations []string
	Chunks       int
	Results      []WriteResult
}

// Failed returns the results that carry an error.
func (r *WriteReport) Failed() []WriteResult {
	var failed []WriteResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// -----------------------------------------------------------------------------
// Write orchestrator
// -----------------------------------------------------------------------------

// Write serializes ds to path and every copy path.
//
// Destinations are resolved once: transport kind and compression codec come
// from each path's suffix, the format from options. Configuration problems
// (bad level, bad chunk size, empty path, unknown format, unregistered
// remote scheme) fail here, before any byte reaches any destination.
//
// With chunking enabled the dataset is split into row ranges written
// strictly in order; within each chunk all destinations are written in
// parallel with identical logical content. The call succeeds only if every
// destination of every chunk succeeded; otherwise the returned error
// aggregates every failing (chunk, destination) pair and the report carries
// the full per-destination outcomes.
//
// Each Write call is independent: its worker group is created for the call
// and torn down when it returns, and no state is shared with other calls.
//
// The returned report is never nil; a call that fails before any I/O returns
// an empty report alongside the error.
func Write(ctx context.Context, ds *Dataset, path string, opts ...Option) (*WriteReport, error) {
	report := &WriteReport{}
	if ds == nil {
		return report, &ConfigError{Reason: "dataset is nil"}
	}

	cfg := defaultWriteConfig()
	for _, opt := range opts {
		if err := opt.applyWrite(cfg); err != nil {
			return report, fmt.Errorf("dfio: %w", err)
		}
	}

	// Resolve every destination and validate the whole configuration before
	// the first byte of I/O.
	paths := append([]string{path}, cfg.copies...)
	specs := make([]DestinationSpec, len(paths))
	transports := make([]Transport, len(paths))
	for i, p := range paths {
		spec, err := resolveDestination(p, cfg.format)
		if err != nil {
			return report, err
		}
		if err := validateCompression(spec.Compression, cfg.level, cfg.zstd); err != nil {
			return report, err
		}
		t, err := cfg.mux.transportFor(spec)
		if err != nil {
			return report, err
		}
		specs[i] = spec
		transports[i] = t
	}

	enc, err := newEncoder(cfg.format, cfg.fmtOpts)
	if err != nil {
		return report, err
	}

	plan, err := planChunks(ds.NumRows(), cfg.chunkSize)
	if err != nil {
		return report, err
	}
	chunked := len(plan) > 1

	report.Destinations = paths
	report.Chunks = len(plan)

	cfg.logger.Debug("write starting",
		zap.Int("rows", ds.NumRows()),
		zap.Int("chunks", len(plan)),
		zap.Int("destinations", len(paths)),
		zap.Stringer("format", cfg.format))

	var agg *multierror.Error
	for ci, rng := range plan {
		if ctxErr := ctx.Err(); ctxErr != nil {
			agg = multierror.Append(agg, fmt.Errorf("dfio: write aborted before chunk %d: %w", ci, ctxErr))
			break
		}

		view, err := ds.Slice(rng.Start, rng.End)
		if err != nil {
			return report, err
		}

		targets := make([]target, len(specs))
		for i, spec := range specs {
			outPath := spec.Path
			if chunked {
				outPath = chunkPath(spec.Path, ci)
			}
			targets[i] = target{spec: spec, path: outPath, transport: transports[i]}
		}

		results, encErr := writeChunk(ctx, ci, view, enc, targets, cfg)
		report.Results = append(report.Results, results...)
		for _, r := range results {
			if r.Err != nil {
				agg = multierror.Append(agg, &DestinationError{Chunk: ci, Destination: r.Destination, Err: r.Err})
			}
		}
		if encErr != nil {
			// A serialization failure poisons every remaining chunk the same
			// way; surface it once and stop.
			agg = multierror.Append(agg, encErr)
			break
		}
	}

	return report, agg.ErrorOrNil()
}
