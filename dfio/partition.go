package dfio

import "fmt"

// -----------------------------------------------------------------------------
// Chunk planning
// -----------------------------------------------------------------------------

// rowRange is a half-open [Start, End) row range of the dataset.
type rowRange struct {
	Start int
	End   int
}

func (r rowRange) len() int { return r.End - r.Start }

// planChunks splits n rows into an ordered sequence of ranges of at most
// size rows each.
//
// A size of zero means chunking is disabled; together with size >= n it
// yields the single range [0, n). Negative sizes are a configuration error.
// The plan always covers [0, n) exactly once: contiguous, non-overlapping,
// monotonically increasing, with only the final range allowed to be short.
// Identical inputs yield identical plans.
func planChunks(n, size int) ([]rowRange, error) {
	if n < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("negative row count %d", n)}
	}
	if size < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("chunk size %d must be positive", size)}
	}
	if size == 0 || size >= n {
		return []rowRange{{Start: 0, End: n}}, nil
	}

	plan := make([]rowRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		plan = append(plan, rowRange{Start: start, End: end})
	}
	return plan, nil
}
