package dfio

import (
	"fmt"
)

// -----------------------------------------------------------------------------
// Dataset
// -----------------------------------------------------------------------------

// Dataset is an ordered, row-indexed table with named columns.
//
// The write pipeline only reads a Dataset and never mutates it; a Dataset is
// therefore safe to share across the concurrent destination writes of one
// call. Cell values are ordinary Go values (string, int64, float64, bool,
// []byte, time.Time); serializers decide how each is rendered.
type Dataset struct {
	columns []string
	rows    [][]any
}

// NewDataset creates a dataset from column names and rows.
//
// Every row must have exactly one value per column. The rows slice is
// retained, not copied; callers must not mutate it while a write is in
// flight.
func NewDataset(columns []string, rows [][]any) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, &ConfigError{Reason: "dataset requires at least one column"}
	}
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if name == "" {
			return nil, &ConfigError{Reason: "dataset column name cannot be empty"}
		}
		if seen[name] {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate dataset column %q", name)}
		}
		seen[name] = true
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &ConfigError{Reason: fmt.Sprintf("row %d has %d values, dataset has %d columns", i, len(row), len(columns))}
		}
	}
	return &Dataset{columns: columns, rows: rows}, nil
}

// Columns returns the column names in order. The returned slice is a copy.
func (d *Dataset) Columns() []string {
	cols := make([]string, len(d.columns))
	copy(cols, d.columns)
	return cols
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int {
	return len(d.rows)
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int {
	return len(d.columns)
}

// Row returns row i. The returned slice is shared with the dataset and must
// be treated as read-only.
func (d *Dataset) Row(i int) []any {
	return d.rows[i]
}

// AppendRow appends one row, validating arity against the column set.
func (d *Dataset) AppendRow(values ...any) error {
	if len(values) != len(d.columns) {
		return &ConfigError{Reason: fmt.Sprintf("row has %d values, dataset has %d columns", len(values), len(d.columns))}
	}
	d.rows = append(d.rows, values)
	return nil
}

// Slice returns a zero-copy view of rows [start, end). The view shares row
// storage with the parent; chunked writes rely on this to avoid materializing
// more than one chunk of bookkeeping at a time.
func (d *Dataset) Slice(start, end int) (*Dataset, error) {
	if start < 0 || end < start || end > len(d.rows) {
		return nil, &ConfigError{Reason: fmt.Sprintf("slice [%d, %d) out of range for %d rows", start, end, len(d.rows))}
	}
	return &Dataset{columns: d.columns, rows: d.rows[start:end]}, nil
}
