package dfio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset_Validation(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]any
	}{
		{"no columns", nil, nil},
		{"empty column name", []string{"a", ""}, nil},
		{"duplicate column", []string{"a", "a"}, nil},
		{"ragged row", []string{"a", "b"}, [][]any{{1, 2}, {3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataset(tt.columns, tt.rows)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestDataset_ColumnsIsACopy(t *testing.T) {
	ds, err := NewDataset([]string{"a", "b"}, nil)
	require.NoError(t, err)

	cols := ds.Columns()
	cols[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
}

func TestDataset_AppendRow(t *testing.T) {
	ds, err := NewDataset([]string{"a", "b"}, nil)
	require.NoError(t, err)

	require.NoError(t, ds.AppendRow(1, "x"))
	require.NoError(t, ds.AppendRow(2, "y"))
	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, []any{2, "y"}, ds.Row(1))

	err = ds.AppendRow(3)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 2, ds.NumRows())
}

func TestDataset_Slice(t *testing.T) {
	ds := numberedDataset(t, 10)

	view, err := ds.Slice(3, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, view.NumRows())
	assert.Equal(t, ds.Columns(), view.Columns())
	assert.Equal(t, ds.Row(3), view.Row(0))
	assert.Equal(t, ds.Row(6), view.Row(3))

	empty, err := ds.Slice(5, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())

	for _, bounds := range [][2]int{{-1, 3}, {4, 2}, {0, 11}} {
		_, err := ds.Slice(bounds[0], bounds[1])
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr, "slice [%d, %d)", bounds[0], bounds[1])
	}
}
