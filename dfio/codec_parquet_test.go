package dfio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquet_RoundTripTypes(t *testing.T) {
	ts := time.Date(2024, 6, 15, 8, 30, 0, 123456789, time.UTC)
	ds, err := NewDataset(
		[]string{"id", "name", "score", "active", "seen"},
		[][]any{
			{int64(1), "ada", 0.75, true, ts},
			{int64(2), "linus", 0.5, false, ts.Add(time.Hour)},
		},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc, err := newEncoder(FormatParquet, formatOptions{})
	require.NoError(t, err)
	require.NoError(t, enc.encode(&buf, ds))

	dec, err := newDecoder(FormatParquet, formatOptions{})
	require.NoError(t, err)
	got, err := dec.decode(&buf)
	require.NoError(t, err)

	// Group fields come back sorted by name, so compare as column sets.
	assert.ElementsMatch(t, ds.Columns(), got.Columns())
	require.Equal(t, 2, got.NumRows())

	byName := func(d *Dataset, row int) map[string]any {
		out := make(map[string]any)
		for i, col := range d.Columns() {
			out[col] = d.Row(row)[i]
		}
		return out
	}
	for i := 0; i < 2; i++ {
		assert.Equal(t, byName(ds, i), byName(got, i), "row %d", i)
	}
}

func TestParquet_ColumnsComeBackNameSorted(t *testing.T) {
	// Group schemas are name-ordered: declared column order is not preserved,
	// but every cell stays under its column name.
	ds, err := NewDataset(
		[]string{"zulu", "alpha", "mike"},
		[][]any{{"z", "a", "m"}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc, err := newEncoder(FormatParquet, formatOptions{})
	require.NoError(t, err)
	require.NoError(t, enc.encode(&buf, ds))

	dec, err := newDecoder(FormatParquet, formatOptions{})
	require.NoError(t, err)
	got, err := dec.decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "mike", "zulu"}, got.Columns())
	assert.Equal(t, []any{"a", "m", "z"}, got.Row(0))
}

func TestParquet_NullCells(t *testing.T) {
	ds, err := NewDataset(
		[]string{"id", "note"},
		[][]any{
			{int64(1), nil},
			{nil, "present"},
		},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc, err := newEncoder(FormatParquet, formatOptions{})
	require.NoError(t, err)
	require.NoError(t, enc.encode(&buf, ds))

	dec, err := newDecoder(FormatParquet, formatOptions{})
	require.NoError(t, err)
	got, err := dec.decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())

	idCol := -1
	for i, c := range got.Columns() {
		if c == "id" {
			idCol = i
		}
	}
	require.GreaterOrEqual(t, idCol, 0)
	assert.Equal(t, int64(1), got.Row(0)[idCol])
	assert.Nil(t, got.Row(1)[idCol])
}

func TestParquet_MixedTypeColumnFails(t *testing.T) {
	// First non-nil value pins the column type; later mismatches must error
	// rather than silently coerce.
	ds, err := NewDataset(
		[]string{"v"},
		[][]any{{int64(1)}, {"not a number"}},
	)
	require.NoError(t, err)

	enc, err := newEncoder(FormatParquet, formatOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = enc.encode(&buf, ds)
	var serErr *SerializationError
	require.ErrorAs(t, err, &serErr)
	assert.Equal(t, FormatParquet, serErr.Format)
}

func TestParquet_PageCompressionChoices(t *testing.T) {
	ds, err := NewDataset(
		[]string{"msg"},
		[][]any{{strings.Repeat("abc", 100)}, {strings.Repeat("xyz", 100)}},
	)
	require.NoError(t, err)

	for _, pc := range []ParquetPageCompression{ParquetPageSnappy, ParquetPageGzip, ParquetPageNone} {
		enc, err := newEncoder(FormatParquet, formatOptions{parquet: ParquetOptions{PageCompression: pc}})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, enc.encode(&buf, ds))

		dec, err := newDecoder(FormatParquet, formatOptions{})
		require.NoError(t, err)
		got, err := dec.decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 2, got.NumRows())
	}

	_, err = newEncoder(FormatParquet, formatOptions{parquet: ParquetOptions{PageCompression: parquetPageMax}})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestParquet_DecodeEmptyInput(t *testing.T) {
	dec, err := newDecoder(FormatParquet, formatOptions{})
	require.NoError(t, err)

	_, err = dec.decode(bytes.NewReader(nil))
	var serErr *SerializationError
	require.ErrorAs(t, err, &serErr)
}

func TestInferParquetKind(t *testing.T) {
	ds, err := NewDataset(
		[]string{"a", "b", "c", "d", "e", "f"},
		[][]any{
			{nil, nil, nil, nil, nil, nil},
			{int32(5), 1.5, false, []byte{1}, time.Now(), "s"},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, pqInt64, inferParquetKind(ds, 0))
	assert.Equal(t, pqFloat64, inferParquetKind(ds, 1))
	assert.Equal(t, pqBool, inferParquetKind(ds, 2))
	assert.Equal(t, pqBytes, inferParquetKind(ds, 3))
	assert.Equal(t, pqTimestamp, inferParquetKind(ds, 4))
	assert.Equal(t, pqString, inferParquetKind(ds, 5))
}
