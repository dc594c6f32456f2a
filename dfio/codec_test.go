package dfio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDataset(
		[]string{"id", "name", "score", "active"},
		[][]any{
			{int64(1), "ada", 0.75, true},
			{int64(2), "linus", 0.5, false},
			{int64(3), "grace", 1.0, true},
		},
	)
	require.NoError(t, err)
	return ds
}

func TestCSV_RoundTrip(t *testing.T) {
	ds := testDataset(t)

	var buf bytes.Buffer
	enc, err := newEncoder(FormatCSV, formatOptions{})
	require.NoError(t, err)
	require.NoError(t, enc.encode(&buf, ds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,name,score,active", lines[0])
	assert.Equal(t, "1,ada,0.75,true", lines[1])

	dec, err := newDecoder(FormatCSV, formatOptions{})
	require.NoError(t, err)
	got, err := dec.decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns(), got.Columns())
	assert.Equal(t, ds.NumRows(), got.NumRows())
	assert.Equal(t, []any{"2", "linus", "0.5", "false"}, got.Row(1))
}

func TestCSV_DelimiterAndNoHeader(t *testing.T) {
	ds := testDataset(t)
	opts := formatOptions{csv: CSVOptions{Delimiter: ';', NoHeader: true}}

	var buf bytes.Buffer
	enc, err := newEncoder(FormatCSV, opts)
	require.NoError(t, err)
	require.NoError(t, enc.encode(&buf, ds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1;ada;0.75;true", lines[0])

	dec, err := newDecoder(FormatCSV, opts)
	require.NoError(t, err)
	got, err := dec.decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"c0", "c1", "c2", "c3"}, got.Columns())
	assert.Equal(t, 3, got.NumRows())
}

func TestCSV_InvalidDelimiter(t *testing.T) {
	_, err := newEncoder(FormatCSV, formatOptions{csv: CSVOptions{Delimiter: '\n'}})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCSV_EmptyDatasetWritesHeaderOnly(t *testing.T) {
	ds, err := NewDataset([]string{"a", "b"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc, err := newEncoder(FormatCSV, formatOptions{})
	require.NoError(t, err)
	require.NoError(t, enc.encode(&buf, ds))
	assert.Equal(t, "a,b\n", buf.String())
}

func TestFormatCell(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("raw"), "raw"},
		{true, "true"},
		{42, "42"},
		{int64(-7), "-7"},
		{3.25, "3.25"},
		{ts, "2024-03-01T12:00:00Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCell(tt.in))
	}
}

func TestJSONL_RoundTrip(t *testing.T) {
	ds := testDataset(t)

	var buf bytes.Buffer
	enc, err := newEncoder(FormatJSON, formatOptions{})
	require.NoError(t, err)
	require.NoError(t, enc.encode(&buf, ds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	// Keys appear in column order, one object per line.
	assert.Equal(t, `{"id":1,"name":"ada","score":0.75,"active":true}`, lines[0])

	dec, err := newDecoder(FormatJSON, formatOptions{})
	require.NoError(t, err)
	got, err := dec.decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns(), got.Columns())
	require.Equal(t, 3, got.NumRows())
	// JSON numbers decode as float64.
	assert.Equal(t, []any{float64(2), "linus", 0.5, false}, got.Row(1))
}

func TestJSONL_NullsAndRaggedObjects(t *testing.T) {
	input := `{"a":1,"b":null}
{"a":2,"b":"x","c":true}
`
	dec, err := newDecoder(FormatJSON, formatOptions{})
	require.NoError(t, err)
	got, err := dec.decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got.Columns())
	assert.Equal(t, []any{float64(1), nil, nil}, got.Row(0))
	assert.Equal(t, []any{float64(2), "x", true}, got.Row(1))
}

func TestJSONL_DecodeErrors(t *testing.T) {
	dec, err := newDecoder(FormatJSON, formatOptions{})
	require.NoError(t, err)

	_, err = dec.decode(strings.NewReader(""))
	var serErr *SerializationError
	require.ErrorAs(t, err, &serErr)
}
