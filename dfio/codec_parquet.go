package dfio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
)

// -----------------------------------------------------------------------------
// Parquet options
// -----------------------------------------------------------------------------

// ParquetPageCompression selects the compression parquet-go applies inside
// the file, independent of the stream compression inferred from the path.
type ParquetPageCompression int

// Page compression choices.
const (
	ParquetPageSnappy ParquetPageCompression = iota
	ParquetPageGzip
	ParquetPageNone
	parquetPageMax // sentinel for validation
)

// ParquetOptions configures the Parquet serializer.
type ParquetOptions struct {
	// PageCompression is the internal page compression. Default snappy.
	PageCompression ParquetPageCompression
}

func (o ParquetOptions) validate() error {
	if o.PageCompression < 0 || o.PageCompression >= parquetPageMax {
		return &ConfigError{Reason: fmt.Sprintf("unknown parquet page compression %d", int(o.PageCompression))}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Schema inference
// -----------------------------------------------------------------------------

// parquetKind is the physical/logical type chosen for one dataset column.
type parquetKind int

const (
	pqString parquetKind = iota
	pqInt64
	pqFloat64
	pqBool
	pqBytes
	pqTimestamp
)

// inferParquetKind picks a column's parquet type from the first non-nil value
// found in it. Columns with no values default to string.
func inferParquetKind(ds *Dataset, col int) parquetKind {
	for i := 0; i < ds.NumRows(); i++ {
		switch ds.Row(i)[col].(type) {
		case nil:
			continue
		case int, int32, int64:
			return pqInt64
		case float32, float64:
			return pqFloat64
		case bool:
			return pqBool
		case []byte:
			return pqBytes
		case time.Time:
			return pqTimestamp
		default:
			return pqString
		}
	}
	return pqString
}

func (k parquetKind) node() parquet.Node {
	var node parquet.Node
	switch k {
	case pqInt64:
		node = parquet.Int(64)
	case pqFloat64:
		node = parquet.Leaf(parquet.DoubleType)
	case pqBool:
		node = parquet.Leaf(parquet.BooleanType)
	case pqBytes:
		node = parquet.Leaf(parquet.ByteArrayType)
	case pqTimestamp:
		node = parquet.Timestamp(parquet.Nanosecond)
	default:
		node = parquet.String()
	}
	// Every column is optional: datasets carry untyped cells and any of them
	// may be nil.
	return parquet.Optional(node)
}

// -----------------------------------------------------------------------------
// Parquet serializer
// -----------------------------------------------------------------------------

// parquetSerializer encodes a dataset as one Parquet file per chunk. The
// schema is derived from the dataset's column value types.
//
// Group schemas order fields by name, so a decoded dataset lists its columns
// name-sorted rather than in the declared order CSV and JSON preserve. Cell
// values still round-trip by column name.
//
// Parquet files end in a footer referencing every row group, so the encoder
// assembles the chunk in memory before streaming it out; chunked writes bound
// that footprint.
type parquetSerializer struct {
	opts ParquetOptions
}

func (p *parquetSerializer) compression() parquet.WriterOption {
	switch p.opts.PageCompression {
	case ParquetPageGzip:
		return parquet.Compression(&parquet.Gzip)
	case ParquetPageNone:
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

func (p *parquetSerializer) encode(w io.Writer, ds *Dataset) error {
	columns := ds.Columns()
	kinds := make(map[string]parquetKind, len(columns))
	group := make(parquet.Group, len(columns))
	for i, name := range columns {
		kind := inferParquetKind(ds, i)
		kinds[name] = kind
		group[name] = kind.node()
	}
	schema := parquet.NewSchema("record", group)

	// parquet-go orders group fields by name; map schema positions back to
	// dataset columns.
	colIndex := make(map[string]int, len(columns))
	for i, name := range columns {
		colIndex[name] = i
	}
	fields := schema.Fields()

	rowBuf := parquet.NewBuffer(schema)
	row := make(parquet.Row, len(fields))
	for i := 0; i < ds.NumRows(); i++ {
		src := ds.Row(i)
		for fi, field := range fields {
			val := src[colIndex[field.Name()]]
			if val == nil {
				row[fi] = parquet.NullValue().Level(0, 0, fi)
				continue
			}
			pqVal, err := toParquetValue(val, kinds[field.Name()], field.Name(), i)
			if err != nil {
				return err
			}
			row[fi] = pqVal.Level(0, 1, fi)
		}
		if _, err := rowBuf.WriteRows([]parquet.Row{row}); err != nil {
			return &SerializationError{Format: FormatParquet, Err: fmt.Errorf("write row %d: %w", i, err)}
		}
	}

	var buf bytes.Buffer
	pw := parquet.NewWriter(&buf, schema, p.compression())
	if _, err := pw.WriteRowGroup(rowBuf); err != nil {
		_ = pw.Close()
		return &SerializationError{Format: FormatParquet, Err: fmt.Errorf("write row group: %w", err)}
	}
	if err := pw.Close(); err != nil {
		return &SerializationError{Format: FormatParquet, Err: fmt.Errorf("close writer: %w", err)}
	}

	if _, err := io.Copy(w, &buf); err != nil {
		return err
	}
	return nil
}

func (p *parquetSerializer) decode(r io.Reader) (*Dataset, error) {
	// parquet needs random access to reach the footer.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &SerializationError{Format: FormatParquet, Err: err}
	}
	if len(data) == 0 {
		return nil, &SerializationError{Format: FormatParquet, Err: fmt.Errorf("empty input")}
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &SerializationError{Format: FormatParquet, Err: err}
	}

	reader := parquet.NewReader(file)
	defer func() { _ = reader.Close() }()

	fields := reader.Schema().Fields()
	columns := make([]string, len(fields))
	timestampCol := make([]bool, len(fields))
	for i, f := range fields {
		columns[i] = f.Name()
		timestampCol[i] = isTimestampField(f)
	}

	var out [][]any
	rows := make([]parquet.Row, 128)
	for {
		n, err := reader.ReadRows(rows)
		for i := 0; i < n; i++ {
			record := make([]any, len(fields))
			for fi := range fields {
				if fi >= len(rows[i]) {
					continue
				}
				record[fi] = fromParquetValue(rows[i][fi], timestampCol[fi])
			}
			out = append(out, record)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &SerializationError{Format: FormatParquet, Err: err}
		}
	}

	return NewDataset(columns, out)
}

func isTimestampField(f parquet.Field) bool {
	lt := f.Type().LogicalType()
	return lt != nil && lt.Timestamp != nil
}

// toParquetValue converts one cell to the column's parquet type.
func toParquetValue(val any, kind parquetKind, column string, row int) (parquet.Value, error) {
	mismatch := func() (parquet.Value, error) {
		return parquet.Value{}, &SerializationError{
			Format: FormatParquet,
			Err:    fmt.Errorf("row %d column %q: cannot encode %T", row, column, val),
		}
	}

	switch kind {
	case pqInt64:
		switch v := val.(type) {
		case int:
			return parquet.Int64Value(int64(v)), nil
		case int32:
			return parquet.Int64Value(int64(v)), nil
		case int64:
			return parquet.Int64Value(v), nil
		default:
			return mismatch()
		}
	case pqFloat64:
		switch v := val.(type) {
		case float32:
			return parquet.DoubleValue(float64(v)), nil
		case float64:
			return parquet.DoubleValue(v), nil
		default:
			return mismatch()
		}
	case pqBool:
		if v, ok := val.(bool); ok {
			return parquet.BooleanValue(v), nil
		}
		return mismatch()
	case pqBytes:
		switch v := val.(type) {
		case []byte:
			return parquet.ByteArrayValue(v), nil
		case string:
			return parquet.ByteArrayValue([]byte(v)), nil
		default:
			return mismatch()
		}
	case pqTimestamp:
		if v, ok := val.(time.Time); ok {
			return parquet.Int64Value(v.UnixNano()), nil
		}
		return mismatch()
	default: // pqString
		switch v := val.(type) {
		case string:
			return parquet.ByteArrayValue([]byte(v)), nil
		case []byte:
			return parquet.ByteArrayValue(v), nil
		default:
			return parquet.ByteArrayValue([]byte(fmt.Sprintf("%v", v))), nil
		}
	}
}

// fromParquetValue converts a parquet value back to a Go cell value.
func fromParquetValue(val parquet.Value, timestamp bool) any {
	if val.IsNull() {
		return nil
	}
	switch val.Kind() {
	case parquet.Boolean:
		return val.Boolean()
	case parquet.Int32:
		return int64(val.Int32())
	case parquet.Int64:
		if timestamp {
			return time.Unix(0, val.Int64()).UTC()
		}
		return val.Int64()
	case parquet.Float:
		return float64(val.Float())
	case parquet.Double:
		return val.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(val.ByteArray())
	default:
		return val.String()
	}
}
