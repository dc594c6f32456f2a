package dfio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Frozen jsoniter configs. SortMapKeys stays off so encoded objects keep
// dataset column order.
var (
	jsonPlain   = jsoniter.Config{SortMapKeys: false}.Froze()
	jsonEscaped = jsoniter.Config{EscapeHTML: true, SortMapKeys: false}.Froze()
)

// maxScanTokenSize bounds a single JSON Lines record on decode.
const maxScanTokenSize = 10 * 1024 * 1024 // 10MB

// -----------------------------------------------------------------------------
// Serializer dispatch
// -----------------------------------------------------------------------------

// encoder serializes one dataset (or chunk view) into a byte stream. The
// fan-out writer drives a single encoder per chunk; the encoder is free to
// write incrementally and must not retain w.
type encoder interface {
	encode(w io.Writer, ds *Dataset) error
}

// decoder is the single-source inverse used by Read.
type decoder interface {
	decode(r io.Reader) (*Dataset, error)
}

// formatOptions collects the per-format writer/reader options. Fields are
// named and typed; there is no pass-through of unknown keys.
type formatOptions struct {
	csv     CSVOptions
	json    JSONOptions
	parquet ParquetOptions
}

// newEncoder returns the encoder for a format, validating its options.
func newEncoder(format Format, opts formatOptions) (encoder, error) {
	switch format {
	case FormatCSV:
		if err := opts.csv.validate(); err != nil {
			return nil, err
		}
		return &csvSerializer{opts: opts.csv}, nil
	case FormatJSON:
		return &jsonlSerializer{opts: opts.json}, nil
	case FormatParquet:
		if err := opts.parquet.validate(); err != nil {
			return nil, err
		}
		return &parquetSerializer{opts: opts.parquet}, nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown format %d", int(format))}
	}
}

// newDecoder returns the decoder for a format, validating its options.
func newDecoder(format Format, opts formatOptions) (decoder, error) {
	switch format {
	case FormatCSV:
		if err := opts.csv.validate(); err != nil {
			return nil, err
		}
		return &csvSerializer{opts: opts.csv}, nil
	case FormatJSON:
		return &jsonlSerializer{opts: opts.json}, nil
	case FormatParquet:
		if err := opts.parquet.validate(); err != nil {
			return nil, err
		}
		return &parquetSerializer{opts: opts.parquet}, nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown format %d", int(format))}
	}
}

// -----------------------------------------------------------------------------
// CSV
// -----------------------------------------------------------------------------

// CSVOptions configures the CSV serializer.
type CSVOptions struct {
	// Delimiter is the field separator. Zero means comma.
	Delimiter rune

	// NoHeader suppresses the header row on write and tells Read the first
	// record is data (columns are then named c0, c1, ...).
	NoHeader bool
}

func (o CSVOptions) validate() error {
	switch o.Delimiter {
	case 0, '\n', '\r', '"':
		if o.Delimiter != 0 {
			return &ConfigError{Reason: fmt.Sprintf("csv delimiter %q is not usable", o.Delimiter)}
		}
	}
	return nil
}

func (o CSVOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// csvSerializer renders rows as delimiter-separated text. All cell values are
// stringified on encode; decode yields string cells (CSV carries no types).
type csvSerializer struct {
	opts CSVOptions
}

func (c *csvSerializer) encode(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	cw.Comma = c.opts.delimiter()

	if !c.opts.NoHeader {
		if err := cw.Write(ds.Columns()); err != nil {
			return &SerializationError{Format: FormatCSV, Err: err}
		}
	}

	record := make([]string, ds.NumColumns())
	for i := 0; i < ds.NumRows(); i++ {
		row := ds.Row(i)
		for j, v := range row {
			record[j] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return &SerializationError{Format: FormatCSV, Err: err}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &SerializationError{Format: FormatCSV, Err: err}
	}
	return nil
}

func (c *csvSerializer) decode(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = c.opts.delimiter()

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &SerializationError{Format: FormatCSV, Err: err}
	}
	if len(records) == 0 {
		return nil, &SerializationError{Format: FormatCSV, Err: fmt.Errorf("empty input")}
	}

	var columns []string
	var dataRows [][]string
	if c.opts.NoHeader {
		columns = make([]string, len(records[0]))
		for i := range columns {
			columns[i] = "c" + strconv.Itoa(i)
		}
		dataRows = records
	} else {
		columns = records[0]
		dataRows = records[1:]
	}

	rows := make([][]any, len(dataRows))
	for i, rec := range dataRows {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		rows[i] = row
	}
	return NewDataset(columns, rows)
}

// formatCell renders one cell value as CSV text.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// -----------------------------------------------------------------------------
// JSON Lines
// -----------------------------------------------------------------------------

// JSONOptions configures the JSON Lines serializer.
type JSONOptions struct {
	// EscapeHTML escapes <, > and & in string values, matching
	// encoding/json's default. Off by default.
	EscapeHTML bool
}

// jsonlSerializer writes one JSON object per row, one row per line, with
// object keys in dataset column order.
type jsonlSerializer struct {
	opts JSONOptions
}

func (j *jsonlSerializer) api() jsoniter.API {
	if j.opts.EscapeHTML {
		return jsonEscaped
	}
	return jsonPlain
}

func (j *jsonlSerializer) encode(w io.Writer, ds *Dataset) error {
	stream := j.api().BorrowStream(w)
	defer j.api().ReturnStream(stream)

	columns := ds.Columns()
	for i := 0; i < ds.NumRows(); i++ {
		row := ds.Row(i)
		stream.WriteObjectStart()
		for c, name := range columns {
			if c > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(name)
			stream.WriteVal(row[c])
		}
		stream.WriteObjectEnd()
		stream.WriteRaw("\n")
		if stream.Error != nil {
			return &SerializationError{Format: FormatJSON, Err: stream.Error}
		}
		if stream.Buffered() >= 4096 {
			if err := stream.Flush(); err != nil {
				return &SerializationError{Format: FormatJSON, Err: err}
			}
		}
	}
	if err := stream.Flush(); err != nil {
		return &SerializationError{Format: FormatJSON, Err: err}
	}
	return nil
}

func (j *jsonlSerializer) decode(r io.Reader) (*Dataset, error) {
	var columns []string
	index := map[string]int{}
	var rows [][]any

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		// ReadMapCB visits keys in document order, which preserves the
		// column order the encoder wrote.
		it := j.api().BorrowIterator(line)
		row := make([]any, len(columns))
		it.ReadMapCB(func(it *jsoniter.Iterator, field string) bool {
			pos, known := index[field]
			if !known {
				pos = len(columns)
				columns = append(columns, field)
				index[field] = pos
			}
			for len(row) <= pos {
				row = append(row, nil)
			}
			row[pos] = it.Read()
			return it.Error == nil || it.Error == io.EOF
		})
		err := it.Error
		j.api().ReturnIterator(it)
		if err != nil && err != io.EOF {
			return nil, &SerializationError{Format: FormatJSON, Err: err}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, &SerializationError{Format: FormatJSON, Err: err}
	}
	if len(columns) == 0 {
		return nil, &SerializationError{Format: FormatJSON, Err: fmt.Errorf("no records")}
	}

	// Early rows may be short if later lines introduced new fields.
	for i, row := range rows {
		for len(row) < len(columns) {
			row = append(row, nil)
		}
		rows[i] = row
	}
	return NewDataset(columns, rows)
}
