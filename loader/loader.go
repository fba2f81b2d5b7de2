package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	goavro "github.com/linkedin/goavro/v2"
	parquet "github.com/parquet-go/parquet-go"

	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/table"
)

// Options tune how delimited text files are read.
type Options struct {
	// Delimiter separates CSV fields. Zero means ','. Ignored for .tsv.
	Delimiter rune
	// TrimSpace strips surrounding whitespace from header names and cells.
	TrimSpace bool
	// NullValues are cell spellings read as null, compared case-insensitively.
	// The empty cell is always null.
	NullValues []string
}

// DefaultOptions returns the options Load uses.
func DefaultOptions() Options {
	return Options{Delimiter: ',', TrimSpace: true, NullValues: []string{"null"}}
}

// Supported lists the file extensions the loader understands.
var Supported = []string{".csv", ".tsv", ".json", ".jsonl", ".avro", ".parquet"}

// Load reads a file with default options and returns a Table.
func Load(filename string) (*table.Table, error) {
	return LoadWithOptions(filename, DefaultOptions())
}

// LoadWithOptions reads a file, picking the format from its extension. Every
// failure is a LoadError naming the file.
func LoadWithOptions(filename string, opts Options) (*table.Table, error) {
	t, err := load(filename, opts)
	if err != nil {
		return nil, &errhandling.Error{Kind: errhandling.KindLoadError, Op: "load", Message: filename, Err: err}
	}
	return t, nil
}

func load(filename string, opts Options) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return loadCSV(filename, opts)
	case ".tsv":
		opts.Delimiter = '\t'
		return loadCSV(filename, opts)
	case ".json":
		return loadJSON(filename)
	case ".jsonl":
		return loadJSONL(filename)
	case ".avro":
		return loadAvro(filename)
	case ".parquet":
		return loadParquet(filename)
	default:
		return nil, fmt.Errorf("unsupported file format %q (supported: %s)", ext, strings.Join(Supported, ", "))
	}
}

func loadCSV(filename string, opts Options) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = opts.TrimSpace
	reader.FieldsPerRecord = -1

	// Read header
	header, err := reader.Read()
	if err == io.EOF {
		return table.NewTable(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if opts.TrimSpace {
			h = strings.TrimSpace(h)
		}
		columns[i] = h
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("duplicate column %q in header", c)
		}
		seen[c] = true
	}
	t := table.NewTable(columns)

	nulls := make(map[string]bool, len(opts.NullValues))
	for _, n := range opts.NullValues {
		nulls[strings.ToLower(n)] = true
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}

		vals := make([]table.Value, len(columns))
		for i := range columns {
			if i < len(record) {
				cell := record[i]
				if opts.TrimSpace {
					cell = strings.TrimSpace(cell)
				}
				vals[i] = parseValue(cell, nulls)
			} else {
				vals[i] = table.Null()
			}
		}
		t.AddRow(vals)
	}

	return t, nil
}

// parseValue infers the type of a text cell: null, int, float, bool, string.
func parseValue(s string, nulls map[string]bool) table.Value {
	if s == "" || nulls[strings.ToLower(s)] {
		return table.Null()
	}

	// Try integer
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return table.IntVal(v)
	}

	// Try float
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return table.FloatVal(v)
	}

	// Try boolean
	lower := strings.ToLower(s)
	if lower == "true" {
		return table.BoolVal(true)
	}
	if lower == "false" {
		return table.BoolVal(false)
	}

	return table.StrVal(s)
}

// record keeps the key order of one JSON object.
type record struct {
	keys   []string
	values map[string]any
}

func (r *record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	r.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if _, seen := r.values[key]; !seen {
			r.keys = append(r.keys, key)
		}
		r.values[key] = v
	}
	_, err = dec.Token()
	return err
}

func loadJSON(filename string) (*table.Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("cannot parse JSON: %w (expected array of objects)", err)
	}

	return buildTableFromRecords(records), nil
}

func loadJSONL(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var records []record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading: %w", err)
	}

	return buildTableFromRecords(records), nil
}

// buildTableFromRecords lays out columns in first-seen key order.
func buildTableFromRecords(records []record) *table.Table {
	if len(records) == 0 {
		return table.NewTable(nil)
	}

	colSet := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for _, k := range rec.keys {
			if !colSet[k] {
				colSet[k] = true
				columns = append(columns, k)
			}
		}
	}

	t := table.NewTable(columns)
	for _, rec := range records {
		vals := make([]table.Value, len(columns))
		for i, col := range columns {
			v, ok := rec.values[col]
			if !ok || v == nil {
				vals[i] = table.Null()
				continue
			}
			vals[i] = jsonValue(v)
		}
		t.AddRow(vals)
	}

	return t
}

func jsonValue(v any) table.Value {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return table.IntVal(i)
		}
		if f, err := val.Float64(); err == nil {
			return table.FloatVal(f)
		}
		return table.StrVal(val.String())
	case string:
		return table.StrVal(val)
	case bool:
		return table.BoolVal(val)
	case nil:
		return table.Null()
	default:
		// For nested objects/arrays, just stringify
		b, _ := json.Marshal(val)
		return table.StrVal(string(b))
	}
}

func loadAvro(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open: %w", err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF: %w", err)
	}

	// Extract column names from the schema
	codec := ocfr.Codec()
	schema := codec.Schema()

	var schemaDef struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(schema), &schemaDef); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	columns := make([]string, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		columns[i] = field.Name
	}

	t := table.NewTable(columns)

	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}

		rec, ok := datum.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}

		vals := make([]table.Value, len(columns))
		for i, col := range columns {
			v, exists := rec[col]
			if !exists || v == nil {
				vals[i] = table.Null()
				continue
			}
			vals[i] = avroValue(v)
		}
		t.AddRow(vals)
	}

	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}

	return t, nil
}

func avroValue(v any) table.Value {
	if v == nil {
		return table.Null()
	}
	switch val := v.(type) {
	case int32:
		return table.IntVal(int64(val))
	case int64:
		return table.IntVal(val)
	case float32:
		return table.FloatVal(float64(val))
	case float64:
		return table.FloatVal(val)
	case string:
		return table.StrVal(val)
	case bool:
		return table.BoolVal(val)
	case []byte:
		return table.StrVal(string(val))
	case map[string]any:
		// Avro unions decode as {"type": value} - extract the value
		for _, inner := range val {
			return avroValue(inner)
		}
		return table.Null()
	default:
		return table.StrVal(fmt.Sprintf("%v", val))
	}
}

// loadParquet reads a flat Parquet file. Each top-level field is a column;
// nested groups are not supported.
func loadParquet(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot read Parquet file: %w", err)
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	fields := reader.Schema().Fields()
	columns := make([]string, len(fields))
	for i, field := range fields {
		if !field.Leaf() {
			return nil, fmt.Errorf("nested Parquet field %q is not supported", field.Name())
		}
		columns[i] = field.Name()
	}

	t := table.NewTable(columns)

	rows := make([]parquet.Row, 128)
	for {
		n, err := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			vals := make([]table.Value, len(columns))
			for i := range vals {
				vals[i] = table.Null()
			}
			for _, v := range row {
				if idx := v.Column(); idx >= 0 && idx < len(vals) {
					vals[idx] = parquetValue(v)
				}
			}
			t.AddRow(vals)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading Parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return t, nil
}

func parquetValue(v parquet.Value) table.Value {
	if v.IsNull() {
		return table.Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return table.BoolVal(v.Boolean())
	case parquet.Int32:
		return table.IntVal(int64(v.Int32()))
	case parquet.Int64:
		return table.IntVal(v.Int64())
	case parquet.Float:
		return table.FloatVal(float64(v.Float()))
	case parquet.Double:
		return table.FloatVal(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return table.StrVal(string(v.ByteArray()))
	default:
		return table.StrVal(v.String())
	}
}
