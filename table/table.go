package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Value is a dynamically-typed cell in a table.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return formatFloat(v.Float)
	case TypeString:
		return v.Str
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

// formatFloat keeps a decimal point on whole numbers so a float cell never
// reads like an int: 2 is "2.0", 2.5 is "2.5", 1e+21 stays as is.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

// Interface returns the value as a plain Go value suitable for encoding/json.
// Non-finite floats have no JSON form and come back as nil.
func (v Value) Interface() any {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return nil
		}
		return v.Float
	case TypeString:
		return v.Str
	case TypeBool:
		return v.Bool
	default:
		return nil
	}
}

// Compare orders two values: nulls last, numbers numerically, everything else
// by string representation. Cells of one column share a type, so within a
// column this is a total order.
func Compare(a, b Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}

	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	}

	return strings.Compare(a.AsString(), b.AsString())
}

// Table is an ordered set of equally long, uniquely named columns.
// Operations never modify a table in place; they return a new one.
type Table struct {
	columns []*Column
	index   map[string]int
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, name := range columns {
		t.index[name] = len(t.columns)
		t.columns = append(t.columns, &Column{Name: name})
	}
	return t
}

// FromColumns builds a table from existing columns, checking that names are
// unique and lengths agree.
func FromColumns(cols []*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if i > 0 && c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), cols[0].Len())
		}
		t.index[c.Name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// AddRow appends a row to the table. Missing trailing values are null.
// Only used while building a table.
func (t *Table) AddRow(values []Value) {
	for i, c := range t.columns {
		if i < len(values) {
			c.append(values[i])
		} else {
			c.append(Null())
		}
	}
}

// Height returns the number of rows.
func (t *Table) Height() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// ColIndex returns the index of a column by name, or -1.
func (t *Table) ColIndex(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	return -1
}

// Column returns a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	idx := t.ColIndex(name)
	if idx < 0 {
		return nil, false
	}
	return t.columns[idx], true
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column {
	return t.columns[i]
}

// Get returns the value at a given row and column name.
func (t *Table) Get(row int, col string) Value {
	c, ok := t.Column(col)
	if !ok || row < 0 || row >= c.Len() {
		return Null()
	}
	return c.values[row]
}

// Row returns the values of one row in column order.
func (t *Table) Row(i int) []Value {
	vals := make([]Value, len(t.columns))
	for j, c := range t.columns {
		vals[j] = c.values[i]
	}
	return vals
}

// Clone creates a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.clone()
	}
	out, _ := FromColumns(cols)
	return out
}

// Empty returns a zero-row table with the same columns.
func (t *Table) Empty() *Table {
	return NewTable(t.ColumnNames())
}

// String returns a compact representation of the table.
func (t *Table) String() string {
	if t.Height() == 0 {
		return "[" + strings.Join(t.ColumnNames(), ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i := 0; i < t.Height(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, c := range t.columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.Name)
			sb.WriteString(":")
			sb.WriteString(c.values[i].AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
