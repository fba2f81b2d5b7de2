package table

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Column is a named sequence of values. Its type is inferred from the non-null
// cells: a single type wins, ints mixed with floats widen to float, and any
// other mix is treated as string. Every non-null cell is held in the column
// type, so a widened column rewrites the cells it already has.
type Column struct {
	Name   string
	values []Value
	typ    ValueType
}

// NewColumn creates a column from values. The slice is owned by the column.
func NewColumn(name string, values []Value) *Column {
	c := &Column{Name: name}
	c.values = make([]Value, 0, len(values))
	for _, v := range values {
		c.append(v)
	}
	return c
}

func (c *Column) append(v Value) {
	typ := mergeType(c.typ, v.Type)
	if typ != c.typ && c.typ != TypeNull {
		for i, old := range c.values {
			c.values[i] = coerce(old, typ)
		}
	}
	c.typ = typ
	c.values = append(c.values, coerce(v, typ))
}

// coerce converts a non-null cell to typ. Only the widenings mergeType can
// produce are handled: int to float, and anything to string.
func coerce(v Value, typ ValueType) Value {
	if v.IsNull() || v.Type == typ {
		return v
	}
	switch typ {
	case TypeFloat:
		if v.Type == TypeInt {
			return FloatVal(float64(v.Int))
		}
	case TypeString:
		return StrVal(v.AsString())
	}
	return v
}

func mergeType(cur, next ValueType) ValueType {
	switch {
	case next == TypeNull:
		return cur
	case cur == TypeNull || cur == next:
		return next
	case (cur == TypeInt && next == TypeFloat) || (cur == TypeFloat && next == TypeInt):
		return TypeFloat
	default:
		return TypeString
	}
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.values)
}

// Type returns the inferred column type. An all-null column is TypeNull.
func (c *Column) Type() ValueType {
	return c.typ
}

// Value returns the i-th cell.
func (c *Column) Value(i int) Value {
	return c.values[i]
}

func (c *Column) clone() *Column {
	vals := make([]Value, len(c.values))
	copy(vals, c.values)
	return &Column{Name: c.Name, values: vals, typ: c.typ}
}

// NullMask returns a mask that is true where the cell is null. It has no
// null entries itself.
func (c *Column) NullMask() *Mask {
	m := NewMask(len(c.values))
	for i, v := range c.values {
		if v.IsNull() {
			m.Set(i, true)
		}
	}
	return m
}

// CastString returns a string-typed copy of the column. Nulls stay null.
func (c *Column) CastString() (*Column, error) {
	out := &Column{Name: c.Name, values: make([]Value, len(c.values))}
	for i, v := range c.values {
		switch v.Type {
		case TypeNull:
			out.values[i] = v
		case TypeInt, TypeFloat, TypeString, TypeBool:
			out.values[i] = StrVal(v.AsString())
		default:
			return nil, fmt.Errorf("cannot cast %s value in column %q to string", v.Type, c.Name)
		}
	}
	if c.typ != TypeNull {
		out.typ = TypeString
	}
	return out, nil
}

// CastFloat returns a float-typed copy of the column. The cast is not strict:
// string cells that do not parse as a number become null.
func (c *Column) CastFloat() (*Column, error) {
	out := &Column{Name: c.Name, values: make([]Value, len(c.values))}
	for i, v := range c.values {
		switch v.Type {
		case TypeNull:
			out.values[i] = v
		case TypeInt:
			out.values[i] = FloatVal(float64(v.Int))
		case TypeFloat:
			out.values[i] = v
		case TypeBool:
			if v.Bool {
				out.values[i] = FloatVal(1)
			} else {
				out.values[i] = FloatVal(0)
			}
		case TypeString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
			if err != nil {
				out.values[i] = Null()
			} else {
				out.values[i] = FloatVal(f)
			}
		default:
			return nil, fmt.Errorf("cannot cast %s value in column %q to float", v.Type, c.Name)
		}
		out.typ = mergeType(out.typ, out.values[i].Type)
	}
	return out, nil
}

// Strings returns the string view of a string-typed column along with the
// validity of each cell. A column of any other type is an error; cast first.
func (c *Column) Strings() ([]string, []bool, error) {
	if c.typ != TypeString && c.typ != TypeNull {
		return nil, nil, fmt.Errorf("column %q is %s, not string", c.Name, c.typ)
	}
	strs := make([]string, len(c.values))
	valid := make([]bool, len(c.values))
	for i, v := range c.values {
		if v.IsNull() {
			continue
		}
		strs[i] = v.AsString()
		valid[i] = true
	}
	return strs, valid, nil
}

// ContainsLiteral tests each cell for a literal substring. Null cells give
// null entries.
func (c *Column) ContainsLiteral(sub string) (*Mask, error) {
	return c.stringPredicate(func(s string) bool { return strings.Contains(s, sub) })
}

// MatchRegexp tests each cell against re. Null cells give null entries.
func (c *Column) MatchRegexp(re *regexp.Regexp) (*Mask, error) {
	return c.stringPredicate(re.MatchString)
}

func (c *Column) stringPredicate(fn func(string) bool) (*Mask, error) {
	strs, valid, err := c.Strings()
	if err != nil {
		return nil, err
	}
	m := NewMask(len(strs))
	for i, s := range strs {
		if !valid[i] {
			m.SetNull(i)
			continue
		}
		m.Set(i, fn(s))
	}
	return m, nil
}

// EqualScalar compares each cell with v. Null cells give null entries.
func (c *Column) EqualScalar(v Value) *Mask {
	return c.compareScalar(v, func(cmp int) bool { return cmp == 0 })
}

// GreaterScalar tests cell > v. Null cells give null entries.
func (c *Column) GreaterScalar(v Value) *Mask {
	return c.compareScalar(v, func(cmp int) bool { return cmp > 0 })
}

// LessScalar tests cell < v. Null cells give null entries.
func (c *Column) LessScalar(v Value) *Mask {
	return c.compareScalar(v, func(cmp int) bool { return cmp < 0 })
}

func (c *Column) compareScalar(v Value, pred func(int) bool) *Mask {
	m := NewMask(len(c.values))
	for i, cell := range c.values {
		if cell.IsNull() || v.IsNull() {
			m.SetNull(i)
			continue
		}
		m.Set(i, pred(Compare(cell, v)))
	}
	return m
}
