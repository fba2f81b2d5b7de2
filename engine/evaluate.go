package engine

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/filter"
	"github.com/razeghi71/tabview/table"
)

// Evaluate compiles a filter tree against t into one mask entry per row.
// The first failing leaf aborts the whole evaluation.
func Evaluate(t *table.Table, node filter.Node) (*table.Mask, error) {
	switch n := node.(type) {
	case *filter.Group:
		return evalGroup(t, n)
	case *filter.Condition:
		return evalCondition(t, n)
	default:
		return nil, errhandling.New(errhandling.KindInvalidRequest, "filter", "unknown filter node %T", node)
	}
}

// ApplyFilter evaluates a tree against t and returns the matching rows.
func ApplyFilter(t *table.Table, node filter.Node) (*table.Table, error) {
	m, err := Evaluate(t, node)
	if err != nil {
		return nil, err
	}
	out, err := t.Filter(m)
	if err != nil {
		return nil, errhandling.Wrap(errhandling.KindCastError, "filter", err)
	}
	return out, nil
}

// evalGroup folds the children left to right. An empty group matches every
// row, whatever its logic.
func evalGroup(t *table.Table, g *filter.Group) (*table.Mask, error) {
	if len(g.Children) == 0 {
		return table.AllTrue(t.Height()), nil
	}

	var acc *table.Mask
	for _, child := range g.Children {
		m, err := Evaluate(t, child)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = m
			continue
		}
		if g.IsOr() {
			acc, err = acc.Or(m)
		} else {
			acc, err = acc.And(m)
		}
		if err != nil {
			return nil, errhandling.Wrap(errhandling.KindCastError, "filter", err)
		}
	}
	return acc, nil
}

func evalCondition(t *table.Table, c *filter.Condition) (*table.Mask, error) {
	col, ok := t.Column(c.Column)
	if !ok {
		return nil, errhandling.ColumnNotFound("filter", c.Column)
	}

	// null checks read the column as is
	switch c.Operator {
	case filter.IsNull:
		return col.NullMask(), nil
	case filter.IsNotNull:
		return col.NullMask().Not(), nil
	}

	strCol, err := col.CastString()
	if err != nil {
		return nil, castError(c, err)
	}
	value := c.ValueOrEmpty()

	switch c.Operator {
	case filter.Contains, filter.NotContains:
		m, err := strCol.ContainsLiteral(value)
		if err != nil {
			return nil, castError(c, err)
		}
		if c.Operator == filter.NotContains {
			m = m.Not()
		}
		return m, nil

	case filter.StartsWith:
		return matchAnchored(c, strCol, "^"+regexp.QuoteMeta(value))

	case filter.EndsWith:
		return matchAnchored(c, strCol, regexp.QuoteMeta(value)+"$")

	case filter.Equals:
		return strCol.EqualScalar(table.StrVal(value)), nil

	case filter.NotEquals:
		return strCol.EqualScalar(table.StrVal(value)).Not(), nil

	case filter.GreaterThan, filter.LessThan:
		return compareOrdered(c, col, strCol, value), nil

	default:
		return nil, errhandling.New(errhandling.KindUnsupportedOperator, "filter", "unsupported operator %s on column %q", c.Operator, c.Column)
	}
}

func matchAnchored(c *filter.Condition, strCol *table.Column, pattern string) (*table.Mask, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, castError(c, err)
	}
	m, err := strCol.MatchRegexp(re)
	if err != nil {
		return nil, castError(c, err)
	}
	return m, nil
}

// compareOrdered compares numerically when the value parses as a float and
// the column casts to float; otherwise it compares the string cast
// lexicographically. The choice is made per condition.
func compareOrdered(c *filter.Condition, col, strCol *table.Column, value string) *table.Mask {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if floats, err := col.CastFloat(); err == nil {
			if c.Operator == filter.GreaterThan {
				return floats.GreaterScalar(table.FloatVal(f))
			}
			return floats.LessScalar(table.FloatVal(f))
		}
	}

	if c.Operator == filter.GreaterThan {
		return strCol.GreaterScalar(table.StrVal(value))
	}
	return strCol.LessScalar(table.StrVal(value))
}

func castError(c *filter.Condition, err error) error {
	return &errhandling.Error{
		Kind:    errhandling.KindCastError,
		Op:      "filter",
		Message: fmt.Sprintf("%s on column %q", c.Operator, c.Column),
		Err:     err,
	}
}
