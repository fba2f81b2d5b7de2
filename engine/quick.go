package engine

import (
	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/table"
)

// QuickMask builds the search-box mask: a literal substring match on the string
// cast of one column, or of every column OR-ed together when column is nil.
// A non-nil column is looked up as given, so "" is a missing column.
// In the all-columns form, columns that cannot be cast are skipped, and a nil
// mask with no error means no column produced one.
func QuickMask(t *table.Table, column *string, query string) (*table.Mask, error) {
	if column != nil {
		col, ok := t.Column(*column)
		if !ok {
			return nil, errhandling.ColumnNotFound("filter", *column)
		}
		strCol, err := col.CastString()
		if err != nil {
			return nil, errhandling.Wrap(errhandling.KindCastError, "filter", err)
		}
		m, err := strCol.ContainsLiteral(query)
		if err != nil {
			return nil, errhandling.Wrap(errhandling.KindCastError, "filter", err)
		}
		return m, nil
	}

	var final *table.Mask
	for i := 0; i < t.Width(); i++ {
		strCol, err := t.ColumnAt(i).CastString()
		if err != nil {
			continue
		}
		m, err := strCol.ContainsLiteral(query)
		if err != nil {
			continue
		}
		if final == nil {
			final = m
			continue
		}
		if final, err = final.Or(m); err != nil {
			return nil, errhandling.Wrap(errhandling.KindCastError, "filter", err)
		}
	}
	return final, nil
}

// QuickFilter applies QuickMask to t. An empty query keeps every row; when no
// column yields a mask the result is empty rather than an error.
func QuickFilter(t *table.Table, column *string, query string) (*table.Table, error) {
	if query == "" {
		return t.Clone(), nil
	}
	m, err := QuickMask(t, column, query)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return t.Empty(), nil
	}
	out, err := t.Filter(m)
	if err != nil {
		return nil, errhandling.Wrap(errhandling.KindCastError, "filter", err)
	}
	return out, nil
}
