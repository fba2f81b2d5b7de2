package table

import (
	"fmt"
	"sort"
)

// Filter returns the rows selected by mask, in their original order.
func (t *Table) Filter(mask *Mask) (*Table, error) {
	if mask.Len() != t.Height() {
		return nil, fmt.Errorf("filter: mask has %d rows, table has %d", mask.Len(), t.Height())
	}
	return t.Take(mask.Indices()), nil
}

// Take returns a new table holding the given rows in the given order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		out := &Column{Name: c.Name, values: make([]Value, 0, len(rows))}
		for _, r := range rows {
			out.append(c.values[r])
		}
		cols[i] = out
	}
	result, _ := FromColumns(cols)
	return result
}

// Slice returns up to length rows starting at offset. Out-of-range requests
// are clamped and may yield an empty table.
func (t *Table) Slice(offset, length int) *Table {
	h := t.Height()
	if offset < 0 || length <= 0 || offset >= h {
		return t.Empty()
	}
	end := offset + length
	if end > h || end < offset {
		end = h
	}
	rows := make([]int, 0, end-offset)
	for i := offset; i < end; i++ {
		rows = append(rows, i)
	}
	return t.Take(rows)
}

// SortKey is one column of a sort order.
type SortKey struct {
	Column     string
	Descending bool
}

// Sort returns a stably sorted copy. Nulls are ordered last regardless of
// direction.
func (t *Table) Sort(keys ...SortKey) (*Table, error) {
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c, ok := t.Column(k.Column)
		if !ok {
			return nil, fmt.Errorf("sort: column %q not found", k.Column)
		}
		cols[i] = c
	}

	order := make([]int, t.Height())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		for k, c := range cols {
			a := c.values[order[i]]
			b := c.values[order[j]]
			if a.IsNull() || b.IsNull() {
				if a.IsNull() && b.IsNull() {
					continue
				}
				return b.IsNull()
			}
			cmp := Compare(a, b)
			if cmp != 0 {
				if keys[k].Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
	return t.Take(order), nil
}
