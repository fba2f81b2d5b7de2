// Package view holds the shared state of one viewer session: the immutable
// original table, the derived current table with its optional grouping, and
// the source it was loaded from.
//
// Every filter and group-by reads the original, never the current view, and
// replaces the current view only after the new table has been fully built.
// Sort is the one transition that works on the current view.
package view

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/razeghi71/tabview/engine"
	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/filter"
	"github.com/razeghi71/tabview/loader"
	"github.com/razeghi71/tabview/logger"
	"github.com/razeghi71/tabview/parser"
	"github.com/razeghi71/tabview/table"
)

// cell is a value behind its own mutex. A panic inside a critical section
// poisons the cell: the panicking call and every later call get a LockError.
type cell[T any] struct {
	mu       sync.Mutex
	val      T
	poisoned bool
}

func (c *cell[T]) with(op string, fn func(*T) error) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return errhandling.New(errhandling.KindLockError, op, "state is poisoned by an earlier failure")
	}
	defer func() {
		if r := recover(); r != nil {
			c.poisoned = true
			err = errhandling.New(errhandling.KindLockError, op, "panic while holding state lock: %v", r)
		}
	}()
	return fn(&c.val)
}

type viewData struct {
	current  *table.Table
	grouping *engine.Grouping
}

type sourceData struct {
	path   string
	loadID string
}

// State is safe for concurrent use. Concurrent mutations are last-writer-wins.
type State struct {
	original cell[*table.Table]
	view     cell[viewData]
	source   cell[sourceData]

	loads singleflight.Group
}

// New returns an empty state.
func New() *State {
	return &State{}
}

// Info is the read-only projection of the state.
type Info struct {
	Source       string           `json:"filePath"`
	LoadID       string           `json:"loadId"`
	RowCount     int              `json:"rowCount"`
	OriginalRows int              `json:"originalRows"`
	Columns      []string         `json:"columns"`
	Grouping     *engine.Grouping `json:"grouping"`
}

// Load installs t as both original and current, clears any grouping and
// records source. It returns the row count. Nothing changes when any cell is
// poisoned.
func (s *State) Load(t *table.Table, source string) (int, error) {
	const op = "load"
	if t == nil {
		return 0, errhandling.New(errhandling.KindInvalidRequest, op, "nil table")
	}

	// hold all three cells so a poisoned one fails the load before any write
	loadID := uuid.NewString()
	err := s.original.with(op, func(orig **table.Table) error {
		return s.view.with(op, func(v *viewData) error {
			return s.source.with(op, func(src *sourceData) error {
				*orig = t
				v.current = t.Clone()
				v.grouping = nil
				src.path = source
				src.loadID = loadID
				return nil
			})
		})
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("table loaded", "op", op, "source", source, "rows", t.Height(), "columns", t.Width(), "load_id", loadID)
	return t.Height(), nil
}

// LoadFile parses path and installs it. Concurrent loads of the same path share
// one parse.
func (s *State) LoadFile(path string, opts loader.Options) (int, error) {
	v, err, shared := s.loads.Do(path, func() (any, error) {
		return loader.LoadWithOptions(path, opts)
	})
	if err != nil {
		logger.Warn("load failed", "op", "load", "source", path, "error", err)
		return 0, err
	}
	if shared {
		logger.Debug("load shared with concurrent caller", "op", "load", "source", path)
	}
	return s.Load(v.(*table.Table), path)
}

func (s *State) snapshotOriginal(op string) (*table.Table, error) {
	var t *table.Table
	err := s.original.with(op, func(orig **table.Table) error {
		t = *orig
		return nil
	})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errhandling.NoDataLoaded(op)
	}
	return t, nil
}

func (s *State) snapshotCurrent(op string) (*table.Table, error) {
	var t *table.Table
	err := s.view.with(op, func(v *viewData) error {
		t = v.current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errhandling.NoDataLoaded(op)
	}
	return t, nil
}

// replace swaps in a new current table and grouping.
func (s *State) replace(op string, t *table.Table, g *engine.Grouping) error {
	return s.view.with(op, func(v *viewData) error {
		v.current = t
		v.grouping = g
		return nil
	})
}

// Sort stably sorts the current view by column. Nulls go last in both
// directions. An active grouping is kept.
func (s *State) Sort(column string, descending bool) (int, error) {
	const op = "sort"
	var rows int
	err := s.view.with(op, func(v *viewData) error {
		if v.current == nil {
			return errhandling.NoDataLoaded(op)
		}
		if _, ok := v.current.Column(column); !ok {
			return errhandling.ColumnNotFound(op, column)
		}
		sorted, err := v.current.Sort(table.SortKey{Column: column, Descending: descending})
		if err != nil {
			return errhandling.Wrap(errhandling.KindCastError, op, err)
		}
		v.current = sorted
		rows = sorted.Height()
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Debug("view updated", "op", op, "column", column, "descending", descending, "rows", rows)
	return rows, nil
}

// QuickFilter substring-searches the original table, in one column or in all
// of them when column is nil. An empty query restores the original rows.
func (s *State) QuickFilter(column *string, query string) (int, error) {
	const op = "quick_filter"
	orig, err := s.snapshotOriginal(op)
	if err != nil {
		return 0, err
	}
	result, err := engine.QuickFilter(orig, column, query)
	if err != nil {
		return 0, err
	}
	if err := s.replace(op, result, nil); err != nil {
		return 0, err
	}
	scope := "*"
	if column != nil {
		scope = *column
	}
	logger.Debug("view updated", "op", op, "column", scope, "query", query, "rows", result.Height())
	return result.Height(), nil
}

// AdvancedFilter evaluates a predicate tree against the original table.
func (s *State) AdvancedFilter(node filter.Node) (int, error) {
	const op = "advanced_filter"
	orig, err := s.snapshotOriginal(op)
	if err != nil {
		return 0, err
	}
	result, err := engine.ApplyFilter(orig, node)
	if err != nil {
		return 0, err
	}
	if err := s.replace(op, result, nil); err != nil {
		return 0, err
	}
	logger.Debug("view updated", "op", op, "rows", result.Height())
	return result.Height(), nil
}

// TextFilter parses a textual filter expression and applies it like
// AdvancedFilter.
func (s *State) TextFilter(expr string) (int, error) {
	node, err := parser.ParseFilter(expr)
	if err != nil {
		return 0, err
	}
	return s.AdvancedFilter(node)
}

// GroupBy aggregates the original table and makes the result the current view.
// It returns the summary line.
func (s *State) GroupBy(column string, kind engine.AggKind) (string, error) {
	const op = "group"
	orig, err := s.snapshotOriginal(op)
	if err != nil {
		return "", err
	}
	res, err := engine.GroupBy(orig, column, kind)
	if err != nil {
		return "", err
	}
	grouping := res.Grouping
	if err := s.replace(op, res.Table, &grouping); err != nil {
		return "", err
	}
	logger.Debug("view updated", "op", op, "column", column, "grouped", true, "rows", res.Table.Height())
	return res.Summary, nil
}

// ResetGrouping restores a copy of the original table and clears grouping.
func (s *State) ResetGrouping() (int, error) {
	const op = "reset_grouping"
	orig, err := s.snapshotOriginal(op)
	if err != nil {
		return 0, err
	}
	fresh := orig.Clone()
	if err := s.replace(op, fresh, nil); err != nil {
		return 0, err
	}
	logger.Debug("view updated", "op", op, "grouped", false, "rows", fresh.Height())
	return fresh.Height(), nil
}

// Current returns the current view. Tables are never modified in place, so the
// caller may read it without further locking.
func (s *State) Current() (*table.Table, error) {
	return s.snapshotCurrent("current")
}

// Columns returns the column names of the current view.
func (s *State) Columns() ([]string, error) {
	t, err := s.snapshotCurrent("columns")
	if err != nil {
		return nil, err
	}
	return t.ColumnNames(), nil
}

// TotalRows returns the row count of the current view.
func (s *State) TotalRows() (int, error) {
	t, err := s.snapshotCurrent("total_rows")
	if err != nil {
		return 0, err
	}
	return t.Height(), nil
}

// Rows serializes a page of the current view as a JSON array of objects.
func (s *State) Rows(offset, limit int) ([]byte, error) {
	const op = "rows"
	t, err := s.snapshotCurrent(op)
	if err != nil {
		return nil, err
	}
	data, err := t.RowsJSON(offset, limit)
	if err != nil {
		return nil, errhandling.Wrap(errhandling.KindCastError, op, fmt.Errorf("serialize rows: %w", err))
	}
	return data, nil
}

// Info reports source, current shape and grouping. An empty state yields
// zero values, not an error. Source and view are read in separate critical
// sections.
func (s *State) Info() (Info, error) {
	const op = "state"
	info := Info{Columns: []string{}}

	err := s.source.with(op, func(src *sourceData) error {
		info.Source = src.path
		info.LoadID = src.loadID
		return nil
	})
	if err != nil {
		return Info{}, err
	}

	err = s.view.with(op, func(v *viewData) error {
		if v.current != nil {
			info.RowCount = v.current.Height()
			info.Columns = v.current.ColumnNames()
		}
		if v.grouping != nil {
			g := *v.grouping
			info.Grouping = &g
		}
		return nil
	})
	if err != nil {
		return Info{}, err
	}

	err = s.original.with(op, func(orig **table.Table) error {
		if *orig != nil {
			info.OriginalRows = (*orig).Height()
		}
		return nil
	})
	if err != nil {
		return Info{}, err
	}
	return info, nil
}
