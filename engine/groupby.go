package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/table"
)

// AggKind selects the reduction applied to each group.
type AggKind int

const (
	AggCount AggKind = iota
	AggSum
	AggMean
	AggMin
	AggMax
)

var aggLabels = []string{"Count", "Sum", "Mean", "Min", "Max"}

// Label is the display name, also used as the result column name.
func (k AggKind) Label() string {
	if int(k) >= 0 && int(k) < len(aggLabels) {
		return aggLabels[k]
	}
	return fmt.Sprintf("AggKind(%d)", int(k))
}

func (k AggKind) String() string {
	return k.Label()
}

// ParseAggKind maps "Count", "sum", ... to an AggKind.
func ParseAggKind(s string) (AggKind, error) {
	for i, label := range aggLabels {
		if strings.EqualFold(strings.TrimSpace(s), label) {
			return AggKind(i), nil
		}
	}
	return 0, errhandling.New(errhandling.KindInvalidRequest, "group", "unknown aggregation %q (expected one of %s)", s, strings.Join(aggLabels, ", "))
}

// Grouping describes an active group-by over the original table.
type Grouping struct {
	Column      string `json:"column"`
	Aggregation string `json:"aggregation"`
}

// GroupResult is the outcome of GroupBy.
type GroupResult struct {
	Table    *table.Table
	Summary  string
	Grouping Grouping
}

// GroupBy partitions t by the distinct values of column and reduces each group
// with kind. The same column is both the key and the reduced value, so Sum,
// Mean, Min and Max need a numeric column; Count ignores the values.
//
// The result has one row per group, columns [column, label], sorted by the
// label column descending with nulls last. Ties keep first-appearance order.
func GroupBy(t *table.Table, column string, kind AggKind) (*GroupResult, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, errhandling.ColumnNotFound("group", column)
	}
	if kind < AggCount || kind > AggMax {
		return nil, errhandling.New(errhandling.KindInvalidRequest, "group", "unknown aggregation %d", int(kind))
	}

	// Build groups preserving order
	type groupEntry struct {
		key    table.Value
		values []table.Value
	}
	var groups []groupEntry
	keyMap := make(map[string]int)

	// cells already hold the column type, so equal values render equally
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		keyStr := "\x00"
		if !v.IsNull() {
			keyStr = "v" + v.AsString()
		}
		gi, exists := keyMap[keyStr]
		if !exists {
			gi = len(groups)
			groups = append(groups, groupEntry{key: v})
			keyMap[keyStr] = gi
		}
		groups[gi].values = append(groups[gi].values, v)
	}

	label := kind.Label()
	resultName := label
	if resultName == column {
		resultName = column + "_" + label
	}

	result := table.NewTable([]string{column, resultName})
	for _, g := range groups {
		agg, err := reduce(kind, g.values)
		if err != nil {
			return nil, &errhandling.Error{
				Kind:    errhandling.KindCastError,
				Op:      "group",
				Message: fmt.Sprintf("%s of column %q", label, column),
				Err:     err,
			}
		}
		result.AddRow([]table.Value{g.key, agg})
	}

	sorted, err := result.Sort(table.SortKey{Column: resultName, Descending: true})
	if err != nil {
		return nil, errhandling.Wrap(errhandling.KindCastError, "group", err)
	}

	return &GroupResult{
		Table:    sorted,
		Summary:  fmt.Sprintf("Grouped by %s with %s, found %d groups", column, label, len(groups)),
		Grouping: Grouping{Column: column, Aggregation: label},
	}, nil
}

func reduce(kind AggKind, vals []table.Value) (table.Value, error) {
	switch kind {
	case AggCount:
		return table.IntVal(int64(len(vals))), nil
	case AggSum:
		return aggSum(vals)
	case AggMean:
		return aggMean(vals)
	case AggMin:
		return aggExtreme(vals, "min", func(a, b float64) bool { return a < b })
	case AggMax:
		return aggExtreme(vals, "max", func(a, b float64) bool { return a > b })
	}
	return table.Null(), fmt.Errorf("unknown aggregation %d", int(kind))
}

func aggSum(vals []table.Value) (table.Value, error) {
	var sum float64
	hasInt := true
	var intSum int64
	seen := false
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return table.Null(), fmt.Errorf("sum: non-numeric value %v", v.AsString())
		}
		sum += f
		seen = true
		if v.Type == table.TypeInt {
			intSum += v.Int
		} else {
			hasInt = false
		}
	}
	if !seen {
		return table.Null(), nil
	}
	if hasInt {
		return table.IntVal(intSum), nil
	}
	return table.FloatVal(sum), nil
}

func aggMean(vals []table.Value) (table.Value, error) {
	var sum float64
	count := 0
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return table.Null(), fmt.Errorf("mean: non-numeric value %v", v.AsString())
		}
		sum += f
		count++
	}
	if count == 0 {
		return table.Null(), nil
	}
	return table.FloatVal(sum / float64(count)), nil
}

// aggExtreme returns the cell that wins better(), keeping the column type.
func aggExtreme(vals []table.Value, name string, better func(a, b float64) bool) (table.Value, error) {
	best := table.Null()
	bestF := math.NaN()
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return table.Null(), fmt.Errorf("%s: non-numeric value %v", name, v.AsString())
		}
		if best.IsNull() || better(f, bestF) {
			best = v
			bestF = f
		}
	}
	return best, nil
}
