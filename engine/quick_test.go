package engine

import (
	"errors"
	"testing"

	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/table"
)

func colName(s string) *string { return &s }

func TestQuickFilterAllColumns(t *testing.T) {
	out, err := QuickFilter(peopleTable(), nil, "NY")
	if err != nil {
		t.Fatal(err)
	}
	if got := column(out, "name"); !sameStrings(got, []string{"Alice", "Charlie", "Frank"}) {
		t.Errorf("unexpected rows: %v", got)
	}

	// numbers are matched on their string form
	out, err = QuickFilter(peopleTable(), nil, "3")
	if err != nil {
		t.Fatal(err)
	}
	if got := column(out, "name"); !sameStrings(got, []string{"Alice", "Charlie"}) {
		t.Errorf("unexpected rows: %v", got)
	}
}

func TestQuickFilterOneColumn(t *testing.T) {
	out, err := QuickFilter(peopleTable(), colName("city"), "A")
	if err != nil {
		t.Fatal(err)
	}
	if got := column(out, "name"); !sameStrings(got, []string{"Bob", "Eve"}) {
		t.Errorf("unexpected rows: %v", got)
	}

	// "a" appears in names but the search is limited to city
	out, err = QuickFilter(peopleTable(), colName("city"), "a")
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 0 {
		t.Errorf("expected 0 rows, got %d", out.Height())
	}
}

func TestQuickFilterNoMatch(t *testing.T) {
	out, err := QuickFilter(peopleTable(), nil, "zzz")
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 0 || out.Width() != 3 {
		t.Errorf("expected empty 3-column table, got %s", out)
	}
}

func TestQuickFilterEmptyQuery(t *testing.T) {
	out, err := QuickFilter(peopleTable(), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 6 {
		t.Errorf("expected 6 rows, got %d", out.Height())
	}
}

func TestQuickFilterNoColumns(t *testing.T) {
	m, err := QuickMask(table.NewTable(nil), nil, "x")
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Errorf("expected nil mask for a table without columns")
	}
	out, err := QuickFilter(table.NewTable(nil), nil, "x")
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 0 {
		t.Errorf("expected empty table")
	}
}

func TestQuickFilterMissingColumn(t *testing.T) {
	_, err := QuickFilter(peopleTable(), colName("missing"), "x")
	if !errors.Is(err, errhandling.ErrColumnNotFound) {
		t.Fatalf("expected ColumnNotFound, got %v", err)
	}
}

func TestQuickFilterEmptyColumnName(t *testing.T) {
	_, err := QuickFilter(peopleTable(), colName(""), "x")
	if !errors.Is(err, errhandling.ErrColumnNotFound) {
		t.Fatalf("expected ColumnNotFound for an empty column name, got %v", err)
	}

	// an empty query keeps every row before the column is looked up
	out, err := QuickFilter(peopleTable(), colName(""), "")
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 6 {
		t.Errorf("expected 6 rows, got %d", out.Height())
	}
}
