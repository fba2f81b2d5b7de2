package table

import (
	"testing"
)

func scoresTable() *Table {
	t := NewTable([]string{"name", "score"})
	t.AddRow([]Value{StrVal("a"), IntVal(10)})
	t.AddRow([]Value{StrVal("b"), IntVal(20)})
	t.AddRow([]Value{StrVal("c"), IntVal(5)})
	return t
}

func names(t *Table) []string {
	out := make([]string, t.Height())
	for i := range out {
		out[i] = t.Get(i, "name").AsString()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestColumnTypeInference(t *testing.T) {
	cases := []struct {
		name string
		vals []Value
		want ValueType
	}{
		{"ints", []Value{IntVal(1), Null(), IntVal(2)}, TypeInt},
		{"widen", []Value{IntVal(1), FloatVal(2.5)}, TypeFloat},
		{"mixed", []Value{IntVal(1), StrVal("x")}, TypeString},
		{"bools", []Value{BoolVal(true), BoolVal(false)}, TypeBool},
		{"all null", []Value{Null(), Null()}, TypeNull},
	}
	for _, tc := range cases {
		if got := NewColumn("c", tc.vals).Type(); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestAddRowPadsWithNull(t *testing.T) {
	tbl := NewTable([]string{"a", "b"})
	tbl.AddRow([]Value{IntVal(1)})
	if !tbl.Get(0, "b").IsNull() {
		t.Errorf("expected missing cell to be null")
	}
	if tbl.Height() != 1 || tbl.Width() != 2 {
		t.Errorf("expected 1x2 table, got %dx%d", tbl.Height(), tbl.Width())
	}
}

func TestFromColumnsRejectsBadShapes(t *testing.T) {
	if _, err := FromColumns([]*Column{NewColumn("a", nil), NewColumn("a", nil)}); err == nil {
		t.Error("expected duplicate column error")
	}
	if _, err := FromColumns([]*Column{NewColumn("a", []Value{IntVal(1)}), NewColumn("b", nil)}); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestCastString(t *testing.T) {
	c := NewColumn("x", []Value{IntVal(3), FloatVal(2.5), BoolVal(true), Null()})
	s, err := c.CastString()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"3", "2.5", "true"}
	for i, w := range want {
		if s.Value(i).Type != TypeString || s.Value(i).Str != w {
			t.Errorf("cell %d: expected string %q, got %v", i, w, s.Value(i))
		}
	}
	if !s.Value(3).IsNull() {
		t.Errorf("expected null to stay null")
	}
}

func TestCastStringUnknownType(t *testing.T) {
	c := NewColumn("x", []Value{{Type: ValueType(42)}})
	if _, err := c.CastString(); err == nil {
		t.Fatal("expected cast error for unknown value type")
	}
}

func TestCastFloatIsNotStrict(t *testing.T) {
	c := NewColumn("age", []Value{IntVal(25), StrVal("35"), StrVal("abc"), Null()})
	f, err := c.CastFloat()
	if err != nil {
		t.Fatal(err)
	}
	if f.Value(0).Float != 25 || f.Value(1).Float != 35 {
		t.Errorf("unexpected float cast: %v", f.values)
	}
	if !f.Value(2).IsNull() || !f.Value(3).IsNull() {
		t.Errorf("expected unparseable string and null to be null, got %v", f.values)
	}

	b, err := NewColumn("ok", []Value{BoolVal(true), BoolVal(false)}).CastFloat()
	if err != nil {
		t.Fatal(err)
	}
	if b.Value(0).Float != 1 || b.Value(1).Float != 0 {
		t.Errorf("unexpected bool cast: %v", b.values)
	}
}

func TestColumnHoldsCellsInColumnType(t *testing.T) {
	c := NewColumn("price", []Value{IntVal(1), FloatVal(1.0), Null(), FloatVal(2.5)})
	if c.Type() != TypeFloat {
		t.Fatalf("expected float column, got %s", c.Type())
	}
	if v := c.Value(0); v.Type != TypeFloat || v.Float != 1 {
		t.Errorf("expected int to widen to float, got %v", v)
	}
	if !c.Value(2).IsNull() {
		t.Errorf("expected null to stay null")
	}

	// a later string rewrites the earlier numbers
	tbl := NewTable([]string{"v"})
	tbl.AddRow([]Value{IntVal(25)})
	tbl.AddRow([]Value{FloatVal(2)})
	tbl.AddRow([]Value{StrVal("abc")})
	want := []string{"25", "2.0", "abc"}
	for i, w := range want {
		if v := tbl.Get(i, "v"); v.Type != TypeString || v.Str != w {
			t.Errorf("row %d: expected string %q, got %v", i, w, v)
		}
	}
}

func TestFloatAsStringKeepsDecimalPoint(t *testing.T) {
	cases := map[float64]string{
		2:     "2.0",
		-3:    "-3.0",
		2.5:   "2.5",
		1e21:  "1e+21",
		0.001: "0.001",
	}
	for f, want := range cases {
		if got := FloatVal(f).AsString(); got != want {
			t.Errorf("%v: expected %q, got %q", f, want, got)
		}
	}
}

func TestStringPredicates(t *testing.T) {
	c := NewColumn("name", []Value{StrVal("alpha"), StrVal("beta"), Null()})
	m, err := c.ContainsLiteral("a.")
	if err != nil {
		t.Fatal(err)
	}
	if m.Count() != 0 {
		t.Errorf("contains must be literal, matched %d rows", m.Count())
	}
	m, _ = c.ContainsLiteral("et")
	if !m.Selected(1) || m.Selected(0) {
		t.Errorf("unexpected contains mask %v", m.Bools())
	}
	if _, valid := m.Get(2); valid {
		t.Errorf("expected null cell to give null mask entry")
	}

	if _, err := NewColumn("n", []Value{IntVal(1)}).ContainsLiteral("1"); err == nil {
		t.Error("expected error for string op on int column")
	}
}

func TestScalarComparisons(t *testing.T) {
	c := NewColumn("score", []Value{IntVal(10), IntVal(20), IntVal(5), Null()})
	gt := c.GreaterScalar(FloatVal(9))
	if got := gt.Bools(); !got[0] || !got[1] || got[2] || got[3] {
		t.Errorf("unexpected > mask %v", got)
	}
	lt := c.LessScalar(IntVal(10))
	if lt.Count() != 1 || !lt.Selected(2) {
		t.Errorf("unexpected < mask %v", lt.Bools())
	}
	eq := c.EqualScalar(IntVal(20))
	if eq.Count() != 1 || !eq.Selected(1) {
		t.Errorf("unexpected == mask %v", eq.Bools())
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	tbl := scoresTable()
	result, err := tbl.Filter(MaskFromBools([]bool{true, false, true}))
	if err != nil {
		t.Fatal(err)
	}
	if got := names(result); !equalStrings(got, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", got)
	}
	if _, err := tbl.Filter(NewMask(2)); err == nil {
		t.Error("expected error for short mask")
	}
}

func TestSortDescending(t *testing.T) {
	result, err := scoresTable().Sort(SortKey{Column: "score", Descending: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := names(result); !equalStrings(got, []string{"b", "a", "c"}) {
		t.Errorf("expected [b a c], got %v", got)
	}
}

func TestSortNullsLastBothDirections(t *testing.T) {
	tbl := NewTable([]string{"name", "v"})
	tbl.AddRow([]Value{StrVal("n1"), Null()})
	tbl.AddRow([]Value{StrVal("x"), IntVal(2)})
	tbl.AddRow([]Value{StrVal("n2"), Null()})
	tbl.AddRow([]Value{StrVal("y"), IntVal(1)})

	asc, _ := tbl.Sort(SortKey{Column: "v"})
	if got := names(asc); !equalStrings(got, []string{"y", "x", "n1", "n2"}) {
		t.Errorf("asc: got %v", got)
	}
	desc, _ := tbl.Sort(SortKey{Column: "v", Descending: true})
	if got := names(desc); !equalStrings(got, []string{"x", "y", "n1", "n2"}) {
		t.Errorf("desc: got %v", got)
	}
}

func TestSortMixedColumnIgnoresInputOrder(t *testing.T) {
	orders := [][]Value{
		{IntVal(9), IntVal(10), StrVal("1x")},
		{StrVal("1x"), IntVal(9), IntVal(10)},
		{StrVal("1x"), IntVal(10), IntVal(9)},
	}
	for _, vals := range orders {
		tbl := NewTable([]string{"v"})
		for _, v := range vals {
			tbl.AddRow([]Value{v})
		}
		sorted, err := tbl.Sort(SortKey{Column: "v"})
		if err != nil {
			t.Fatal(err)
		}
		got := make([]string, sorted.Height())
		for i := range got {
			got[i] = sorted.Get(i, "v").AsString()
		}
		// a string column sorts as text
		if !equalStrings(got, []string{"10", "1x", "9"}) {
			t.Errorf("input %v: got %v", vals, got)
		}
	}
}

func TestSortFloatColumnNumerically(t *testing.T) {
	tbl := NewTable([]string{"v"})
	for _, v := range []Value{FloatVal(10.5), IntVal(9), IntVal(100)} {
		tbl.AddRow([]Value{v})
	}
	sorted, _ := tbl.Sort(SortKey{Column: "v"})
	got := []string{sorted.Get(0, "v").AsString(), sorted.Get(1, "v").AsString(), sorted.Get(2, "v").AsString()}
	if !equalStrings(got, []string{"9.0", "10.5", "100.0"}) {
		t.Errorf("got %v", got)
	}
}

func TestSortUnknownColumn(t *testing.T) {
	if _, err := scoresTable().Sort(SortKey{Column: "nope"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSliceClamps(t *testing.T) {
	tbl := scoresTable()
	if got := tbl.Slice(1, 10).Height(); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
	if got := tbl.Slice(5, 1).Height(); got != 0 {
		t.Errorf("expected 0 rows, got %d", got)
	}
	if got := tbl.Slice(0, 0).Height(); got != 0 {
		t.Errorf("expected 0 rows, got %d", got)
	}
	if got := tbl.Slice(-1, 2).Height(); got != 0 {
		t.Errorf("expected 0 rows, got %d", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := scoresTable()
	cp := tbl.Clone()
	cp.AddRow([]Value{StrVal("d"), IntVal(1)})
	if tbl.Height() != 3 || cp.Height() != 4 {
		t.Errorf("clone shares storage: %d / %d", tbl.Height(), cp.Height())
	}
}

func TestRowsJSON(t *testing.T) {
	tbl := scoresTable()
	tbl.AddRow([]Value{StrVal("d"), Null()})
	b, err := tbl.RowsJSON(2, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"name":"c","score":5},{"name":"d","score":null}]`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
	b, _ = tbl.RowsJSON(10, 5)
	if string(b) != "[]" {
		t.Errorf("expected [], got %s", b)
	}
}
