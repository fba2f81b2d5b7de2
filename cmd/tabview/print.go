package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/razeghi71/tabview/table"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	rulerColor  = color.New(color.Faint)
	nullColor   = color.New(color.Faint, color.Italic)
)

// printTable writes t as an aligned text table. Colors follow color.NoColor,
// which is off when stdout is not a terminal.
func printTable(w io.Writer, t *table.Table) {
	if t.Width() == 0 {
		return
	}

	// Calculate column widths
	names := t.ColumnNames()
	widths := make([]int, len(names))
	for i, col := range names {
		widths[i] = utf8.RuneCountInString(col)
	}

	// Format all cell values
	cells := make([][]string, t.Height())
	for i := range cells {
		row := t.Row(i)
		cells[i] = make([]string, len(names))
		for j, v := range row {
			cells[i][j] = v.AsString()
			if n := utf8.RuneCountInString(cells[i][j]); n > widths[j] {
				widths[j] = n
			}
		}
	}

	// Print header
	headerParts := make([]string, len(names))
	for i, col := range names {
		headerParts[i] = headerColor.Sprint(padRight(col, widths[i]))
	}
	fmt.Fprintln(w, strings.Join(headerParts, " | "))

	// Print separator
	sepParts := make([]string, len(names))
	for i := range names {
		sepParts[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, rulerColor.Sprint(strings.Join(sepParts, "-+-")))

	// Print rows
	for i, row := range cells {
		parts := make([]string, len(names))
		for j := range names {
			cell := padRight(row[j], widths[j])
			if t.ColumnAt(j).Value(i).IsNull() {
				cell = nullColor.Sprint(cell)
			}
			parts[j] = cell
		}
		fmt.Fprintln(w, strings.Join(parts, " | "))
	}
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
