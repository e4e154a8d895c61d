// Package table renders rows of text as an aligned ASCII table. Cells may
// carry ANSI color codes; they do not count toward column widths.
package table

import (
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Alignment controls how a cell is padded within its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func width(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

// Table accumulates a header and rows, then writes them with Render.
type Table struct {
	w           io.Writer
	header      []string
	headerAlign []Alignment
	columnAlign []Alignment
	rows        [][]string
}

// NewTable returns an empty table that renders to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.columnAlign = align
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

// Append adds one row.
func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// Render writes the table. Short rows are padded with empty cells.
func (t *Table) Render() error {
	widths := make([]int, len(t.header))
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := width(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	if len(widths) == 0 {
		return nil
	}

	var sb strings.Builder
	border := func() {
		for _, n := range widths {
			sb.WriteString("+" + strings.Repeat("-", n+2))
		}
		sb.WriteString("+\n")
	}
	line := func(row []string, align []Alignment) {
		for i, n := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			a := AlignLeft
			if i < len(align) {
				a = align[i]
			}
			sb.WriteString("| " + pad(cell, n, a) + " ")
		}
		sb.WriteString("|\n")
	}

	border()
	if len(t.header) > 0 {
		line(t.header, t.headerAlign)
		border()
	}
	for _, row := range t.rows {
		line(row, t.columnAlign)
	}
	border()
	_, err := io.WriteString(t.w, sb.String())
	return err
}

func pad(s string, n int, a Alignment) string {
	gap := n - width(s)
	if gap <= 0 {
		return s
	}
	switch a {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}
