package cli

import (
	"fmt"
	"io"
	"strings"

	tsstrings "tsinventory/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// PlainTableWriter writes kubectl-style tables: no borders, upper-case
// headers, columns separated by spaces. Output pipes cleanly into grep, awk
// and cut.
type PlainTableWriter struct {
	headers      []string
	rows         [][]string
	columnWidths []int
	// minPadding is the minimum space between columns
	minPadding int
	// maxCellWidth truncates cells longer than this; 0 disables truncation
	maxCellWidth int
	showHeaders  bool
	output       io.Writer
}

// NewPlainTableWriter creates a writer that shows headers and does not
// truncate.
func NewPlainTableWriter(output io.Writer) *PlainTableWriter {
	return &PlainTableWriter{
		headers:      []string{},
		rows:         [][]string{},
		columnWidths: []int{},
		minPadding:   3,
		showHeaders:  true,
		output:       output,
	}
}

// SetHeaders sets the column headers. They are printed upper-case.
func (w *PlainTableWriter) SetHeaders(headers []string) {
	w.headers = make([]string, len(headers))
	w.columnWidths = make([]int, len(headers))
	for i, h := range headers {
		upper := strings.ToUpper(h)
		w.headers[i] = upper
		w.columnWidths[i] = text.RuneWidthWithoutEscSequences(upper)
	}
}

// SetNoHeaders controls whether to suppress the header row.
func (w *PlainTableWriter) SetNoHeaders(noHeaders bool) {
	w.showHeaders = !noHeaders
}

// SetMaxCellWidth truncates cells wider than width. Call before AppendRow.
func (w *PlainTableWriter) SetMaxCellWidth(width int) {
	w.maxCellWidth = width
}

// AppendRow adds a row, padding or cutting it to the header count.
func (w *PlainTableWriter) AppendRow(row []string) {
	normalized := make([]string, len(w.headers))
	for i := range w.headers {
		if i >= len(row) {
			continue
		}
		cell := row[i]
		if w.maxCellWidth > 0 {
			cell = tsstrings.Truncate(cell, w.maxCellWidth)
		}
		normalized[i] = cell
		if width := text.RuneWidthWithoutEscSequences(cell); width > w.columnWidths[i] {
			w.columnWidths[i] = width
		}
	}
	w.rows = append(w.rows, normalized)
}

// Render writes the table. Nothing is written when there are no headers, or
// no rows with headers suppressed.
func (w *PlainTableWriter) Render() {
	if len(w.headers) == 0 {
		return
	}
	if len(w.rows) == 0 && !w.showHeaders {
		return
	}

	if w.showHeaders {
		w.printRow(w.headers)
	}
	for _, row := range w.rows {
		w.printRow(row)
	}
}

func (w *PlainTableWriter) printRow(row []string) {
	var sb strings.Builder
	for i, cell := range row {
		sb.WriteString(cell)
		if i == len(row)-1 {
			break
		}
		pad := w.columnWidths[i] + w.minPadding - text.RuneWidthWithoutEscSequences(cell)
		sb.WriteString(strings.Repeat(" ", pad))
	}
	fmt.Fprintln(w.output, strings.TrimRight(sb.String(), " "))
}
