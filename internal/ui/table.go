package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	// Styles optionally colors individual cells; nil keeps the default style.
	Styles func(row, col int, val string) lipgloss.Style
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// pad left-aligns s within exactly width runes, truncating if needed.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		return string([]rune(s)[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

// Render returns the full table as a string. Cells are padded before styling
// so lipgloss never wraps them.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := StyleHeader
	cellStyle := lipgloss.NewStyle()

	headers := make([]string, 0, len(t.Columns))
	divider := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		headers = append(headers, headerStyle.Render(pad(col.Title, col.Width)))
		divider = append(divider, StyleMeta.Render(strings.Repeat("-", col.Width)))
	}
	sb.WriteString(strings.Join(headers, " ") + "\n")
	sb.WriteString(strings.Join(divider, " ") + "\n")

	for i, row := range t.Rows {
		cells := make([]string, 0, len(t.Columns))
		for j, col := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			style := cellStyle
			if t.Styles != nil {
				style = t.Styles(i, j, val)
			}
			cells = append(cells, style.Render(pad(val, col.Width)))
		}
		sb.WriteString(strings.Join(cells, " ") + "\n")
	}
	return sb.String()
}

// KeyValueBlock renders key-value pairs in a bordered box. Pairs with an empty
// value are left out, so optional fields can be passed unconditionally.
func KeyValueBlock(title string, pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if p[1] != "" && utf8.RuneCountInString(p[0]) > width {
			width = utf8.RuneCountInString(p[0])
		}
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title) + "\n")
	}
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		sb.WriteString("  " + StyleMeta.Render(pad(p[0]+":", width+1)) + " " + p[1] + "\n")
	}
	return StyleBox.Render(strings.TrimRight(sb.String(), "\n"))
}
