package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values. Cells are plain text; the table styles them.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// Render returns the full table as a string.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMeta)

	var headers []string
	for _, col := range t.Columns {
		headers = append(headers, headerStyle.Render(fit(col.Title, col.Width)))
	}
	sb.WriteString(strings.Join(headers, " "))
	sb.WriteString("\n")

	var divParts []string
	for _, col := range t.Columns {
		divParts = append(divParts, dimStyle.Render(strings.Repeat("-", col.Width)))
	}
	sb.WriteString(strings.Join(divParts, " "))
	sb.WriteString("\n")

	for i, row := range t.Rows {
		style := cellStyle
		if i == t.SelIdx {
			style = StyleSelected
		}
		var cells []string
		for j, col := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells = append(cells, style.Render(fit(val, col.Width)))
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// fit left-aligns s within exactly width display cells, cutting with an
// ellipsis when it is too long.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := lipgloss.Width(s)
	if w <= width {
		return s + strings.Repeat(" ", width-w)
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	out := string(runes) + "…"
	return out + strings.Repeat(" ", width-lipgloss.Width(out))
}

// KeyValueBlock renders a set of key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-16s", p[0]+":"))
		val := StyleValue.Render(p[1])
		sb.WriteString("  " + key + " " + val + "\n")
	}
	return StyleBorder.Render(sb.String())
}
