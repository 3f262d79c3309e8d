package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table renders tabular data such as search results. Columns are sized to
// the widest cell and separated by two spaces.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, noColor bool) *Table {
	return &Table{
		writer:  w,
		headers: headers,
		noColor: noColor,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := t.columnWidths()

	headerStyle := color.New(color.Bold, color.FgCyan)
	ruleStyle := color.New(color.FgHiBlack)
	if t.noColor {
		headerStyle.DisableColor()
		ruleStyle.DisableColor()
	}

	writeCells(t.writer, t.headers, widths, headerStyle)

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	writeCells(t.writer, rule, widths, ruleStyle)

	for _, row := range t.rows {
		writeCells(t.writer, row, widths, nil)
	}
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

// writeCells paints one table line, left-aligning each cell to its column
// width. Cells beyond the header count are dropped.
func writeCells(w io.Writer, cells []string, widths []int, style *color.Color) {
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		gap := "  "
		if i == len(widths)-1 || i == len(cells)-1 {
			gap = ""
		}
		if style != nil {
			style.Fprintf(w, "%-*s", widths[i], cell)
		} else {
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprint(w, gap)
	}
	fmt.Fprintln(w)
}

// KeyValueTable renders aligned key-value pairs, used for dataset and
// metadata detail views
type KeyValueTable struct {
	writer  io.Writer
	rows    []kvRow
	noColor bool
}

type kvRow struct {
	key   string
	value string
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.rows = append(t.rows, kvRow{key: key, value: value})
}

// Render renders the key-value table
func (t *KeyValueTable) Render() {
	if len(t.rows) == 0 {
		return
	}

	keyWidth := 0
	for _, row := range t.rows {
		if len(row.key) > keyWidth {
			keyWidth = len(row.key)
		}
	}

	keyStyle := color.New(color.FgCyan)
	if t.noColor {
		keyStyle.DisableColor()
	}
	for _, row := range t.rows {
		keyStyle.Fprintf(t.writer, "%-*s", keyWidth+1, row.key+":")
		fmt.Fprintf(t.writer, " %s\n", row.value)
	}
}

// Section renders a titled block with indented content lines
type Section struct {
	writer  io.Writer
	title   string
	content []string
	noColor bool
}

// NewSection creates a new section
func NewSection(w io.Writer, title string, noColor bool) *Section {
	return &Section{writer: w, title: title, noColor: noColor}
}

// AddLine adds a line to the section content
func (s *Section) AddLine(line string) {
	s.content = append(s.content, line)
}

// Render renders the section
func (s *Section) Render() {
	titleStyle := color.New(color.Bold, color.FgCyan)
	if s.noColor {
		titleStyle.DisableColor()
	}
	titleStyle.Fprintln(s.writer, s.title)

	for _, line := range s.content {
		fmt.Fprintf(s.writer, "  %s\n", line)
	}
	fmt.Fprintln(s.writer)
}

// CandidateRow is one ranked parent suggestion prepared for display
type CandidateRow struct {
	Tier   string
	ID     string
	Name   string
	Reason string
}

// CandidateList renders ranked parent suggestions numbered for selection,
// with the confidence tier color-coded
type CandidateList struct {
	writer  io.Writer
	rows    []CandidateRow
	noColor bool
}

// NewCandidateList creates a new candidate list
func NewCandidateList(w io.Writer, noColor bool) *CandidateList {
	return &CandidateList{writer: w, noColor: noColor}
}

// Add appends one suggestion to the list
func (l *CandidateList) Add(row CandidateRow) {
	l.rows = append(l.rows, row)
}

// Render renders the numbered list
func (l *CandidateList) Render() {
	if len(l.rows) == 0 {
		return
	}

	numberStyle := color.New(color.FgCyan)
	reasonStyle := color.New(color.FgHiBlack)
	if l.noColor {
		numberStyle.DisableColor()
		reasonStyle.DisableColor()
	}

	for i, row := range l.rows {
		numberStyle.Fprintf(l.writer, "%2d. ", i+1)
		l.tierColor(row.Tier).Fprintf(l.writer, "%-6s", row.Tier)
		fmt.Fprintf(l.writer, "  %s", row.ID)
		if row.Name != "" {
			fmt.Fprintf(l.writer, "  %s", row.Name)
		}
		fmt.Fprintln(l.writer)
		if row.Reason != "" {
			reasonStyle.Fprintf(l.writer, "            %s\n", row.Reason)
		}
	}
}

func (l *CandidateList) tierColor(tier string) *color.Color {
	var c *color.Color
	switch tier {
	case "HIGH":
		c = color.New(color.FgGreen, color.Bold)
	case "MEDIUM":
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgHiBlack)
	}
	if l.noColor {
		c.DisableColor()
	}
	return c
}

// Header renders a bold title with a rule sized to it underneath.
func Header(w io.Writer, title string, noColor bool) {
	titleStyle := color.New(color.Bold, color.FgCyan)
	ruleStyle := color.New(color.FgHiBlack)
	if noColor {
		titleStyle.DisableColor()
		ruleStyle.DisableColor()
	}
	titleStyle.Fprintln(w, title)
	ruleStyle.Fprintln(w, strings.Repeat("─", len(title)))
}
