// Package output renders task results for the terminal or for other tools.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/mstrctl/mstr"
)

// Format selects how results are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatTSV   Format = "tsv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatTSV, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Printer writes results in one format
type Printer struct {
	w      io.Writer
	format Format
	header *color.Color
}

// NewPrinter creates a printer. Colour only applies to the table format.
func NewPrinter(w io.Writer, format Format, useColor bool) *Printer {
	header := color.New(color.Bold, color.FgCyan)
	if useColor {
		header.EnableColor()
	} else {
		header.DisableColor()
	}
	return &Printer{w: w, format: format, header: header}
}

// column is the serialised form of a report header
type column struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
}

// reportDocument is the serialised form of an executed report
type reportDocument struct {
	ReportID string              `json:"report_id" yaml:"report_id"`
	Columns  []column            `json:"columns" yaml:"columns"`
	Rows     []map[string]string `json:"rows" yaml:"rows"`
}

// Folder prints a folder listing
func (p *Printer) Folder(items []mstr.FolderItem) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		return p.encode(items)
	}

	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{item.ID, item.Type, item.Name, item.Description}
	}
	return p.grid([]string{"ID", "TYPE", "NAME", "DESCRIPTION"}, rows)
}

// Elements prints attribute element names
func (p *Printer) Elements(elements []string) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		return p.encode(elements)
	}

	rows := make([][]string, len(elements))
	for i, e := range elements {
		rows[i] = []string{e}
	}
	return p.grid([]string{"ELEMENT"}, rows)
}

// Attributes prints attributes, e.g. prompts or report attributes
func (p *Printer) Attributes(attrs []*mstr.Attribute) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		return p.encode(attrs)
	}

	rows := make([][]string, len(attrs))
	for i, a := range attrs {
		rows[i] = []string{a.ID, a.Name}
	}
	return p.grid([]string{"ID", "NAME"}, rows)
}

// Report prints the headers and rows of an executed report
func (p *Printer) Report(reportID string, headers []mstr.Column, rows []mstr.Row) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		return p.encode(newReportDocument(reportID, headers, rows))
	}

	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = h.ColumnName()
	}
	values := make([][]string, len(rows))
	for i, row := range rows {
		values[i] = row.Values()
	}
	return p.grid(names, values)
}

// Counts prints a name to count mapping, sorted by name
func (p *Printer) Counts(label string, counts map[string]int) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		return p.encode(counts)
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, fmt.Sprint(counts[name])}
	}
	return p.grid([]string{strings.ToUpper(label), "ROWS"}, rows)
}

func newReportDocument(reportID string, headers []mstr.Column, rows []mstr.Row) reportDocument {
	doc := reportDocument{
		ReportID: reportID,
		Columns:  make([]column, len(headers)),
		Rows:     make([]map[string]string, len(rows)),
	}
	for i, h := range headers {
		kind := "attribute"
		if h.IsMetric() {
			kind = "metric"
		}
		doc.Columns[i] = column{ID: h.ColumnID(), Name: h.ColumnName(), Kind: kind}
	}
	for i, row := range rows {
		record := make(map[string]string, len(row))
		for _, cell := range row {
			name := cell.Column.ColumnName()
			if _, dup := record[name]; !dup {
				record[name] = cell.Value
			}
		}
		doc.Rows[i] = record
	}
	return doc
}

func (p *Printer) encode(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %s cannot encode documents", p.format)
}

// grid writes tab separated values or an aligned table
func (p *Printer) grid(headers []string, rows [][]string) error {
	if p.format == FormatTSV {
		if _, err := fmt.Fprintln(p.w, tsvLine(headers)); err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := fmt.Fprintln(p.w, tsvLine(row)); err != nil {
				return err
			}
		}
		return nil
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, v := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(v))
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(p.header.Sprint(pad(h, widths[i], i == len(headers)-1)))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			sb.WriteString(pad(v, widths[i], i == len(row)-1))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(p.w, sb.String())
	return err
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// tsvLine joins fields with tabs after replacing separators inside them
func tsvLine(fields []string) string {
	cleaned := make([]string, len(fields))
	for i, v := range fields {
		cleaned[i] = tsvEscaper.Replace(v)
	}
	return strings.Join(cleaned, "\t")
}

// pad right-pads a cell to width plus a two space gutter; the last column
// is left unpadded
func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	return s + strings.Repeat(" ", width-utf8.RuneCountInString(s)+2)
}
