package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/mstrctl/mstr"
)

func sampleReport() ([]mstr.Column, []mstr.Row) {
	region := &mstr.Attribute{ID: "A1", Name: "Region"}
	revenue := &mstr.Metric{ID: "M1", Name: "Revenue"}
	headers := []mstr.Column{region, revenue}
	rows := []mstr.Row{
		{{Column: region, Value: "East"}, {Column: revenue, Value: "1,200"}},
		{{Column: region, Value: "Northwest"}, {Column: revenue, Value: "75"}},
	}
	return headers, rows
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "table", want: FormatTable},
		{in: "TSV", want: FormatTSV},
		{in: "json", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "csv", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportTable(t *testing.T) {
	headers, rows := sampleReport()
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf, FormatTable, false).Report("R1", headers, rows))

	want := "Region     Revenue\n" +
		"East       1,200\n" +
		"Northwest  75\n"
	assert.Equal(t, want, buf.String())
}

func TestReportTableColor(t *testing.T) {
	headers, rows := sampleReport()
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf, FormatTable, true).Report("R1", headers, rows))

	lines := strings.Split(buf.String(), "\n")
	assert.Contains(t, lines[0], "\x1b[")
	assert.Equal(t, "East       1,200", lines[1])
}

func TestReportTSV(t *testing.T) {
	region := &mstr.Attribute{ID: "A1", Name: "Region"}
	var buf bytes.Buffer

	rows := []mstr.Row{{{Column: region, Value: "North\tEast"}}}
	require.NoError(t, NewPrinter(&buf, FormatTSV, false).Report("R1", []mstr.Column{region}, rows))

	assert.Equal(t, "Region\nNorth East\n", buf.String())

	t.Run("header with tab", func(t *testing.T) {
		sales := &mstr.Metric{ID: "M1", Name: "Sales\tUSD"}
		var buf bytes.Buffer

		rows := []mstr.Row{{{Column: region, Value: "East"}, {Column: sales, Value: "10"}}}
		require.NoError(t, NewPrinter(&buf, FormatTSV, false).Report("R1", []mstr.Column{region, sales}, rows))

		assert.Equal(t, "Region\tSales USD\nEast\t10\n", buf.String())
	})
}

func TestReportJSON(t *testing.T) {
	headers, rows := sampleReport()
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf, FormatJSON, false).Report("R1", headers, rows))

	var doc reportDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "R1", doc.ReportID)
	assert.Equal(t, []column{
		{ID: "A1", Name: "Region", Kind: "attribute"},
		{ID: "M1", Name: "Revenue", Kind: "metric"},
	}, doc.Columns)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "Northwest", doc.Rows[1]["Region"])
}

func TestReportYAML(t *testing.T) {
	headers, rows := sampleReport()
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Report("R1", headers, rows))

	var doc reportDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "R1", doc.ReportID)
	assert.Equal(t, "1,200", doc.Rows[0]["Revenue"])
}

func TestFolder(t *testing.T) {
	items := []mstr.FolderItem{
		{ID: "F1", Name: "Sales", Description: "Sales reports", Type: "8"},
		{ID: "R2", Name: "Daily", Type: "3"},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable, false).Folder(items))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID  TYPE  NAME   DESCRIPTION"))
		assert.Equal(t, "F1  8     Sales  Sales reports", lines[1])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatJSON, false).Folder(items))

		var got []mstr.FolderItem
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, items, got)
	})
}

func TestElementsAndAttributes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTSV, false)

	require.NoError(t, p.Elements([]string{"East", "West"}))
	assert.Equal(t, "ELEMENT\nEast\nWest\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Attributes([]*mstr.Attribute{{ID: "A1", Name: "Region"}}))
	assert.Equal(t, "ID\tNAME\nA1\tRegion\n", buf.String())
}

func TestCounts(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf, FormatTSV, false).Counts("filter", map[string]int{
		"west":  3,
		"east":  10,
		"large": 0,
	}))

	assert.Equal(t, "FILTER\tROWS\neast\t10\nlarge\t0\nwest\t3\n", buf.String())
}
