package mstr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportXML = `<?xml version="1.0" encoding="utf-8"?>
<taskResponse>
  <rw>
    <objects>
      <attribute rfd="0" id="A1" name="Region"/>
      <metric rfd="1" id="M1" name="Revenue"/>
      <metric rfd="2" id="M2" name="Units"/>
    </objects>
    <headers>
      <oi rfd="0"/>
      <oi rfd="1"/>
      <oi rfd="2"/>
    </headers>
    <data>
      <r><v>East</v><v>100</v><v>7</v></r>
      <r><v>West</v><v>250.5</v><v>12</v></r>
    </data>
  </rw>
</taskResponse>`

func TestReportString(t *testing.T) {
	f := newFakeTaskServer(t)
	client := connectedClient(t, f)

	report := client.Report("R1")
	assert.Equal(t, "R1", report.ID())
	assert.Equal(t, "Report with id R1", report.String())
}

func TestReportExecute(t *testing.T) {
	f := newFakeTaskServer(t)
	f.respond("reportExecute", reportXML)
	client := connectedClient(t, f)
	report := client.Report("R1")

	require.NoError(t, report.Execute(context.Background(), DefaultExecuteOptions()))

	q := f.lastRequest("reportExecute")
	assert.Equal(t, "R1", q.Get("reportID"))
	assert.Equal(t, testSession, q.Get("sessionState"))
	assert.Equal(t, "0", q.Get("startRow"))
	assert.Equal(t, "0", q.Get("startCol"))
	assert.Equal(t, "100000", q.Get("maxRows"))
	assert.Equal(t, "10", q.Get("maxCols"))
	assert.Equal(t, "ReportDataVisualizationXMLStyle", q.Get("styleName"))
	assert.Equal(t, "393216", q.Get("resultFlags"))
	assert.False(t, q.Has("valuePromptAnswers"))
	assert.False(t, q.Has("elementsPromptAnswers"))

	headers, err := report.Headers()
	require.NoError(t, err)
	require.Len(t, headers, 3)
	assert.Equal(t, "Region", headers[0].ColumnName())
	assert.False(t, headers[0].IsMetric())
	assert.True(t, headers[1].IsMetric())

	metrics, err := report.Metrics()
	require.NoError(t, err)
	assert.Equal(t, []*Metric{{ID: "M1", Name: "Revenue"}, {ID: "M2", Name: "Units"}}, metrics)

	attributes, err := report.Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*Attribute{{ID: "A1", Name: "Region"}}, attributes)
	assert.Zero(t, f.count("browseAttributeForms"))

	rows, err := report.Values()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"West", "250.5", "12"}, rows[1].Values())
	assert.Same(t, headers[1], rows[1][1].Column)

	revenue, ok := rows[0].Get("Revenue")
	assert.True(t, ok)
	assert.Equal(t, "100", revenue)
}

func TestReportExecuteWindowAndPrompts(t *testing.T) {
	f := newFakeTaskServer(t)
	f.respond("reportExecute", reportXML)
	client := connectedClient(t, f)

	region := &Attribute{ID: "A1", Name: "Region"}
	year := &Attribute{ID: "A2", Name: "Year"}

	err := client.Report("R1").Execute(context.Background(), ExecuteOptions{
		StartRow:           50,
		StartCol:           2,
		MaxRows:            25,
		MaxCols:            4,
		ValuePromptAnswers: []string{"2024", "EUR"},
		ElementPromptAnswers: []ElementPromptAnswer{
			{Attribute: region, Values: []string{"h1", "h2"}},
			{Attribute: year},
		},
	})
	require.NoError(t, err)

	q := f.lastRequest("reportExecute")
	assert.Equal(t, "50", q.Get("startRow"))
	assert.Equal(t, "2", q.Get("startCol"))
	assert.Equal(t, "25", q.Get("maxRows"))
	assert.Equal(t, "4", q.Get("maxCols"))
	assert.Equal(t, "2024^EUR", q.Get("valuePromptAnswers"))
	assert.Equal(t, "A1;A1:h1;A1:h2,A2;", q.Get("elementsPromptAnswers"))
}

func TestReportExecuteInvalidOptions(t *testing.T) {
	f := newFakeTaskServer(t)
	client := connectedClient(t, f)
	report := client.Report("R1")

	err := report.Execute(context.Background(), ExecuteOptions{StartRow: -1})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	err = report.Execute(context.Background(), ExecuteOptions{
		ElementPromptAnswers: []ElementPromptAnswer{{Values: []string{"x"}}},
	})
	assert.ErrorIs(t, err, ErrMissingAttributeID)
	assert.Zero(t, f.count("reportExecute"))
}

func TestReportResultsBeforeExecute(t *testing.T) {
	f := newFakeTaskServer(t)
	client := connectedClient(t, f)
	report := client.Report("R1")

	_, err := report.Headers()
	assert.ErrorIs(t, err, ErrNotExecuted)
	_, err = report.Metrics()
	assert.ErrorIs(t, err, ErrNotExecuted)
	_, err = report.Values()
	assert.ErrorIs(t, err, ErrNotExecuted)

	var reportErr *ReportError
	require.True(t, errors.As(err, &reportErr))
	assert.Equal(t, "R1", reportErr.ReportID)
	assert.Equal(t, "values", reportErr.Op)
}

func TestReportExecuteEmptyResult(t *testing.T) {
	f := newFakeTaskServer(t)
	f.respond("reportExecute", `<taskResponse><rw>
  <objects><attribute rfd="0" id="A1" name="Region"/></objects>
  <headers><oi rfd="0"/></headers>
</rw></taskResponse>`)
	client := connectedClient(t, f)
	report := client.Report("R1")

	require.NoError(t, report.Execute(context.Background(), ExecuteOptions{}))
	rows, err := report.Values()
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, "100000", f.lastRequest("reportExecute").Get("maxRows"))
}

func TestReportPrompts(t *testing.T) {
	f := newFakeTaskServer(t)
	client := connectedClient(t, f)

	t.Run("prompted report", func(t *testing.T) {
		f.respond("reportExecute", `<taskResponse><msg><id>MSG42</id><st>2</st></msg></taskResponse>`)
		f.respond("getPrompts", `<taskResponse><rsl><prompts>
  <prm><orgn><did>A1</did><n>Region</n><t>12</t></orgn></prm>
  <prm><orgn><did>A2</did><n>Year</n><t>12</t></orgn></prm>
</prompts></rsl></taskResponse>`)

		prompts, err := client.Report("R1").Prompts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []*Attribute{{ID: "A1", Name: "Region"}, {ID: "A2", Name: "Year"}}, prompts)

		q := f.lastRequest("getPrompts")
		assert.Equal(t, "MSG42", q.Get("msgID"))
		assert.Equal(t, "3", q.Get("objectType"))
		assert.Equal(t, testSession, q.Get("sessionState"))

		exec := f.lastRequest("reportExecute")
		assert.Equal(t, "R1", exec.Get("reportID"))
		assert.False(t, exec.Has("styleName"))
	})

	t.Run("report without prompts", func(t *testing.T) {
		f.respond("reportExecute", reportXML)

		_, err := client.Report("R2").Prompts(context.Background())
		assert.ErrorIs(t, err, ErrNoPrompts)
	})
}

func TestReportAttributes(t *testing.T) {
	f := newFakeTaskServer(t)
	f.respond("browseAttributeForms", `<taskResponse><forms>
  <a><did>A1</did><n>Region</n></a>
  <a><did>A3</did><n>Store</n></a>
</forms></taskResponse>`)
	client := connectedClient(t, f)
	report := client.Report("R1")

	attributes, err := report.Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*Attribute{{ID: "A1", Name: "Region"}, {ID: "A3", Name: "Store"}}, attributes)

	q := f.lastRequest("browseAttributeForms")
	assert.Equal(t, "3", q.Get("contentType"))
	assert.Equal(t, "R1", q.Get("reportID"))

	// Second call returns the saved objects
	_, err = report.Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("browseAttributeForms"))
}
