package mstr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultMaxRows is the row window used when ExecuteOptions.MaxRows is unset
	DefaultMaxRows = 100000
	// DefaultMaxCols is the column window used when ExecuteOptions.MaxCols is unset
	DefaultMaxCols = 10

	reportStyle       = "ReportDataVisualizationXMLStyle"
	reportResultFlags = "393216"
	promptObjectType  = "3"
	attributeContent  = "3"
)

// ExecuteOptions controls the result window and prompt answers of a report
// execution. Zero MaxRows/MaxCols fall back to the defaults.
type ExecuteOptions struct {
	StartRow int
	StartCol int
	MaxRows  int
	MaxCols  int

	// ValuePromptAnswers answer value prompts in prompt order
	ValuePromptAnswers []string
	// ElementPromptAnswers answer element prompts, encoded in slice order
	ElementPromptAnswers []ElementPromptAnswer
}

// DefaultExecuteOptions returns the full default window with no prompt answers
func DefaultExecuteOptions() ExecuteOptions {
	return ExecuteOptions{
		MaxRows: DefaultMaxRows,
		MaxCols: DefaultMaxCols,
	}
}

func (o ExecuteOptions) validate() error {
	if o.StartRow < 0 || o.StartCol < 0 || o.MaxRows < 0 || o.MaxCols < 0 {
		return fmt.Errorf("%w: start=%d/%d max=%d/%d", ErrInvalidWindow, o.StartRow, o.StartCol, o.MaxRows, o.MaxCols)
	}
	for _, answer := range o.ElementPromptAnswers {
		if answer.Attribute == nil || answer.Attribute.ID == "" {
			return fmt.Errorf("%w: element prompt answer without attribute", ErrMissingAttributeID)
		}
	}
	return nil
}

// Report is a handle on one report. Results are held after Execute until
// the next Execute. A Report is not safe for concurrent use.
type Report struct {
	client *Client
	id     string

	executed   bool
	headers    []Column
	attributes []*Attribute
	metrics    []*Metric
	values     []Row
}

func newReport(client *Client, id string) *Report {
	return &Report{client: client, id: id}
}

// ID returns the report GUID
func (r *Report) ID() string { return r.id }

func (r *Report) String() string {
	return fmt.Sprintf("Report with id %s", r.id)
}

func (r *Report) params(taskID string) url.Values {
	return url.Values{
		"taskId":   {taskID},
		"reportID": {r.id},
	}
}

func (r *Report) wrap(op string, err error) error {
	return &ReportError{ReportID: r.id, Op: op, Err: err}
}

// Prompts returns the attributes the report prompts for. Reports without
// prompts return ErrNoPrompts.
func (r *Report) Prompts(ctx context.Context) ([]*Attribute, error) {
	doc, err := r.client.doSession(ctx, r.params("reportExecute"))
	if err != nil {
		return nil, r.wrap("prompts", err)
	}

	messageID := parseMessageID(doc)
	if messageID == "" {
		r.client.logger.Debug().Str("report", r.id).Msg("No msgID in report execution response")
		return nil, r.wrap("prompts", ErrNoPrompts)
	}

	params := url.Values{
		"taskId":     {"getPrompts"},
		"objectType": {promptObjectType},
		"msgID":      {messageID},
	}
	doc, err = r.client.doSession(ctx, params)
	if err != nil {
		return nil, r.wrap("prompts", err)
	}

	prompts, err := parsePrompts(doc, r.client.objects)
	if err != nil {
		return nil, r.wrap("prompts", err)
	}
	return prompts, nil
}

// Attributes returns the attributes of the report's columns. Attributes
// already known from a previous call or execution are returned without a
// request.
func (r *Report) Attributes(ctx context.Context) ([]*Attribute, error) {
	if len(r.attributes) > 0 {
		r.client.logger.Debug().Str("report", r.id).Msg("Attributes already retrieved, returning saved objects")
		return r.attributes, nil
	}

	params := r.params("browseAttributeForms")
	params.Set("contentType", attributeContent)

	doc, err := r.client.doSession(ctx, params)
	if err != nil {
		return nil, r.wrap("attributes", err)
	}

	r.attributes = parseReportAttributes(doc, r.client.objects)
	return r.attributes, nil
}

// Execute runs the report and stores its headers, attributes, metrics and
// rows, replacing those of any earlier execution.
func (r *Report) Execute(ctx context.Context, opts ExecuteOptions) error {
	if err := opts.validate(); err != nil {
		return r.wrap("execute", err)
	}
	if opts.MaxRows == 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.MaxCols == 0 {
		opts.MaxCols = DefaultMaxCols
	}

	params := r.params("reportExecute")
	params.Set("startRow", strconv.Itoa(opts.StartRow))
	params.Set("startCol", strconv.Itoa(opts.StartCol))
	params.Set("maxRows", strconv.Itoa(opts.MaxRows))
	params.Set("maxCols", strconv.Itoa(opts.MaxCols))
	params.Set("styleName", reportStyle)
	params.Set("resultFlags", reportResultFlags)
	if len(opts.ValuePromptAnswers) > 0 {
		params.Set("valuePromptAnswers", encodeValuePromptAnswers(opts.ValuePromptAnswers))
	}
	if len(opts.ElementPromptAnswers) > 0 {
		params.Set("elementsPromptAnswers", encodeElementPromptAnswers(opts.ElementPromptAnswers))
	}

	doc, err := r.client.doSession(ctx, params)
	if err != nil {
		return r.wrap("execute", err)
	}

	result, err := parseReport(doc, r.client.objects)
	if err != nil {
		return r.wrap("execute", err)
	}

	r.headers = result.headers
	r.attributes = result.attributes
	r.metrics = result.metrics
	r.values = result.rows
	r.executed = true

	r.client.logger.Debug().
		Str("report", r.id).
		Int("headers", len(r.headers)).
		Int("rows", len(r.values)).
		Msg("Executed report")

	return nil
}

// Headers returns the column headers of the last execution
func (r *Report) Headers() ([]Column, error) {
	if !r.executed {
		r.client.logger.Debug().Str("report", r.id).Msg("Headers requested before execution")
		return nil, r.wrap("headers", ErrNotExecuted)
	}
	return r.headers, nil
}

// Metrics returns the metric columns of the last execution
func (r *Report) Metrics() ([]*Metric, error) {
	if !r.executed {
		r.client.logger.Debug().Str("report", r.id).Msg("Metrics requested before execution")
		return nil, r.wrap("metrics", ErrNotExecuted)
	}
	return r.metrics, nil
}

// Values returns the rows of the last execution
func (r *Report) Values() ([]Row, error) {
	if !r.executed {
		return nil, r.wrap("values", ErrNotExecuted)
	}
	return r.values, nil
}
