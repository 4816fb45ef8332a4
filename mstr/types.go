package mstr

import (
	"fmt"
	"strings"
)

// Column is a report header: either an *Attribute or a *Metric.
type Column interface {
	ColumnID() string
	ColumnName() string
	IsMetric() bool
	String() string
}

// Attribute represents a report dimension
type Attribute struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ColumnID returns the attribute GUID
func (a *Attribute) ColumnID() string { return a.ID }

// ColumnName returns the attribute display name
func (a *Attribute) ColumnName() string { return a.Name }

// IsMetric always returns false for attributes
func (a *Attribute) IsMetric() bool { return false }

func (a *Attribute) String() string {
	return fmt.Sprintf("Attribute: %s - %s", a.ID, a.Name)
}

// GoString matches the debug representation used in log output
func (a *Attribute) GoString() string {
	return fmt.Sprintf("<Attribute: guid:%s name:%s>", a.ID, a.Name)
}

// Metric represents a report measure
type Metric struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ColumnID returns the metric GUID
func (m *Metric) ColumnID() string { return m.ID }

// ColumnName returns the metric display name
func (m *Metric) ColumnName() string { return m.Name }

// IsMetric always returns true for metrics
func (m *Metric) IsMetric() bool { return true }

func (m *Metric) String() string {
	return fmt.Sprintf("Metric: %s - %s", m.ID, m.Name)
}

// GoString matches the debug representation used in log output
func (m *Metric) GoString() string {
	return fmt.Sprintf("<Metric: guid:%s name:%s>", m.ID, m.Name)
}

// FolderItem is a single entry of a folder listing
type FolderItem struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
}

// Cell pairs a report column with the value found in one row
type Cell struct {
	Column Column
	Value  string
}

// Row is one line of an executed report, in header order
type Row []Cell

// Get returns the value of the first cell whose column has the given name.
func (r Row) Get(name string) (string, bool) {
	for _, c := range r {
		if c.Column != nil && c.Column.ColumnName() == name {
			return c.Value, true
		}
	}
	return "", false
}

// Values returns the raw cell values in header order
func (r Row) Values() []string {
	values := make([]string, len(r))
	for i, c := range r {
		values[i] = c.Value
	}
	return values
}

// Credentials identify the project to log in to and the user to log in as.
type Credentials struct {
	ProjectSource string
	ProjectName   string
	Username      string
	Password      string
}

// ElementPromptAnswer answers an element prompt with a list of attribute
// element values. An empty Values list answers the prompt with no elements.
type ElementPromptAnswer struct {
	Attribute *Attribute
	Values    []string
}

// encodeElementPromptAnswers renders answers in the task API's
// elementsPromptAnswers format: "id;id:v1;id:v2" per attribute, joined by ",".
func encodeElementPromptAnswers(answers []ElementPromptAnswer) string {
	var sb strings.Builder
	for i, answer := range answers {
		if i > 0 {
			sb.WriteString(",")
		}
		id := answer.Attribute.ID
		sb.WriteString(id)
		sb.WriteString(";")
		for j, value := range answer.Values {
			if j > 0 {
				sb.WriteString(";")
			}
			sb.WriteString(id)
			sb.WriteString(":")
			sb.WriteString(value)
		}
	}
	return sb.String()
}

// encodeValuePromptAnswers joins value prompt answers in prompt order
func encodeValuePromptAnswers(answers []string) string {
	return strings.Join(answers, "^")
}
