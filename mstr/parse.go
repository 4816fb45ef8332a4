package mstr

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// text returns the trimmed text of the first matching node, or "" if none
func text(top *xmlquery.Node, expr string) string {
	if top == nil {
		return ""
	}
	node := xmlquery.FindOne(top, expr)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.InnerText())
}

// childElements returns the element children of node in document order
func childElements(node *xmlquery.Node) []*xmlquery.Node {
	var children []*xmlquery.Node
	if node == nil {
		return children
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, child)
		}
	}
	return children
}

func parseSessionState(doc *xmlquery.Node) (string, error) {
	session := text(doc, "//sessionState")
	if session == "" {
		return "", ErrLoginFailed
	}
	return session, nil
}

func parseFolderContents(doc *xmlquery.Node) []FolderItem {
	items := []FolderItem{}
	for _, obj := range xmlquery.Find(doc, "//folders//obj") {
		items = append(items, FolderItem{
			Name:        text(obj, "n"),
			Description: text(obj, "d"),
			ID:          text(obj, "id"),
			Type:        text(obj, "t"),
		})
	}
	return items
}

func parseElements(doc *xmlquery.Node) []string {
	elements := []string{}
	for _, block := range xmlquery.Find(doc, "//block") {
		if name := text(block, "n"); name != "" {
			elements = append(elements, name)
		}
	}
	return elements
}

func parseAttributeForms(doc *xmlquery.Node, objects *registry) (*Attribute, error) {
	id := text(doc, "//dssid")
	if id == "" {
		return nil, fmt.Errorf("%w: missing dssid", ErrMalformedResponse)
	}
	return objects.attribute(id, text(doc, "//n")), nil
}

func parseMessageID(doc *xmlquery.Node) string {
	return text(doc, "//msg/id")
}

func parsePrompts(doc *xmlquery.Node, objects *registry) ([]*Attribute, error) {
	container := xmlquery.FindOne(doc, "//prompts")
	if container == nil {
		return nil, fmt.Errorf("%w: missing prompts", ErrMalformedResponse)
	}

	prompts := []*Attribute{}
	for _, prompt := range childElements(container) {
		origin := xmlquery.FindOne(prompt, "orgn")
		if origin == nil {
			continue
		}
		id := text(origin, "did")
		if id == "" {
			continue
		}
		prompts = append(prompts, objects.attribute(id, text(origin, "n")))
	}
	return prompts, nil
}

func parseReportAttributes(doc *xmlquery.Node, objects *registry) []*Attribute {
	attributes := []*Attribute{}
	for _, a := range xmlquery.Find(doc, "//a") {
		id := text(a, "did")
		if id == "" {
			continue
		}
		attributes = append(attributes, objects.attribute(id, text(a, "n")))
	}
	return attributes
}

// reportResult is the parsed body of a reportExecute response
type reportResult struct {
	headers    []Column
	attributes []*Attribute
	metrics    []*Metric
	rows       []Row
}

// parseReport pairs every header with its object definition and every row
// cell with its header by position.
func parseReport(doc *xmlquery.Node, objects *registry) (*reportResult, error) {
	headers := xmlquery.FindOne(doc, "//headers")
	if headers == nil {
		return nil, fmt.Errorf("%w: missing headers", ErrMalformedResponse)
	}

	// First definition wins when an rfd appears more than once
	definitions := make(map[string]*xmlquery.Node)
	for _, def := range xmlquery.Find(doc, "//objects//*[@rfd]") {
		rfd := def.SelectAttr("rfd")
		if _, ok := definitions[rfd]; !ok {
			definitions[rfd] = def
		}
	}

	result := &reportResult{}
	for _, header := range childElements(headers) {
		rfd := header.SelectAttr("rfd")
		def, ok := definitions[rfd]
		if !ok {
			return nil, fmt.Errorf("%w: no object definition for rfd %q", ErrMalformedResponse, rfd)
		}

		id, name := def.SelectAttr("id"), def.SelectAttr("name")
		if isAttributeDefinition(def) {
			attr := objects.attribute(id, name)
			result.attributes = append(result.attributes, attr)
			result.headers = append(result.headers, attr)
		} else {
			metric := objects.metric(id, name)
			result.metrics = append(result.metrics, metric)
			result.headers = append(result.headers, metric)
		}
	}

	result.rows = []Row{}
	for i, r := range xmlquery.Find(doc, "//r") {
		cells := childElements(r)
		if len(cells) > len(result.headers) {
			return nil, fmt.Errorf("%w: row %d has %d cells for %d headers",
				ErrMalformedResponse, i, len(cells), len(result.headers))
		}

		row := make(Row, len(cells))
		for j, cell := range cells {
			row[j] = Cell{
				Column: result.headers[j],
				Value:  strings.TrimSpace(cell.InnerText()),
			}
		}
		result.rows = append(result.rows, row)
	}

	return result, nil
}

// isAttributeDefinition reports whether an object definition is, or wraps,
// an attribute element. Anything else is treated as a metric.
func isAttributeDefinition(def *xmlquery.Node) bool {
	if def.Data == "attribute" {
		return true
	}
	return xmlquery.FindOne(def, ".//attribute") != nil
}
