package mstr

import (
	"errors"
	"fmt"
)

// Common errors returned by the MicroStrategy client.
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid mstr client configuration")
	// ErrLoginFailed indicates the login task did not return a session state
	ErrLoginFailed = errors.New("login failed: no session state returned")
	// ErrNotLoggedIn indicates a task was attempted without a session
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrMissingAttributeID indicates an attribute lookup without an id
	ErrMissingAttributeID = errors.New("you must provide an attribute id")
	// ErrNoPrompts indicates the report execution returned no message id,
	// which almost always means the report has no prompts
	ErrNoPrompts = errors.New("error retrieving msgID for report, most likely the report does not have any prompts")
	// ErrNotExecuted indicates report results were requested before Execute
	ErrNotExecuted = errors.New("execute a report before viewing its results")
	// ErrMalformedResponse indicates an expected tag was missing from the response
	ErrMalformedResponse = errors.New("malformed task response")
	// ErrInvalidWindow indicates a negative row or column window
	ErrInvalidWindow = errors.New("invalid report window")
)

// APIError represents a non-200 response from the task service
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("mstr task API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// ReportError ties a failure to the report it happened on.
type ReportError struct {
	ReportID string
	Op       string
	Err      error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report %s: %s: %v", e.ReportID, e.Op, e.Err)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}
