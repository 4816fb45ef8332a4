package mstr

import (
	"context"
)

// API defines the session-level operations of the task service
type API interface {
	// Login opens a session
	Login(ctx context.Context, creds Credentials) error

	// Logout closes the current session
	Logout(ctx context.Context) error

	// Session returns the current session state
	Session() string

	// FolderContents lists a folder, or the root folder for an empty id
	FolderContents(ctx context.Context, folderID string) ([]FolderItem, error)

	// ListElements returns the element names of an attribute
	ListElements(ctx context.Context, attributeID string) ([]string, error)

	// GetAttribute looks up an attribute by id
	GetAttribute(ctx context.Context, attributeID string) (*Attribute, error)

	// GetAttributes looks up several attributes concurrently
	GetAttributes(ctx context.Context, ids ...string) ([]*Attribute, error)

	// Report returns a handle on a report
	Report(reportID string) *Report
}

// ReportRunner defines the operations available on a report handle
type ReportRunner interface {
	Prompts(ctx context.Context) ([]*Attribute, error)
	Attributes(ctx context.Context) ([]*Attribute, error)
	Execute(ctx context.Context, opts ExecuteOptions) error
	Headers() ([]Column, error)
	Metrics() ([]*Metric, error)
	Values() ([]Row, error)
}

var (
	_ API          = (*Client)(nil)
	_ ReportRunner = (*Report)(nil)
)
