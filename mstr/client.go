package mstr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds every task request
	DefaultTimeout = 30 * time.Second
	// logoutTimeout bounds the logout issued by Close
	logoutTimeout = 10 * time.Second
)

// baseParams are sent with every task; parsing relies on XML output.
var baseParams = map[string]string{
	"taskEnv":         "xml",
	"taskContentType": "xml",
}

// Client wraps the MicroStrategy Web Task API
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
	objects    *registry

	mu      sync.RWMutex
	session string
}

// NewClient creates a new client for the TaskProc endpoint at baseURL.
// The client is not logged in; call Login or use Connect.
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "?&")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: task URL is required", ErrInvalidConfig)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported URL scheme %q", ErrInvalidConfig, parsed.Scheme)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.timeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  options.userAgent,
		logger:     logger,
		objects:    newRegistry(),
	}, nil
}

// Connect creates a client and logs in with the given credentials
func Connect(ctx context.Context, baseURL string, creds Credentials, logger zerolog.Logger, opts ...Option) (*Client, error) {
	client, err := NewClient(baseURL, logger, opts...)
	if err != nil {
		return nil, err
	}

	if err := client.Login(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to connect to MicroStrategy: %w", err)
	}

	return client, nil
}

// Session returns the current session state, empty when logged out
func (c *Client) Session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) String() string {
	return fmt.Sprintf("MstrClient session: %s", c.Session())
}

// Login opens a session on the given project
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	params := url.Values{
		"taskId":   {"login"},
		"server":   {creds.ProjectSource},
		"project":  {creds.ProjectName},
		"userid":   {creds.Username},
		"password": {creds.Password},
	}

	c.logger.Info().
		Str("server", creds.ProjectSource).
		Str("project", creds.ProjectName).
		Str("user", creds.Username).
		Msg("Logging in")

	doc, err := c.do(ctx, params)
	if err != nil {
		return err
	}

	session, err := parseSessionState(doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	return nil
}

// Logout closes the current session. It is a no-op without a session.
func (c *Client) Logout(ctx context.Context) error {
	session := c.Session()
	if session == "" {
		return nil
	}

	c.mu.Lock()
	c.session = ""
	c.mu.Unlock()

	params := url.Values{
		"taskId":       {"logout"},
		"sessionState": {session},
	}

	if _, err := c.do(ctx, params); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	attributes, metrics := c.objects.size()
	c.logger.Info().
		Int("attributes", attributes).
		Int("metrics", metrics).
		Msg("Logged out")
	return nil
}

// Close logs out with a bounded timeout
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()
	return c.Logout(ctx)
}

// FolderContents lists the folder with the given id, or the root folder
// when folderID is empty.
func (c *Client) FolderContents(ctx context.Context, folderID string) ([]FolderItem, error) {
	params := url.Values{"taskId": {"folderBrowse"}}
	if folderID != "" {
		params.Set("folderID", folderID)
	}

	doc, err := c.doSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to browse folder: %w", err)
	}

	items := parseFolderContents(doc)
	c.logger.Debug().
		Str("folder", folderID).
		Int("count", len(items)).
		Msg("Retrieved folder contents")

	return items, nil
}

// ListElements returns the element names of an attribute. The task service
// sometimes answers with an error page instead of elements; that yields an
// empty list rather than an error.
func (c *Client) ListElements(ctx context.Context, attributeID string) ([]string, error) {
	if attributeID == "" {
		return nil, ErrMissingAttributeID
	}

	params := url.Values{
		"taskId":      {"browseElements"},
		"attributeID": {attributeID},
	}

	doc, err := c.doSession(ctx, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) || errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn().Err(err).Str("attribute", attributeID).Msg("Element browse failed, returning no elements")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to browse elements: %w", err)
	}

	return parseElements(doc), nil
}

// GetAttribute looks up a single attribute by id
func (c *Client) GetAttribute(ctx context.Context, attributeID string) (*Attribute, error) {
	if attributeID == "" {
		return nil, ErrMissingAttributeID
	}

	params := url.Values{
		"taskId":      {"getAttributeForms"},
		"attributeID": {attributeID},
	}

	doc, err := c.doSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get attribute %s: %w", attributeID, err)
	}

	return parseAttributeForms(doc, c.objects)
}

// Report returns a handle on the report with the given id. Nothing is
// requested until one of its methods is called.
func (c *Client) Report(reportID string) *Report {
	return newReport(c, reportID)
}

// doSession performs a task that requires a session
func (c *Client) doSession(ctx context.Context, params url.Values) (*xmlquery.Node, error) {
	session := c.Session()
	if session == "" {
		return nil, ErrNotLoggedIn
	}
	params.Set("sessionState", session)
	return c.do(ctx, params)
}

// do assembles the task URL, performs the GET and parses the XML body
func (c *Client) do(ctx context.Context, params url.Values) (*xmlquery.Node, error) {
	for k, v := range baseParams {
		params.Set(k, v)
	}

	requestURL := c.taskURL(params)
	c.logger.Debug().
		Str("task", params.Get("taskId")).
		Str("url", c.taskURL(redact(params))).
		Msg("Submitting task request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/xml, application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Trace().
		Int("status", resp.StatusCode).
		Str("body", string(body)).
		Msg("Received task response")

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return doc, nil
}

func (c *Client) taskURL(params url.Values) string {
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + params.Encode()
}

// redact hides credentials before a URL is logged
func redact(params url.Values) url.Values {
	if params.Get("password") == "" {
		return params
	}
	safe := make(url.Values, len(params))
	for k, v := range params {
		safe[k] = v
	}
	safe.Set("password", "********")
	return safe
}
