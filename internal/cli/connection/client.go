package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Headers understood by assetgw-server.
const (
	HeaderIdentity  = "X-Ledger-Identity"
	HeaderRequestID = "X-Request-ID"
	HeaderErrorCode = "X-Error-Code"
)

// DefaultTimeout covers a submit that waits for commit.
const DefaultTimeout = 90 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string

	// Body is the raw response body.
	Body []byte
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		fmt.Fprintf(&b, "[%s] ", e.Code)
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		fmt.Fprintf(&b, "request failed with status %d", e.Status)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request %s)", e.RequestID)
	}
	return b.String()
}

// Options configures a Client.
type Options struct {
	// Identity is sent as X-Ledger-Identity when set.
	Identity  string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to one assetgw-server.
type Client struct {
	rc *resty.Client
}

// NewClient creates a client for server. A missing scheme means http.
func NewClient(server string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "assetgw-cli"
	}

	rc := resty.New().
		SetBaseURL(BaseURL(server)).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")
	if opts.Identity != "" {
		rc.SetHeader(HeaderIdentity, opts.Identity)
	}
	return &Client{rc: rc}
}

// BaseURL normalizes a server address into a URL.
func BaseURL(server string) string {
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return server
}

// BaseURL returns the server URL the client targets.
func (c *Client) BaseURL() string {
	return c.rc.BaseURL
}

// Get performs a GET and decodes a JSON body into out when non-nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func decodeError(resp *resty.Response) error {
	apiErr := &APIError{
		Status:    resp.StatusCode(),
		Code:      resp.Header().Get(HeaderErrorCode),
		RequestID: resp.Header().Get(HeaderRequestID),
		Body:      resp.Body(),
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Error
		if body.Code != "" {
			apiErr.Code = body.Code
		}
	}
	return apiErr
}
