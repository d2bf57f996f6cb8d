// Package backend is the SDK's client for the hosted backend: a PostgREST
// style query interface plus storage signed-URL issuance and realtime
// change notifications. Every operation either returns the decoded payload
// or fails with a typed error; retries and caching belong to callers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/prometheus"
)

// TokenProvider returns the current session bearer token, or "" when no
// session is active. It is consulted on every request so that token
// rotation within a session is picked up immediately.
type TokenProvider func() string

// Client is a client for the backend's REST query interface.
type Client struct {
	baseURL    string
	apiKey     string
	token      TokenProvider
	httpClient *http.Client
	log        *zap.Logger
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	Token      TokenProvider
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New creates a new backend client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("backend URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	token := cfg.Token
	if token == nil {
		token = func() string { return "" }
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		token:      token,
		httpClient: httpClient,
		log:        log,
	}, nil
}

// From starts a query builder for a table.
func (c *Client) From(table string) *Query {
	return &Query{
		client: c,
		table:  table,
	}
}

// Query builds requests against one table of the query interface.
type Query struct {
	client  *Client
	table   string
	columns string
	filters [][2]string
	orders  []string
	limit   int
}

// Select specifies the columns (and embedded joins) to return.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, [2]string{column, fmt.Sprintf("eq.%v", value)})
	return q
}

// Order adds an ORDER BY clause.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, fmt.Sprintf("%s.%s", column, dir))
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Get executes the query as a SELECT and decodes the rows into dest.
func (q *Query) Get(ctx context.Context, dest any) error {
	return q.client.do(ctx, http.MethodGet, "select", q, nil, dest)
}

// Insert inserts rows and decodes the created representation into dest.
// dest may be nil when the caller does not need the created rows.
func (q *Query) Insert(ctx context.Context, rows any, dest any) error {
	return q.client.do(ctx, http.MethodPost, "insert", q, rows, dest)
}

// Update patches the rows matched by the query's filters and decodes the
// updated representation into dest.
func (q *Query) Update(ctx context.Context, patch any, dest any) error {
	return q.client.do(ctx, http.MethodPatch, "update", q, patch, dest)
}

// Delete removes the rows matched by the query's filters.
func (q *Query) Delete(ctx context.Context) error {
	return q.client.do(ctx, http.MethodDelete, "delete", q, nil, nil)
}

func (q *Query) requestURL() string {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, q.table)

	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	for _, f := range q.filters {
		params.Add(f[0], f[1])
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}

	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return reqURL
}

func (c *Client) do(ctx context.Context, method, op string, q *Query, body any, dest any) error {
	defer prometheus.TrackBackendRequest(q.table, op)(time.Now())

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &PreconditionError{Message: fmt.Sprintf("encode %s payload: %v", op, err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.requestURL(), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		prometheus.RecordBackendRequest(q.table, op, 0)
		c.log.Error("Backend request failed",
			zap.String("table", q.table),
			zap.String("operation", op),
			zap.Error(err))
		return &RemoteQueryError{
			Op:      op,
			Table:   q.table,
			Message: err.Error(),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	prometheus.RecordBackendRequest(q.table, op, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		qerr := &RemoteQueryError{
			Op:         op,
			Table:      q.table,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
		c.log.Error("Backend returned error",
			zap.String("table", q.table),
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", qerr.Message))
		return qerr
	}

	if dest != nil {
		if err := json.Unmarshal(respBody, dest); err != nil {
			return fmt.Errorf("decode %s response for %q: %w", op, q.table, err)
		}
	}

	c.log.Debug("Backend request completed",
		zap.String("table", q.table),
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode))

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	// The session token is read at call time, never captured at
	// construction; the anon key authorizes unauthenticated sessions.
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func errorMessage(body []byte) string {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return strings.TrimSpace(string(body))
}
