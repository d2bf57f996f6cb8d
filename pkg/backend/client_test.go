package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

// captureServer records every request and answers with the given status and
// body.
func captureServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   data,
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, &captured
}

func TestQueryBuildsRequestURL(t *testing.T) {
	ts, captured := captureServer(t, http.StatusOK, `[]`)
	client, err := New(Config{URL: ts.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var rows []map[string]any
	err = client.From("organization_members").
		Select("*, account:accounts(id,name)").
		Eq("organization_id", "org-1").
		Order("created_at", true).
		Limit(5).
		Get(context.Background(), &rows)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	req := (*captured)[0]
	if req.method != http.MethodGet {
		t.Fatalf("method = %s, want GET", req.method)
	}
	if req.path != "/rest/v1/organization_members" {
		t.Fatalf("path = %q, want /rest/v1/organization_members", req.path)
	}
	for _, want := range []string{
		"select=%2A%2C+account%3Aaccounts%28id%2Cname%29",
		"organization_id=eq.org-1",
		"order=created_at.asc",
		"limit=5",
	} {
		if !containsParam(req.query, want) {
			t.Errorf("query %q missing %q", req.query, want)
		}
	}
}

func containsParam(query, param string) bool {
	for _, p := range splitQuery(query) {
		if p == param {
			return true
		}
	}
	return false
}

func splitQuery(query string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(query); i++ {
		if i == len(query) || query[i] == '&' {
			parts = append(parts, query[start:i])
			start = i + 1
		}
	}
	return parts
}

func TestInsertSendsRepresentationPrefer(t *testing.T) {
	ts, captured := captureServer(t, http.StatusCreated, `[{"id":"inv-1"}]`)
	client, err := New(Config{URL: ts.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var created []map[string]any
	err = client.From("invitations").Insert(context.Background(),
		[]map[string]string{{"email": "carol.wu@example.com"}}, &created)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	req := (*captured)[0]
	if req.method != http.MethodPost {
		t.Fatalf("method = %s, want POST", req.method)
	}
	if got := req.header.Get("Prefer"); got != "return=representation" {
		t.Fatalf("Prefer = %q, want return=representation", got)
	}
	if got := req.header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", got)
	}
	var payload []map[string]string
	if err := json.Unmarshal(req.body, &payload); err != nil || len(payload) != 1 {
		t.Fatalf("payload = %s, want one-element array", req.body)
	}
	if len(created) != 1 || created[0]["id"] != "inv-1" {
		t.Fatalf("created = %v, want decoded representation", created)
	}
}

func TestAnonKeyAuthorizesWithoutSession(t *testing.T) {
	ts, captured := captureServer(t, http.StatusOK, `[]`)
	client, err := New(Config{URL: ts.URL, APIKey: "anon-key"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var rows []map[string]any
	if err := client.From("organizations").Select("*").Get(context.Background(), &rows); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	req := (*captured)[0]
	if got := req.header.Get("apikey"); got != "anon-key" {
		t.Fatalf("apikey header = %q, want anon-key", got)
	}
	if got := req.header.Get("Authorization"); got != "Bearer anon-key" {
		t.Fatalf("Authorization = %q, want the anon key as bearer", got)
	}
}

func TestTokenProviderConsultedPerRequest(t *testing.T) {
	ts, captured := captureServer(t, http.StatusOK, `[]`)

	var mu sync.Mutex
	token := ""
	client, err := New(Config{
		URL:    ts.URL,
		APIKey: "anon-key",
		Token: func() string {
			mu.Lock()
			defer mu.Unlock()
			return token
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	var rows []map[string]any
	if err := client.From("organizations").Get(ctx, &rows); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Sign-in after the client was constructed.
	mu.Lock()
	token = "session-token"
	mu.Unlock()

	if err := client.From("organizations").Get(ctx, &rows); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got := (*captured)[0].header.Get("Authorization"); got != "Bearer anon-key" {
		t.Fatalf("first Authorization = %q, want anon key", got)
	}
	if got := (*captured)[1].header.Get("Authorization"); got != "Bearer session-token" {
		t.Fatalf("second Authorization = %q, want the rotated session token", got)
	}
}

func TestErrorResponseBecomesRemoteQueryError(t *testing.T) {
	ts, _ := captureServer(t, http.StatusForbidden, `{"message":"permission denied for table invitations"}`)
	client, err := New(Config{URL: ts.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var rows []map[string]any
	err = client.From("invitations").Select("*").Get(context.Background(), &rows)

	var qerr *RemoteQueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want *RemoteQueryError", err)
	}
	if qerr.StatusCode != http.StatusForbidden || qerr.Table != "invitations" || qerr.Op != "select" {
		t.Fatalf("RemoteQueryError = %+v, want select/invitations/403", qerr)
	}
	if qerr.Message != "permission denied for table invitations" {
		t.Fatalf("message = %q, want the backend's message", qerr.Message)
	}
}

func TestTransportFailureIsRemoteQueryError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client, err := New(Config{URL: url, APIKey: "anon"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var rows []map[string]any
	err = client.From("organizations").Select("*").Get(context.Background(), &rows)

	var qerr *RemoteQueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("transport error = %v, want *RemoteQueryError", err)
	}
	if qerr.StatusCode != 0 || qerr.Op != "select" || qerr.Table != "organizations" {
		t.Fatalf("RemoteQueryError = %+v, want select/organizations/status 0", qerr)
	}
}

func TestTransportErrorKeepsCancellationCause(t *testing.T) {
	ts, _ := captureServer(t, http.StatusOK, `[]`)
	client, err := New(Config{URL: ts.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var rows []map[string]any
	err = client.From("organizations").Get(ctx, &rows)

	var qerr *RemoteQueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want *RemoteQueryError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled still matchable", err)
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New accepted an empty URL")
	}
}

func TestCreateSignedURL(t *testing.T) {
	ts, captured := captureServer(t, http.StatusOK, `{"signedURL":"/object/sign/profiles/avatars/bob.png?token=abc"}`)
	client, err := New(Config{URL: ts.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	storage := client.Storage()
	ctx := context.Background()

	signed, err := storage.CreateSignedURL(ctx, "profiles", "avatars/bob.png", time.Hour)
	if err != nil {
		t.Fatalf("CreateSignedURL failed: %v", err)
	}
	want := ts.URL + "/storage/v1/object/sign/profiles/avatars/bob.png?token=abc"
	if signed != want {
		t.Fatalf("signed URL = %q, want %q", signed, want)
	}

	req := (*captured)[0]
	if req.path != "/storage/v1/object/sign/profiles/avatars/bob.png" {
		t.Fatalf("path = %q", req.path)
	}
	var payload struct {
		ExpiresIn int64 `json:"expiresIn"`
	}
	if err := json.Unmarshal(req.body, &payload); err != nil || payload.ExpiresIn != 3600 {
		t.Fatalf("payload = %s, want expiresIn 3600", req.body)
	}

	// Second call for the same object is served from cache.
	again, err := storage.CreateSignedURL(ctx, "profiles", "avatars/bob.png", time.Hour)
	if err != nil {
		t.Fatalf("cached CreateSignedURL failed: %v", err)
	}
	if again != signed {
		t.Fatalf("cached URL = %q, want %q", again, signed)
	}
	if n := len(*captured); n != 1 {
		t.Fatalf("backend hit %d times, want 1", n)
	}
}

func TestCreateSignedURLRequiresBucketAndPath(t *testing.T) {
	client, err := New(Config{URL: "http://localhost:0", APIKey: "anon"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	storage := client.Storage()
	ctx := context.Background()

	var perr *PreconditionError
	if _, err := storage.CreateSignedURL(ctx, "", "avatars/bob.png", 0); !errors.As(err, &perr) {
		t.Fatalf("empty bucket error = %v, want *PreconditionError", err)
	}
	if _, err := storage.CreateSignedURL(ctx, "profiles", "", 0); !errors.As(err, &perr) {
		t.Fatalf("empty path error = %v, want *PreconditionError", err)
	}
}
