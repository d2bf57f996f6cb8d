package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCallAPISendsBearerFromProvider(t *testing.T) {
	var gotAuth, gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	token := "first"
	client := NewClient(ts.URL, func() string { return token })
	ctx := context.Background()

	if _, err := client.CallAPI(ctx, http.MethodPost, "/auth/v1/token", strings.NewReader(`{}`)); err != nil {
		t.Fatalf("CallAPI failed: %v", err)
	}
	if gotAuth != "Bearer first" {
		t.Fatalf("Authorization = %q, want Bearer first", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}

	// The provider is consulted again on the next call.
	token = "second"
	if _, err := client.CallAPI(ctx, http.MethodGet, "/health", nil); err != nil {
		t.Fatalf("CallAPI failed: %v", err)
	}
	if gotAuth != "Bearer second" {
		t.Fatalf("Authorization = %q, want Bearer second", gotAuth)
	}
}

func TestCallAPIOmitsAuthorizationWhenSignedOut(t *testing.T) {
	var sawAuth bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	if _, err := client.CallAPI(context.Background(), http.MethodGet, "/health", nil); err != nil {
		t.Fatalf("CallAPI failed: %v", err)
	}
	if sawAuth {
		t.Fatal("Authorization header sent without a session")
	}
}

func TestCallAPIErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	_, err := client.CallAPI(context.Background(), http.MethodPost, "/auth/v1/token", strings.NewReader(`{}`))
	if err == nil {
		t.Fatal("CallAPI accepted a 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("error = %v, want the status code in the message", err)
	}
}

func TestGetJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL+"/", nil)
	var out struct {
		Status string `json:"status"`
	}
	if err := client.GetJSON(context.Background(), "/health", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Status != "ok" {
		t.Fatalf("status = %q, want ok", out.Status)
	}
}
