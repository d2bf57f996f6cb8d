package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/prometheus"
)

// DefaultSignedURLExpiry is used when the caller does not pass an expiry.
const DefaultSignedURLExpiry = 24 * time.Hour

// cacheMargin keeps cached URLs from being handed out right before expiry.
const cacheMargin = time.Minute

// StorageClient issues time-limited URLs for private bucket objects. Issued
// URLs are cached until shortly before they expire, so repeated renders of
// the same image do not hit the backend.
type StorageClient struct {
	client *Client
	cache  *gocache.Cache
}

// Storage returns the storage client.
func (c *Client) Storage() *StorageClient {
	return &StorageClient{
		client: c,
		cache:  gocache.New(DefaultSignedURLExpiry-cacheMargin, 10*time.Minute),
	}
}

// CreateSignedURL returns a time-limited URL for a private object. Both
// bucket and path are required; expiresIn <= 0 selects the default expiry.
func (s *StorageClient) CreateSignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error) {
	if bucket == "" || path == "" {
		prometheus.RecordSignedURL("error")
		return "", &PreconditionError{Message: "bucket and path must be provided"}
	}
	if expiresIn <= 0 {
		expiresIn = DefaultSignedURLExpiry
	}

	cacheKey := bucket + "/" + path
	if cached, ok := s.cache.Get(cacheKey); ok {
		prometheus.RecordSignedURL("cached")
		return cached.(string), nil
	}

	reqURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.client.baseURL, bucket, path)

	body, err := json.Marshal(map[string]int64{
		"expiresIn": int64(expiresIn.Seconds()),
	})
	if err != nil {
		return "", fmt.Errorf("encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	s.client.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		prometheus.RecordSignedURL("error")
		return "", &RemoteQueryError{
			Op:      "sign",
			Table:   bucket,
			Message: err.Error(),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		prometheus.RecordSignedURL("error")
		qerr := &RemoteQueryError{
			Op:         "sign",
			Table:      bucket,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
		s.client.log.Error("Signed URL request failed",
			zap.String("bucket", bucket),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return "", qerr
	}

	var signResp struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(respBody, &signResp); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}

	signed := s.client.baseURL + "/storage/v1" + signResp.SignedURL

	ttl := expiresIn - cacheMargin
	if ttl > 0 {
		s.cache.Set(cacheKey, signed, ttl)
	}

	prometheus.RecordSignedURL("issued")
	return signed, nil
}
