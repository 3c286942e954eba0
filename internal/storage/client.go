package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"telemetry-go/internal/config"
	"telemetry-go/internal/domain"
	"telemetry-go/internal/metrics"
)

// Client is the HTTP implementation of Store, talking to a storage
// adapter deployment. It holds no per-request state and is safe for
// concurrent reuse. It performs no retries; callers that want a retry
// policy wrap it themselves.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a storage adapter client from config. The configured
// timeout bounds every request; a timeout surfaces as a DependencyError
// like any other transport failure.
func NewClient(cfg *config.StorageAdapterConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Get fetches a single value by key.
func (c *Client) Get(ctx context.Context, collection, key string) (*Value, error) {
	return c.requestValue(ctx, http.MethodGet, c.valueURL(collection, key), nil)
}

// GetAll fetches every value in a collection.
func (c *Client) GetAll(ctx context.Context, collection string) (*ValueList, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.valueURL(collection, ""), nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, body); err != nil {
		return nil, err
	}

	var list ValueList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, domain.NewDependencyStatus(status, string(body),
			"storage adapter returned a malformed collection for %q", collection)
	}
	return &list, nil
}

// Create inserts a value, letting the store assign its key.
func (c *Client) Create(ctx context.Context, collection, data string) (*Value, error) {
	return c.requestValue(ctx, http.MethodPost, c.valueURL(collection, ""), &Value{Data: data})
}

// Update writes a value under key, presenting etag for the store's
// optimistic concurrency check.
func (c *Client) Update(ctx context.Context, collection, key, data, etag string) (*Value, error) {
	return c.requestValue(ctx, http.MethodPut, c.valueURL(collection, key), &Value{Data: data, ETag: etag})
}

// Delete removes a value by key.
func (c *Client) Delete(ctx context.Context, collection, key string) error {
	status, body, err := c.do(ctx, http.MethodDelete, c.valueURL(collection, key), nil)
	if err != nil {
		return err
	}
	return checkStatus(status, body)
}

// requestValue performs a request whose successful response body is a
// single value envelope.
func (c *Client) requestValue(ctx context.Context, method, url string, payload *Value) (*Value, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode storage payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	status, body, err := c.do(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, body); err != nil {
		return nil, err
	}

	var value Value
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, domain.NewDependencyStatus(status, string(body),
			"storage adapter returned a malformed envelope")
	}
	return &value, nil
}

// do executes one HTTP round trip and returns the raw status and body.
// Transport failures map to DependencyError with status zero.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, domain.NewDependency(err, "failed to build storage adapter request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.StorageRequestLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StorageRequestsTotal.WithLabelValues(method, "error").Inc()
		return 0, nil, domain.NewDependency(err, "storage adapter request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.StorageRequestsTotal.WithLabelValues(method, "error").Inc()
		return 0, nil, domain.NewDependency(err, "failed to read storage adapter response")
	}

	metrics.StorageRequestsTotal.WithLabelValues(method, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	return resp.StatusCode, respBody, nil
}

// valueURL builds the adapter URL for a collection, or for one key when
// key is non-empty.
func (c *Client) valueURL(collection, key string) string {
	url := fmt.Sprintf("%s/collections/%s/values", c.baseURL, collection)
	if key != "" {
		url += "/" + key
	}
	return url
}

// checkStatus maps the adapter's status codes into the error taxonomy.
func checkStatus(status int, body []byte) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return domain.NewNotFound("resource not found in storage adapter")
	case http.StatusConflict:
		return domain.NewConflict("storage adapter ETag mismatch")
	default:
		return domain.NewDependencyStatus(status, string(body),
			"unexpected storage adapter response")
	}
}
