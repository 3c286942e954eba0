package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telemetry-go/internal/config"
	"telemetry-go/internal/domain"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(&config.StorageAdapterConfig{
		URL:     server.URL,
		Timeout: 5 * time.Second,
	})
	return client, server
}

func TestClientGet(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/rules/values/r1" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"Key":"r1","ETag":"e1","Data":"{}"}`))
	})
	defer server.Close()

	value, err := client.Get(context.Background(), "rules", "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value.Key != "r1" || value.ETag != "e1" {
		t.Errorf("Got %+v", value)
	}
}

func TestClientGetNotFound(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.Get(context.Background(), "rules", "missing")
	if !domain.IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestClientUpdateConflict(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	defer server.Close()

	_, err := client.Update(context.Background(), "rules", "r1", "{}", "stale")
	if !domain.IsConflict(err) {
		t.Errorf("Expected ConflictError, got %v", err)
	}
}

func TestClientUnexpectedStatus(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})
	defer server.Close()

	_, err := client.Get(context.Background(), "rules", "r1")
	var dep *domain.DependencyError
	if !errors.As(err, &dep) {
		t.Fatalf("Expected DependencyError, got %v", err)
	}
	if dep.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", dep.Status)
	}
	if dep.Body != "boom" {
		t.Errorf("Body = %q, want boom", dep.Body)
	}
}

func TestClientMalformedEnvelope(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	defer server.Close()

	_, err := client.Get(context.Background(), "rules", "r1")
	var dep *domain.DependencyError
	if !errors.As(err, &dep) {
		t.Errorf("Malformed envelope should be a DependencyError, got %v", err)
	}
}

func TestClientTransportFailure(t *testing.T) {
	client := NewClient(&config.StorageAdapterConfig{
		URL:     "http://127.0.0.1:1",
		Timeout: time.Second,
	})

	_, err := client.Get(context.Background(), "rules", "r1")
	var dep *domain.DependencyError
	if !errors.As(err, &dep) {
		t.Fatalf("Expected DependencyError, got %v", err)
	}
	if dep.Status != 0 {
		t.Errorf("Transport failure should have status 0, got %d", dep.Status)
	}
}

func TestClientGetAllLowercaseItems(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"r1","eTag":"e1","data":"{}"}]}`))
	})
	defer server.Close()

	list, err := client.GetAll(context.Background(), "rules")
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("Items = %+v", list.Items)
	}
	if list.Items[0].Key != "r1" {
		t.Errorf("Key = %q, want r1", list.Items[0].Key)
	}
}

func TestClientDelete(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("Method = %s, want DELETE", r.Method)
		}
		w.Write([]byte(`{}`))
	})
	defer server.Close()

	if err := client.Delete(context.Background(), "rules", "r1"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}
