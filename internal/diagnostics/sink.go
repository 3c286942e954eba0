package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"telemetry-go/internal/config"
	"telemetry-go/internal/domain"
)

// event is the wire form accepted by the diagnostics service.
type event struct {
	EventType       string         `json:"EventType"`
	EventProperties map[string]any `json:"EventProperties,omitempty"`
}

// HTTPSink writes events to a remote diagnostics service.
type HTTPSink struct {
	url  string
	http *http.Client
}

// NewHTTPSink creates a sink from config. An empty URL yields a sink
// that reports itself disabled.
func NewHTTPSink(cfg *config.DiagnosticsConfig) *HTTPSink {
	return &HTTPSink{
		url: cfg.URL,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CanWrite reports whether a diagnostics endpoint is configured.
func (s *HTTPSink) CanWrite() bool {
	return s.url != ""
}

// LogEvent posts one event to the diagnostics service.
func (s *HTTPSink) LogEvent(ctx context.Context, name string, properties map[string]any) error {
	payload, err := json.Marshal(event{EventType: name, EventProperties: properties})
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.url+"/diagnosticsevents", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build diagnostics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return domain.NewDependency(err, "diagnostics request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.NewDependencyStatus(resp.StatusCode, "", "unexpected diagnostics response")
	}
	return nil
}

// NoopSink discards all events. Used when diagnostics is disabled.
type NoopSink struct{}

// CanWrite always reports false.
func (NoopSink) CanWrite() bool { return false }

// LogEvent discards the event.
func (NoopSink) LogEvent(ctx context.Context, name string, properties map[string]any) error {
	return nil
}
