// Package diagnostics provides best-effort usage telemetry. Events are
// emitted off the critical path: callers never block on emission and
// emission failures are never surfaced to them.
package diagnostics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"telemetry-go/internal/metrics"
)

// emitTimeout bounds each background emission, detached from the
// triggering request's context.
const emitTimeout = 10 * time.Second

// Sink is the diagnostics collaborator events are written to.
type Sink interface {
	// CanWrite reports whether the sink is configured and enabled.
	CanWrite() bool

	// LogEvent records a named event with optional properties.
	LogEvent(ctx context.Context, name string, properties map[string]any) error
}

// Emitter dispatches events to a Sink in background goroutines.
// It is safe for concurrent use.
type Emitter struct {
	sink   Sink
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewEmitter creates an emitter over the given sink.
func NewEmitter(sink Sink, logger *slog.Logger) *Emitter {
	return &Emitter{sink: sink, logger: logger}
}

// Enabled reports whether emission is worth attempting at all.
func (e *Emitter) Enabled() bool {
	return e.sink.CanWrite()
}

// Event emits a named event asynchronously. It returns immediately.
func (e *Emitter) Event(name string, properties map[string]any) {
	e.Do(func(ctx context.Context) {
		e.Send(ctx, name, properties)
	})
}

// Do runs fn in a tracked background goroutine with its own deadline.
// Used for emissions that need to gather data first.
func (e *Emitter) Do(fn func(ctx context.Context)) {
	if !e.Enabled() {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Send writes one event synchronously, discarding any failure.
// Intended for use inside Do callbacks.
func (e *Emitter) Send(ctx context.Context, name string, properties map[string]any) {
	if err := e.sink.LogEvent(ctx, name, properties); err != nil {
		metrics.DiagnosticsEventsTotal.WithLabelValues(name, "failure").Inc()
		e.logger.Debug("diagnostics emission failed", "event", name, "error", err)
		return
	}
	metrics.DiagnosticsEventsTotal.WithLabelValues(name, "success").Inc()
}

// Wait blocks until all in-flight emissions finish. Test hook.
func (e *Emitter) Wait() {
	e.wg.Wait()
}
