package slidelimit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	internalaudit "github.com/danieltikamori/slidelimit/internal/audit"
)

const (
	auditEventDenied       = "request_denied"
	auditEventScopeDenied  = "scope_denied"
	auditEventStoreFailure = "store_failure"
	auditEventDegradedPass = "degraded_allow"
	auditEventDegradedDrop = "degraded_deny"
	auditEventReset        = "key_reset"
)

// Event is the public audit record for one rate-limit decision or store
// incident.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Scope     string            `json:"scope,omitempty"`
	Key       string            `json:"key,omitempty"`
	TenantID  string            `json:"tenant_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Allowed   bool              `json:"allowed"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// sinkBridge adapts a public Sink to the internal dispatcher contract.
type sinkBridge struct {
	sink Sink
}

func (b sinkBridge) Emit(ctx context.Context, event internalaudit.Event) {
	b.sink.Emit(ctx, Event{
		Timestamp: event.Timestamp,
		EventType: event.EventType,
		Scope:     event.Scope,
		Key:       event.Key,
		TenantID:  event.TenantID,
		IP:        event.IP,
		Allowed:   event.Allowed,
		Error:     event.Error,
		Metadata:  event.Metadata,
	})
}
