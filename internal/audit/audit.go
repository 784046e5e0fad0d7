package audit

import (
	"context"
	"time"
)

// Event is the canonical audit record for one rate-limit decision or store
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
