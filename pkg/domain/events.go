package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRoute     EventType = "route"
	EventOperation EventType = "operation"
	EventFailover  EventType = "failover"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// RouteEvent is emitted when the router selects a pool member.
type RouteEvent struct {
	EventBase
	Shard     string `json:"shard"`
	Position  uint32 `json:"position"`
	NeedsAuth bool   `json:"needs_auth,omitempty"`
}

// OperationEvent is emitted when a session operation completes.
type OperationEvent struct {
	EventBase
	Op       string        `json:"op"`
	Shard    string        `json:"shard"`
	Failover bool          `json:"failover,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// FailoverEvent is emitted before an operation is retried on the failover connection.
type FailoverEvent struct {
	EventBase
	Op     string `json:"op"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason error  `json:"-"`
}

// LifecycleHooks defines callbacks for routing and operation observability.
type LifecycleHooks struct {
	OnRoute     func(context.Context, *RouteEvent)
	OnOperation func(context.Context, *OperationEvent)
	OnFailover  func(context.Context, *FailoverEvent)
}

// EmitRoute invokes OnRoute when set.
func (h LifecycleHooks) EmitRoute(ctx context.Context, e *RouteEvent) {
	if h.OnRoute != nil {
		e.Type = EventRoute
		h.OnRoute(ctx, e)
	}
}

// EmitOperation invokes OnOperation when set.
func (h LifecycleHooks) EmitOperation(ctx context.Context, e *OperationEvent) {
	if h.OnOperation != nil {
		e.Type = EventOperation
		h.OnOperation(ctx, e)
	}
}

// EmitFailover invokes OnFailover when set.
func (h LifecycleHooks) EmitFailover(ctx context.Context, e *FailoverEvent) {
	if h.OnFailover != nil {
		e.Type = EventFailover
		h.OnFailover(ctx, e)
	}
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRoute: func(ctx context.Context, e *RouteEvent) {
			h.EmitRoute(ctx, e)
			other.EmitRoute(ctx, e)
		},
		OnOperation: func(ctx context.Context, e *OperationEvent) {
			h.EmitOperation(ctx, e)
			other.EmitOperation(ctx, e)
		},
		OnFailover: func(ctx context.Context, e *FailoverEvent) {
			h.EmitFailover(ctx, e)
			other.EmitFailover(ctx, e)
		},
	}
}
