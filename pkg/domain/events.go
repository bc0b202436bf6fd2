package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRegister   EventType = "register"
	EventUnregister EventType = "unregister"
	EventDispatch   EventType = "dispatch"
	EventSuggest    EventType = "suggest"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	DispatchID string    `json:"dispatch_id,omitempty"`
}

// RegistrationEvent is emitted once per command of a Register/Unregister batch.
type RegistrationEvent struct {
	EventBase
	Route   string `json:"route"`
	Skipped bool   `json:"skipped,omitempty"`
	Err     error  `json:"-"`
}

// DispatchEvent is emitted when a dispatch finishes (or, for async
// commands, when the handler has been handed to the executor).
type DispatchEvent struct {
	EventBase
	Line     string        `json:"line"`
	Route    string        `json:"route,omitempty"`
	Async    bool          `json:"async,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// SuggestEvent is emitted after a suggestion request.
type SuggestEvent struct {
	EventBase
	Line     string        `json:"line"`
	Count    int           `json:"count"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for dispatcher observability.
type LifecycleHooks struct {
	OnRegister   func(context.Context, *RegistrationEvent)
	OnUnregister func(context.Context, *RegistrationEvent)
	OnDispatch   func(context.Context, *DispatchEvent)
	OnSuggest    func(context.Context, *SuggestEvent)
}

// ComposeHooks fans every event out to each of hooks in order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRegister: func(ctx context.Context, e *RegistrationEvent) {
			for _, h := range hooks {
				if h.OnRegister != nil {
					h.OnRegister(ctx, e)
				}
			}
		},
		OnUnregister: func(ctx context.Context, e *RegistrationEvent) {
			for _, h := range hooks {
				if h.OnUnregister != nil {
					h.OnUnregister(ctx, e)
				}
			}
		},
		OnDispatch: func(ctx context.Context, e *DispatchEvent) {
			for _, h := range hooks {
				if h.OnDispatch != nil {
					h.OnDispatch(ctx, e)
				}
			}
		},
		OnSuggest: func(ctx context.Context, e *SuggestEvent) {
			for _, h := range hooks {
				if h.OnSuggest != nil {
					h.OnSuggest(ctx, e)
				}
			}
		},
	}
}
