package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch    EventType = "dispatch"
	EventFetchStart  EventType = "fetch_start"
	EventFetchSettle EventType = "fetch_settle"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent is emitted after an Action has been applied.
type DispatchEvent struct {
	EventBase
	Domain  Domain   `json:"domain"`
	Kind    Kind     `json:"kind"`
	Changed []Domain `json:"changed,omitempty"`
}

// FetchEvent is emitted around the request issued by an action creator.
type FetchEvent struct {
	EventBase
	Domain   Domain        `json:"domain"`
	Method   string        `json:"method"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnDispatch    func(context.Context, *DispatchEvent)
	OnFetchStart  func(context.Context, *FetchEvent)
	OnFetchSettle func(context.Context, *FetchEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnDispatch:    chain(h.OnDispatch, other.OnDispatch),
		OnFetchStart:  chain(h.OnFetchStart, other.OnFetchStart),
		OnFetchSettle: chain(h.OnFetchSettle, other.OnFetchSettle),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
