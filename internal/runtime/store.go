package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
)

// Listener is notified after every transition, in subscription order.
// ctx carries an "applying" marker: dispatching an Action with it is rejected
// with domain.ErrReentrantDispatch. Dispatching a Thunk with it is allowed.
// An Action dispatched with any other context is applied at once and its
// notification is delivered after the listener returns.
type Listener func(ctx context.Context, prev, next *domain.Snapshot)

type subscription struct {
	id int
	fn Listener
}

type applyingKey struct{}

type notification struct {
	ctx        context.Context
	prev, next *domain.Snapshot
}

// Store holds the current Snapshot and is the only writer of it.
// Every change goes through Dispatch. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex // serializes reduce + store
	state  atomic.Pointer[domain.Snapshot]
	reduce domain.Reducer

	// pending holds transitions not yet delivered to listeners, in apply order.
	// One caller at a time drains it.
	queueMu  sync.Mutex
	pending  []notification
	draining bool

	subsMu sync.Mutex
	subs   []subscription
	nextID int

	inflight sync.WaitGroup

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom structured logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithReducer replaces the root reducer (default: domain.Reduce).
func WithReducer(r domain.Reducer) Option {
	return func(s *Store) {
		if r != nil {
			s.reduce = r
		}
	}
}

// NewStore creates a store holding initial. A nil initial starts from domain.Initial().
func NewStore(initial *domain.Snapshot, opts ...Option) *Store {
	if initial == nil {
		initial = domain.Initial()
	}
	s := &Store{
		reduce: domain.Reduce,
		logger: logging.NewNop(),
	}
	s.state.Store(initial)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetState returns the current Snapshot. Callers must treat it as read-only.
// It never blocks, so listeners may call it.
func (s *Store) GetState() *domain.Snapshot {
	return s.state.Load()
}

// Subscribe registers fn for post-transition notification.
// The returned function unsubscribes; calling it more than once is a no-op.
func (s *Store) Subscribe(fn Listener) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Store) unsubscribe(id int) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *Store) listeners() []Listener {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	fns := make([]Listener, len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	return fns
}

// Dispatch is the single entry point for state changes.
//
// An Action is applied synchronously: it is reduced and stored before Dispatch
// returns. Listeners see transitions one at a time, in apply order. Normally the
// dispatching goroutine notifies them before Dispatch returns; when another
// dispatch is already notifying (including a listener dispatching with a context
// of its own), that one delivers the transition after the current listener call
// returns. A Thunk is started on its own goroutine
// with Dispatch as its dispatcher, and Dispatch returns immediately. The thunk's
// context keeps the caller's values but not its cancellation: once started, the
// operation runs until it settles.
func (s *Store) Dispatch(ctx context.Context, d domain.Dispatchable) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch v := d.(type) {
	case nil:
		return domain.ErrNilAction
	case domain.Thunk:
		if v == nil {
			return domain.ErrNilAction
		}
		s.run(ctx, v)
		return nil
	case domain.Action:
		if applying, _ := ctx.Value(applyingKey{}).(bool); applying {
			return fmt.Errorf("%w: %s", domain.ErrReentrantDispatch, domain.Describe(v))
		}
		s.apply(ctx, v)
		return nil
	default:
		return fmt.Errorf("unsupported dispatchable %T", d)
	}
}

func (s *Store) apply(ctx context.Context, a domain.Action) {
	s.commit(ctx, a)
	s.drain()
}

// commit reduces a, stores the result and queues the transition for listeners.
func (s *Store) commit(ctx context.Context, a domain.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.Load()
	next := s.reduce(prev, a)
	if next == nil {
		next = prev
	}
	s.state.Store(next)

	changed := domain.Changed(prev, next)
	s.logger.Debug("action applied",
		"domain", a.Target(),
		"kind", a.Kind(),
		"changed", changed,
	)
	if s.hooks.OnDispatch != nil {
		s.hooks.OnDispatch(ctx, &domain.DispatchEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDispatch},
			Domain:    a.Target(),
			Kind:      a.Kind(),
			Changed:   changed,
		})
	}

	s.queueMu.Lock()
	s.pending = append(s.pending, notification{ctx: ctx, prev: prev, next: next})
	s.queueMu.Unlock()
}

// drain delivers pending transitions until none is left. It returns at once
// when another call is already draining.
func (s *Store) drain() {
	s.queueMu.Lock()
	if s.draining {
		s.queueMu.Unlock()
		return
	}
	s.draining = true
	s.queueMu.Unlock()

	done := false
	defer func() {
		// a panicking listener must not leave the queue without a drainer
		if !done {
			s.queueMu.Lock()
			s.draining = false
			s.queueMu.Unlock()
		}
	}()

	for {
		s.queueMu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.queueMu.Unlock()
			done = true
			return
		}
		n := s.pending[0]
		s.pending[0] = notification{}
		s.pending = s.pending[1:]
		s.queueMu.Unlock()

		lctx := context.WithValue(n.ctx, applyingKey{}, true)
		for _, fn := range s.listeners() {
			fn(lctx, n.prev, n.next)
		}
	}
}

func (s *Store) run(ctx context.Context, t domain.Thunk) {
	tctx := context.WithValue(context.WithoutCancel(ctx), applyingKey{}, false)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("thunk panicked",
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		t(tctx, s.Dispatch)
	}()
}

// Wait blocks until every thunk started so far has returned.
func (s *Store) Wait() {
	s.inflight.Wait()
}
