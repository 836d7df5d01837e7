package domain

import (
	"context"
	"fmt"
)

// Domain names a sub-state of the Snapshot.
type Domain string

const (
	DomainPosts    Domain = "posts"
	DomainComments Domain = "comments"
)

// Domains lists every sub-state, in Snapshot field order.
var Domains = []Domain{DomainPosts, DomainComments}

// Kind is the enumerated tag of an Action.
type Kind string

const (
	// KindFetchOK carries the full list returned by a successful fetch.
	KindFetchOK Kind = "FETCH_OK"
	// KindFetchErr carries the error of a failed list fetch.
	KindFetchErr Kind = "FETCH_ERR"
	// KindSubmitErr carries the error of a failed submission (e.g. posting a comment).
	KindSubmitErr Kind = "SUBMIT_ERR"
	// KindAppend carries one item to add at the end of the list.
	KindAppend Kind = "APPEND"
	// KindClearErr resets the error of a domain.
	KindClearErr Kind = "CLEAR_ERR"
)

// Dispatchable is anything the store accepts: an Action or a Thunk.
type Dispatchable interface {
	dispatchable()
}

// Action describes something that happened. Implementations are the
// variants declared in this file; the set is closed.
type Action interface {
	Dispatchable
	Kind() Kind
	Target() Domain
}

// DispatchFunc is the signature of the store's single entry point.
type DispatchFunc func(ctx context.Context, d Dispatchable) error

// Thunk is a deferred side-effecting operation. The store runs it with its own
// dispatch function so it can report the outcome once the operation settles.
type Thunk func(ctx context.Context, dispatch DispatchFunc)

func (Thunk) dispatchable() {}

// FetchOK replaces the items of a domain with the fetched list.
type FetchOK struct {
	Domain Domain
	Items  []Entity
}

// FetchErr records a failed list fetch.
type FetchErr struct {
	Domain Domain
	Err    error
}

// SubmitErr records a failed submission.
type SubmitErr struct {
	Domain Domain
	Err    error
}

// Append adds one item to the end of a domain's list.
type Append struct {
	Domain Domain
	Item   Entity
}

// ClearErr resets a domain's error.
type ClearErr struct {
	Domain Domain
}

func (FetchOK) dispatchable()   {}
func (FetchErr) dispatchable()  {}
func (SubmitErr) dispatchable() {}
func (Append) dispatchable()    {}
func (ClearErr) dispatchable()  {}

func (FetchOK) Kind() Kind   { return KindFetchOK }
func (FetchErr) Kind() Kind  { return KindFetchErr }
func (SubmitErr) Kind() Kind { return KindSubmitErr }
func (Append) Kind() Kind    { return KindAppend }
func (ClearErr) Kind() Kind  { return KindClearErr }

func (a FetchOK) Target() Domain   { return a.Domain }
func (a FetchErr) Target() Domain  { return a.Domain }
func (a SubmitErr) Target() Domain { return a.Domain }
func (a Append) Target() Domain    { return a.Domain }
func (a ClearErr) Target() Domain  { return a.Domain }

// FetchSucceeded builds the descriptor for a successful fetch.
// The items are copied so later changes to the argument do not leak into the state.
func FetchSucceeded(d Domain, items []Entity) Action {
	cp := make([]Entity, len(items))
	copy(cp, items)
	return FetchOK{Domain: d, Items: cp}
}

// FetchFailed builds the descriptor for a failed fetch. A nil err is recorded as ErrUnknownError.
func FetchFailed(d Domain, err error) Action {
	if err == nil {
		err = ErrUnknownError
	}
	return FetchErr{Domain: d, Err: err}
}

// SubmitFailed builds the descriptor for a failed submission. A nil err is recorded as ErrUnknownError.
func SubmitFailed(d Domain, err error) Action {
	if err == nil {
		err = ErrUnknownError
	}
	return SubmitErr{Domain: d, Err: err}
}

// ItemAppended builds the descriptor that adds item to the end of the list.
func ItemAppended(d Domain, item Entity) Action {
	return Append{Domain: d, Item: item}
}

// ErrorCleared builds the descriptor that resets the error of a domain.
func ErrorCleared(d Domain) Action {
	return ClearErr{Domain: d}
}

// Describe returns a short human-readable form of an action, for logs.
func Describe(a Action) string {
	return fmt.Sprintf("%s/%s", a.Target(), a.Kind())
}
