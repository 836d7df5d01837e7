package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChanged(t *testing.T) {
	start := Initial()
	afterPosts := Reduce(start, FetchFailed(DomainPosts, errors.New("x")))

	tests := []struct {
		name string
		prev *Snapshot
		next *Snapshot
		want []Domain
	}{
		{name: "Initial Load", prev: nil, next: start, want: []Domain{DomainPosts, DomainComments}},
		{name: "No Changes", prev: start, next: start, want: nil},
		{name: "Posts Only", prev: start, next: afterPosts, want: []Domain{DomainPosts}},
		{name: "Nil Next", prev: start, next: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Changed(tt.prev, tt.next))
		})
	}
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnDispatch: func(context.Context, *DispatchEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{
		OnDispatch:   func(context.Context, *DispatchEvent) { calls = append(calls, "b") },
		OnFetchStart: func(context.Context, *FetchEvent) { calls = append(calls, "start") },
	}

	merged := a.Merge(b)
	merged.OnDispatch(context.Background(), &DispatchEvent{})
	merged.OnFetchStart(context.Background(), &FetchEvent{})

	assert.Equal(t, []string{"a", "b", "start"}, calls)
	assert.Nil(t, merged.OnFetchSettle)
}
