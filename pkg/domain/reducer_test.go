package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unknownAction is a variant the reducers were never taught about.
type unknownAction struct{ d Domain }

func (unknownAction) dispatchable()    {}
func (unknownAction) Kind() Kind       { return Kind("SOMETHING_ELSE") }
func (a unknownAction) Target() Domain { return a.d }

func entity(id int) Entity {
	return Entity{"id": id, "title": "t"}
}

func TestSliceReducer_Transitions(t *testing.T) {
	boom := errors.New("boom")
	p1, p2, p3 := entity(1), entity(2), entity(3)

	tests := []struct {
		name   string
		prev   *Slice
		action Action
		want   *Slice
	}{
		{
			name:   "Replace On Success",
			prev:   &Slice{Items: []Entity{p1}, Error: "e", Cause: errors.New("e")},
			action: FetchSucceeded(DomainPosts, []Entity{p2, p3}),
			want:   &Slice{Items: []Entity{p2, p3}},
		},
		{
			name:   "Error Preserves Items",
			prev:   &Slice{Items: []Entity{p1}},
			action: FetchFailed(DomainPosts, boom),
			want:   &Slice{Items: []Entity{p1}, Error: "boom", Cause: boom},
		},
		{
			name:   "Submit Error Preserves Items",
			prev:   &Slice{Items: []Entity{p1}},
			action: SubmitFailed(DomainPosts, boom),
			want:   &Slice{Items: []Entity{p1}, Error: "boom", Cause: boom},
		},
		{
			name:   "Nil Failure Still Sets Error",
			prev:   InitialSlice(),
			action: FetchFailed(DomainPosts, nil),
			want:   &Slice{Items: []Entity{}, Error: ErrUnknownError.Error(), Cause: ErrUnknownError},
		},
		{
			name:   "Clear Error Keeps Items",
			prev:   &Slice{Items: []Entity{p1}, Error: "boom", Cause: boom},
			action: ErrorCleared(DomainPosts),
			want:   &Slice{Items: []Entity{p1}},
		},
		{
			name:   "Append Keeps Error",
			prev:   &Slice{Items: []Entity{p1}, Error: "boom", Cause: boom},
			action: ItemAppended(DomainPosts, p2),
			want:   &Slice{Items: []Entity{p1, p2}, Error: "boom", Cause: boom},
		},
	}

	reduce := NewSliceReducer(DomainPosts)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reduce(tt.prev, tt.action)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSliceReducer_Purity(t *testing.T) {
	reduce := NewSliceReducer(DomainComments)
	prev := &Slice{Items: []Entity{entity(1)}, Error: "old"}
	before := &Slice{Items: []Entity{entity(1)}, Error: "old"}

	actions := []Action{
		FetchSucceeded(DomainComments, []Entity{entity(2)}),
		FetchFailed(DomainComments, errors.New("x")),
		ItemAppended(DomainComments, entity(3)),
		ErrorCleared(DomainComments),
	}
	for _, a := range actions {
		first := reduce(prev, a)
		second := reduce(prev, a)
		assert.Equal(t, first, second, "same input must give the same output for %s", a.Kind())
		assert.Equal(t, before, prev, "prev must not be mutated by %s", a.Kind())
	}
}

func TestSliceReducer_AppendDoesNotAlias(t *testing.T) {
	reduce := NewSliceReducer(DomainComments)
	base := reduce(nil, FetchSucceeded(DomainComments, []Entity{entity(1)}))

	a := reduce(base, ItemAppended(DomainComments, entity(2)))
	b := reduce(base, ItemAppended(DomainComments, entity(3)))

	require.Len(t, a.Items, 2)
	require.Len(t, b.Items, 2)
	assert.Equal(t, "2", a.Items[1].ID())
	assert.Equal(t, "3", b.Items[1].ID())
	assert.Len(t, base.Items, 1)
}

func TestSliceReducer_FetchedItemsAreClipped(t *testing.T) {
	items := make([]Entity, 1, 4)
	items[0] = entity(1)
	got := NewSliceReducer(DomainPosts)(nil, FetchSucceeded(DomainPosts, items))

	_ = append(got.Items, entity(2))
	assert.Equal(t, len(got.Items), cap(got.Items))
	assert.Len(t, items[:2][1], 0, "appending to the held items must not write into the source array")
}

func TestSnapshot_Clone(t *testing.T) {
	s := &Snapshot{
		Posts:    &Slice{Items: []Entity{entity(1)}, Error: "boom"},
		Comments: InitialSlice(),
	}
	c := s.Clone()
	require.Equal(t, s, c)

	c.Posts.Items[0]["title"] = "changed"
	c.Posts.Items = append(c.Posts.Items, entity(2))

	assert.Equal(t, "t", s.Posts.Items[0]["title"])
	assert.Len(t, s.Posts.Items, 1)
	assert.Equal(t, "boom", c.Posts.Error)
	assert.Nil(t, (*Snapshot)(nil).Clone())
}

func TestSliceReducer_DefaultsToInitial(t *testing.T) {
	reduce := NewSliceReducer(DomainPosts)

	got := reduce(nil, unknownAction{d: DomainPosts})
	assert.Equal(t, InitialSlice(), got)

	got = reduce(nil, ErrorCleared(DomainPosts))
	assert.Equal(t, &Slice{Items: []Entity{}}, got)
}

func TestSliceReducer_AppendOrder(t *testing.T) {
	reduce := NewSliceReducer(DomainPosts)
	a := Entity{"id": 7, "title": "a"}
	b := Entity{"id": 7, "title": "b"} // same id: no de-duplication

	s := reduce(InitialSlice(), ItemAppended(DomainPosts, a))
	s = reduce(s, ItemAppended(DomainPosts, b))

	assert.Equal(t, &Slice{Items: []Entity{a, b}}, s)
}

func TestSliceReducer_ClearErrorIdempotent(t *testing.T) {
	reduce := NewSliceReducer(DomainPosts)
	start := &Slice{Items: []Entity{entity(1)}, Error: "boom"}

	once := reduce(start, ErrorCleared(DomainPosts))
	twice := reduce(once, ErrorCleared(DomainPosts))

	assert.Equal(t, "", once.Error)
	assert.Equal(t, once, twice)
}

func TestSliceReducer_UnrecognizedIsIdentity(t *testing.T) {
	reduce := NewSliceReducer(DomainPosts)
	prev := &Slice{Items: []Entity{entity(1)}, Error: "e"}

	assert.Same(t, prev, reduce(prev, unknownAction{d: DomainPosts}))
	assert.Same(t, prev, reduce(prev, FetchSucceeded(DomainComments, nil)), "other domain must be ignored")
	assert.Same(t, prev, reduce(prev, nil))
}

func TestReduce_RoutesByDomain(t *testing.T) {
	start := Initial()
	p := entity(1)

	next := Reduce(start, ItemAppended(DomainPosts, p))
	assert.Equal(t, []Entity{p}, next.Posts.Items)
	assert.Same(t, start.Comments, next.Comments, "untouched slice must be shared")
	assert.Empty(t, start.Posts.Items, "previous snapshot must be unchanged")

	assert.Same(t, next, Reduce(next, unknownAction{d: DomainComments}))
}

func TestReduce_NilPrevStartsFromInitial(t *testing.T) {
	got := Reduce(nil, unknownAction{d: DomainPosts})
	assert.Equal(t, Initial(), got)
}
