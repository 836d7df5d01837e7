package domain

import "maps"

// Slice is the state of one domain.
// Error and Items may coexist: a failure never clears the items already held.
//
// A Slice obtained from the store is shared with the store and with later
// snapshots: never assign into it, its Items or their entities. Use Clone for a
// copy that may be modified.
type Slice struct {
	// Items keeps the order of the source response, then append order.
	Items []Entity

	// Error is the display form of the last failure; "" when none.
	Error string

	// Cause is the failure as it was received, kept verbatim.
	Cause error
}

// InitialSlice returns the starting value of every domain: no items, no error.
func InitialSlice() *Slice {
	return &Slice{Items: []Entity{}}
}

// Failed reports whether the slice currently holds an error.
func (s *Slice) Failed() bool {
	return s != nil && s.Error != ""
}

// Clone returns a copy of s whose Items and entities can be modified freely.
func (s *Slice) Clone() *Slice {
	if s == nil {
		return nil
	}
	items := make([]Entity, len(s.Items))
	for i, e := range s.Items {
		items[i] = maps.Clone(e)
	}
	return &Slice{Items: items, Error: s.Error, Cause: s.Cause}
}

// Snapshot is the complete state held by the store. It is never mutated in place;
// every transition produces a new Snapshot that shares unchanged slices.
type Snapshot struct {
	Posts    *Slice
	Comments *Slice
}

// Initial returns the Snapshot a store starts with when none is injected.
func Initial() *Snapshot {
	return &Snapshot{
		Posts:    InitialSlice(),
		Comments: InitialSlice(),
	}
}

// Clone returns a deep copy of every slice of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{Posts: s.Posts.Clone(), Comments: s.Comments.Clone()}
}

// Slice returns the sub-state for d, or nil for an unknown domain.
func (s *Snapshot) Slice(d Domain) *Slice {
	if s == nil {
		return nil
	}
	switch d {
	case DomainPosts:
		return s.Posts
	case DomainComments:
		return s.Comments
	}
	return nil
}
