package domain

import "slices"

// SliceReducer computes the next state of one domain. A nil prev means the
// reducer is called for the first time. Unrecognized actions return prev itself.
type SliceReducer func(prev *Slice, a Action) *Slice

// Reducer computes the next Snapshot.
type Reducer func(prev *Snapshot, a Action) *Snapshot

// NewSliceReducer returns the reducer for domain d.
// Actions targeting another domain are treated as unrecognized.
func NewSliceReducer(d Domain) SliceReducer {
	return func(prev *Slice, a Action) *Slice {
		if prev == nil {
			prev = InitialSlice()
		}
		if a == nil || a.Target() != d {
			return prev
		}

		switch act := a.(type) {
		case FetchOK:
			// Latest full list wins: no merge with the previous items.
			return &Slice{Items: slices.Clip(act.Items)}
		case FetchErr:
			return withError(prev, act.Err)
		case SubmitErr:
			return withError(prev, act.Err)
		case ClearErr:
			return &Slice{Items: prev.Items}
		case Append:
			items := make([]Entity, len(prev.Items), len(prev.Items)+1)
			copy(items, prev.Items)
			return &Slice{
				Items: append(items, act.Item),
				Error: prev.Error,
				Cause: prev.Cause,
			}
		default:
			return prev
		}
	}
}

func withError(prev *Slice, err error) *Slice {
	if err == nil {
		err = ErrUnknownError
	}
	return &Slice{
		Items: prev.Items,
		Error: err.Error(),
		Cause: err,
	}
}

var (
	postsReducer    = NewSliceReducer(DomainPosts)
	commentsReducer = NewSliceReducer(DomainComments)
)

// Reduce is the root reducer: it routes a to every domain reducer and composes the results.
// When no domain changes, prev is returned as is.
func Reduce(prev *Snapshot, a Action) *Snapshot {
	if prev == nil {
		prev = Initial()
	}
	posts := postsReducer(prev.Posts, a)
	comments := commentsReducer(prev.Comments, a)
	if posts == prev.Posts && comments == prev.Comments {
		return prev
	}
	return &Snapshot{Posts: posts, Comments: comments}
}
