/*
Package actions provides the asynchronous action creators of lattice.

A creator returns a domain.Thunk. When the store runs it, the thunk issues exactly one request
through a ports.Fetcher and reports the outcome with exactly one dispatch: a success descriptor
when the response decodes, a failure descriptor otherwise. There are no retries and no timeouts,
and nothing escapes the thunk as a panic.

	store.Dispatch(ctx, actions.GetPosts(client))
*/
package actions
