/*
Package domain contains the core state model and the pure transition logic of lattice.

It defines the Snapshot held by the store, the Action descriptors that describe what happened,
and the reducers that compute the next Snapshot from the current one. This package is kept pure
and free of I/O, following Hexagonal Architecture principles: network access lives in the
action creators (package actions) and the transport adapters.

# Key Entities

  - Entity: an opaque record received from the remote resource, identified by its "id".
  - Slice: the state of one domain (posts or comments): items plus the last error.
  - Snapshot: the complete immutable state value at a point in time.
  - Action: a closed set of descriptors (FetchOK, FetchErr, SubmitErr, Append, ClearErr).
  - Thunk: a deferred side-effecting operation accepted by the store in place of an Action.
*/
package domain
