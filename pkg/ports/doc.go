/*
Package ports defines the driven ports (interfaces) of lattice.

These interfaces decouple the state container and the development backend from concrete
implementations, so the same action creators work over any HTTP stack and the same backend
works over memory or Redis.

# Key Interfaces

  - Fetcher: the request/response contract used by the action creators.
  - Repository: storage for posts, comments and users behind the development backend.
  - TokenStore: storage for login session tokens.
*/
package ports
