/*
Package observability exposes Prometheus metrics for the lattice store and backend.

Metrics.Hooks plugs into domain.LifecycleHooks so dispatches and fetches are counted
without the store or the action creators knowing about Prometheus. Metrics.Middleware
instruments the development backend's routes.
*/
package observability
