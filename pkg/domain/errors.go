package domain

import "errors"

// ErrNilAction is returned when Dispatch receives a nil value.
var ErrNilAction = errors.New("nil action")

// ErrReentrantDispatch is returned when an Action is dispatched synchronously
// while the store is still applying a previous one.
var ErrReentrantDispatch = errors.New("dispatch while applying an action")

// ErrUnknownError stands in for a failure that carried no error value.
var ErrUnknownError = errors.New("unknown error")

// ErrNotFound is returned when a post, comment or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique value (e.g. a username) is already taken.
var ErrConflict = errors.New("already exists")

// ErrInvalidInput is returned when a required field is missing or malformed.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnauthorized is returned when a request carries no valid session.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the session lacks the rights for an operation.
var ErrForbidden = errors.New("forbidden")
