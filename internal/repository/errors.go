// Package repository defines error types that are reused across both
// user store implementations. These sentinel values allow higher
// layers such as services and handlers to distinguish between
// different failure scenarios. ErrNotFound indicates that a record is
// absent or tombstoned; the quota service reports it as an outcome
// rather than a failure, while handlers translate it into an HTTP 404
// response. Anything else coming out of a store is a real storage
// failure and is surfaced to the caller as retryable.
package repository

import "errors"

// ErrNotFound is returned when a user id does not resolve to a live
// record. A tombstoned record counts as absent: every lookup surface
// treats the two identically.
var ErrNotFound = errors.New("user not found")
