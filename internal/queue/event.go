// Package queue defines message payloads exchanged over the message
// broker, the publisher used by the quota service, and the background
// consumer that turns lock events into an audit log.
package queue

// UserLockedEvent is published when the quota service locks a user that
// has consumed its whole quota. It carries enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying either store.
type UserLockedEvent struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Requests  int    `json:"requests"`
	Store     string `json:"store"`
	LockedAt  string `json:"locked_at"`
}
