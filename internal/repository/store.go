package repository

import (
	"context"

	"github.com/iliyamo/quota-sentry/internal/model"
)

// UserStore is the contract shared by the MySQL store and the
// in-memory store. The quota service and the sync job only ever talk
// to this interface; which concrete store they hit is decided by the
// hour-window router at call time.
//
// Write semantics are last-write-wins on the record's Modified
// timestamp: Create and Update are both upserts that apply the
// incoming record only when its Modified is strictly later than the
// stored one. A tie keeps the stored copy, which is what makes a
// repeated sync run a no-op.
type UserStore interface {
	// Create upserts the record under the same last-write-wins rule
	// as Update. Creating an id that already holds a newer record is
	// a no-op, not an error.
	Create(ctx context.Context, u model.User) error

	// GetByID returns the live record or ErrNotFound when the id is
	// absent or tombstoned.
	GetByID(ctx context.Context, id string) (model.User, error)

	// Update applies the incoming record if its Modified is strictly
	// later than the stored one, inserting when the id is absent.
	// The boolean reports whether anything was written.
	Update(ctx context.Context, id string, u model.User) (bool, error)

	// SoftDelete tombstones the record and bumps Modified. Absent or
	// already-tombstoned ids are a no-op.
	SoftDelete(ctx context.Context, id string) error

	// IncrementQuota adds one request and stamps LastLoginTimeUTC and
	// Modified as a single persisted unit. Returns ErrNotFound when
	// the id is absent or tombstoned.
	IncrementQuota(ctx context.Context, id string) error

	// ListActive returns all non-tombstoned records.
	ListActive(ctx context.Context) ([]model.User, error)

	// ListAll returns every record including tombstoned ones; the
	// sync job reads through this so deletes can propagate.
	ListAll(ctx context.Context) ([]model.User, error)

	// PurgeTombstoned hard-deletes all tombstoned records and returns
	// how many were removed. This is the only call that permanently
	// destroys data.
	PurgeTombstoned(ctx context.Context) (int64, error)

	// WipeAll clears the store entirely. Used by the admin seeding
	// surface only.
	WipeAll(ctx context.Context) error
}
