package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/quota-sentry/internal/model"
)

var _ UserStore = (*UserMemoryRepo)(nil)

// UserMemoryRepo is the secondary store: a simulated in-memory document
// store kept behind the same UserStore contract as MySQL. Records are
// held by value so callers never share mutable state with the store.
// A single RWMutex is enough here; per-record linearizability follows
// from every mutation running under the write lock.
type UserMemoryRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
	now   func() time.Time
}

func NewUserMemoryRepo() *UserMemoryRepo {
	return &UserMemoryRepo{
		users: make(map[string]model.User),
		now:   model.NowUTC,
	}
}

// Create upserts the record; an existing newer copy wins.
func (r *UserMemoryRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.Update(ctx, u.ID, u)
	return err
}

// GetByID returns the live record. Tombstoned entries count as absent.
func (r *UserMemoryRepo) GetByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok || u.Deleted {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// Update applies last-write-wins on Modified, inserting when the id is
// absent. A tie keeps the stored copy.
func (r *UserMemoryRepo) Update(_ context.Context, id string, u model.User) (bool, error) {
	u.ID = id
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[id]
	if ok && !current.Modified.Before(u.Modified) {
		return false, nil
	}
	r.users[id] = u
	return true, nil
}

// SoftDelete tombstones the record and bumps Modified. Absent or
// already-tombstoned ids are left alone.
func (r *UserMemoryRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Deleted {
		return nil
	}
	u.Deleted = true
	u.Modified = r.now()
	r.users[id] = u
	return nil
}

// IncrementQuota bumps the counter and both timestamps under one lock
// acquisition, so the three fields always move together.
func (r *UserMemoryRepo) IncrementQuota(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Deleted {
		return ErrNotFound
	}
	now := r.now()
	u.Requests++
	u.LastLoginTimeUTC = &now
	u.Modified = now
	r.users[id] = u
	return nil
}

// ListActive returns all non-tombstoned records.
func (r *UserMemoryRepo) ListActive(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		if !u.Deleted {
			users = append(users, u)
		}
	}
	return users, nil
}

// ListAll returns every record including tombstoned ones.
func (r *UserMemoryRepo) ListAll(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

// PurgeTombstoned removes tombstoned records and reports the count.
func (r *UserMemoryRepo) PurgeTombstoned(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, u := range r.users {
		if u.Deleted {
			delete(r.users, id)
			n++
		}
	}
	return n, nil
}

// WipeAll clears the store. Admin seeding only.
func (r *UserMemoryRepo) WipeAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]model.User)
	return nil
}
