package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/quota-sentry/internal/model"
	"github.com/iliyamo/quota-sentry/internal/queue"
	"github.com/iliyamo/quota-sentry/internal/repository"
)

// Outcome is the result of a quota-consume call. Not-found and locked
// are outcomes, not errors: the call is accepted and has no effect.
// Only storage failures surface as errors.
type Outcome string

const (
	OutcomeConsumed Outcome = "consumed"
	OutcomeLocked   Outcome = "locked"
	OutcomeNotFound Outcome = "not_found"
)

// QuotaService executes the quota use cases against whichever store
// the router names active at call time. A user's quota walks a simple
// state machine: below the ceiling each consume adds one request; at
// the ceiling the next consume flips the record to locked; once locked
// every further consume is a no-op. Nothing in this service unlocks a
// user.
type QuotaService struct {
	maxRequests int
	router      *StoreRouter
	stores      StoreSet
	now         func() time.Time

	// publishLocked is swapped out in tests; the default ships the
	// lock event to the broker best-effort.
	publishLocked func(ctx context.Context, ev queue.UserLockedEvent) error
}

func NewQuotaService(maxRequests int, router *StoreRouter, stores StoreSet) *QuotaService {
	return &QuotaService{
		maxRequests:   maxRequests,
		router:        router,
		stores:        stores,
		now:           model.NowUTC,
		publishLocked: queue.PublishUserLocked,
	}
}

// Consume applies one quota-consume call for the given user id.
func (s *QuotaService) Consume(ctx context.Context, id string) (Outcome, error) {
	now := s.now()
	storeID := s.router.Active(now)
	store := s.stores.Get(storeID)

	u, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("quota: user %s doesn't exist, nothing to consume", id)
			return OutcomeNotFound, nil
		}
		return "", err
	}
	if u.Locked {
		log.Printf("quota: user %s is locked, no more quota allowed", id)
		return OutcomeLocked, nil
	}
	if u.Requests >= s.maxRequests {
		// Transition from consuming to locked goes through the full
		// update path, not the increment path: the counter stays put.
		log.Printf("quota: user %s is being locked, all quota consumed", id)
		u.Locked = true
		u.Modified = now
		if _, err := store.Update(ctx, id, u); err != nil {
			return "", err
		}
		if err := s.publishLocked(ctx, queue.UserLockedEvent{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Requests:  u.Requests,
			Store:     string(storeID),
			LockedAt:  now.Format(time.RFC3339),
		}); err != nil {
			log.Printf("quota: publish locked event for user %s failed: %v", id, err)
		}
		return OutcomeLocked, nil
	}
	if err := store.IncrementQuota(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return OutcomeNotFound, nil
		}
		return "", err
	}
	return OutcomeConsumed, nil
}

// ListQuota returns the quota projections of all live users in the
// currently active store.
func (s *QuotaService) ListQuota(ctx context.Context) ([]model.UserDTO, error) {
	store := s.stores.Get(s.router.Active(s.now()))
	users, err := store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]model.UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, u.DTO())
	}
	return dtos, nil
}

// GetUser resolves one live user from the active store.
func (s *QuotaService) GetUser(ctx context.Context, id string) (model.UserDTO, error) {
	store := s.stores.Get(s.router.Active(s.now()))
	u, err := store.GetByID(ctx, id)
	if err != nil {
		return model.UserDTO{}, err
	}
	return u.DTO(), nil
}

// CreateUser inserts a user into the active store. A missing id gets a
// fresh UUID; zero timestamps are stamped with the current time.
func (s *QuotaService) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	now := s.now()
	u = clampPrecision(u)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Created.IsZero() {
		u.Created = now
	}
	if u.Modified.IsZero() {
		u.Modified = now
	}
	store := s.stores.Get(s.router.Active(now))
	if err := store.Create(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// UpdateUser applies a full record update against the active store
// under the store's last-write-wins rule. The update doubles as an
// insert when the id is absent, so a zero Created is stamped here the
// same way CreateUser stamps it; MySQL would reject the zero time.
func (s *QuotaService) UpdateUser(ctx context.Context, id string, u model.User) (bool, error) {
	now := s.now()
	u = clampPrecision(u)
	if u.Modified.IsZero() {
		u.Modified = now
	}
	if u.Created.IsZero() {
		u.Created = u.Modified
	}
	store := s.stores.Get(s.router.Active(now))
	return store.Update(ctx, id, u)
}

// clampPrecision drops sub-microsecond detail from caller-supplied
// timestamps so they survive a relational-store round trip unchanged.
func clampPrecision(u model.User) model.User {
	u.Created = u.Created.Truncate(time.Microsecond)
	u.Modified = u.Modified.Truncate(time.Microsecond)
	if u.LastLoginTimeUTC != nil {
		t := u.LastLoginTimeUTC.Truncate(time.Microsecond)
		u.LastLoginTimeUTC = &t
	}
	return u
}

// DeleteUser tombstones a user in the active store. The record stays
// physically present until the next sync run purges it, so the delete
// can propagate to the standby store first.
func (s *QuotaService) DeleteUser(ctx context.Context, id string) error {
	store := s.stores.Get(s.router.Active(s.now()))
	return store.SoftDelete(ctx, id)
}
