package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/quota-sentry/internal/model"
	"github.com/iliyamo/quota-sentry/internal/repository"
)

// SyncSummary reports what a single reconciliation run did.
type SyncSummary struct {
	Active string `json:"active"` // store the run read from
	Read   int    `json:"read"`   // records read from the active store
	Merged int    `json:"merged"` // records actually written into the standby store
	Purged int64  `json:"purged"` // tombstoned records hard-deleted across both stores
	Failed int    `json:"failed"` // per-record merge failures (run continues past them)
}

// SyncService periodically reconciles the two stores: it reads the
// full record set (tombstones included) from the active store, merges
// it into the standby store under last-write-wins, and then purges
// tombstoned records from both sides. The router is consulted exactly
// once per run so a run that straddles a window boundary cannot flip
// direction midway.
type SyncService struct {
	router *StoreRouter
	stores StoreSet
	now    func() time.Time

	initialDelay time.Duration
	interval     time.Duration

	mu sync.Mutex // at most one run in flight
}

func NewSyncService(router *StoreRouter, stores StoreSet, initialDelay, interval time.Duration) *SyncService {
	return &SyncService{
		router:       router,
		stores:       stores,
		now:          model.NowUTC,
		initialDelay: initialDelay,
		interval:     interval,
	}
}

// Run drives Synchronize on the configured schedule until the context
// is cancelled. Ticks are handled sequentially on one goroutine, so
// scheduled runs can never overlap; the mutex additionally covers
// manual runs triggered through the admin surface.
func (s *SyncService) Run(ctx context.Context) {
	log.Printf("sync: scheduler started (initial delay %s, interval %s)", s.initialDelay, s.interval)
	delay := time.NewTimer(s.initialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}
	s.Synchronize(ctx)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("sync: scheduler stopped")
			return
		case <-tick.C:
			s.Synchronize(ctx)
		}
	}
}

// Synchronize executes one reconciliation run. It never panics past
// its boundary and never aborts on a single failing record; failures
// are counted and the run carries on. Running it twice in a row with
// no intervening writes merges and purges nothing.
func (s *SyncService) Synchronize(ctx context.Context) (sum SyncSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sync: run panicked: %v", r)
			sum.Failed++
		}
	}()

	now := s.now()
	activeID := s.router.Active(now)
	standbyID := s.router.Standby(now)
	active := s.stores.Get(activeID)
	standby := s.stores.Get(standbyID)
	sum.Active = string(activeID)
	log.Printf("sync: run started, %s -> %s", activeID, standbyID)

	users, err := active.ListAll(ctx)
	if err != nil {
		log.Printf("sync: reading %s failed: %v", activeID, err)
		sum.Failed++
		return sum
	}
	sum.Read = len(users)

	propagated := 0 // tombstones that reached the standby store only this run
	for _, u := range users {
		applied, err := standby.Update(ctx, u.ID, u)
		if err != nil {
			log.Printf("sync: merging user %s into %s failed: %v", u.ID, standbyID, err)
			sum.Failed++
			continue
		}
		if applied {
			sum.Merged++
			if u.Deleted {
				propagated++
			}
		}
	}

	// Purging is what makes a delete permanent, so it only runs once
	// every outstanding tombstone is confirmed on both sides. A run
	// that just propagated a tombstone (or failed to merge a record
	// that might have been one) leaves the purge to the next run; a
	// standby that never saw the delete could otherwise resurrect the
	// record later.
	switch {
	case sum.Failed > 0:
		log.Printf("sync: %d merge failures, skipping purge this run", sum.Failed)
	case propagated > 0:
		log.Printf("sync: %d tombstones newly propagated, deferring purge to next run", propagated)
	default:
		s.purge(ctx, standbyID, standby, &sum)
		s.purge(ctx, activeID, active, &sum)
	}

	log.Printf("sync: run ended, read=%d merged=%d purged=%d failed=%d",
		sum.Read, sum.Merged, sum.Purged, sum.Failed)
	return sum
}

func (s *SyncService) purge(ctx context.Context, id model.StoreID, store repository.UserStore, sum *SyncSummary) {
	n, err := store.PurgeTombstoned(ctx)
	if err != nil {
		log.Printf("sync: purging %s failed: %v", id, err)
		sum.Failed++
		return
	}
	sum.Purged += n
}
