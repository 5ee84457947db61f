// Package service implements the quota use cases on top of the two
// user stores: hour-window store routing, quota consumption with the
// lock-on-exhaustion rule, periodic cross-store reconciliation, and the
// admin wipe/seed surface.
package service

import (
	"time"

	"github.com/iliyamo/quota-sentry/internal/model"
	"github.com/iliyamo/quota-sentry/internal/repository"
)

// StoreRouter decides which store serves live traffic at a given
// instant. The primary (MySQL) store is active while the current UTC
// hour falls inside [StartHour, EndHour); outside the window the
// secondary store takes over. The router holds no state: every call
// recomputes from the timestamp it is handed, so tests can feed fixed
// instants.
//
// Inverted bounds (StartHour >= EndHour) are not rejected; the window
// then never matches and the secondary store is active around the
// clock. Config loading warns about that instead of failing startup.
type StoreRouter struct {
	StartHour int
	EndHour   int
}

func NewStoreRouter(startHour, endHour int) *StoreRouter {
	return &StoreRouter{StartHour: startHour, EndHour: endHour}
}

// Active names the store serving live reads and writes at now.
func (r *StoreRouter) Active(now time.Time) model.StoreID {
	h := now.UTC().Hour()
	if h >= r.StartHour && h < r.EndHour {
		return model.StorePrimary
	}
	return model.StoreSecondary
}

// Standby names the store not selected at now. Active and Standby are
// always a complementary pair.
func (r *StoreRouter) Standby(now time.Time) model.StoreID {
	if r.Active(now) == model.StorePrimary {
		return model.StoreSecondary
	}
	return model.StorePrimary
}

// StoreSet holds both concrete stores so callers can resolve the
// router's decision into an actual UserStore.
type StoreSet struct {
	Primary   repository.UserStore
	Secondary repository.UserStore
}

// Get resolves a StoreID to its store.
func (s StoreSet) Get(id model.StoreID) repository.UserStore {
	if id == model.StorePrimary {
		return s.Primary
	}
	return s.Secondary
}
