package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/quota-sentry/internal/model"
	"github.com/iliyamo/quota-sentry/internal/repository"
)

// AdminService is the administrative surface: full wipe of both stores
// and re-seeding them from the user_initial_data table, partitioned by
// each row's target store. None of it is touched by the quota path.
type AdminService struct {
	stores StoreSet
	seeds  *repository.InitialDataRepo
	now    func() time.Time
}

func NewAdminService(stores StoreSet, seeds *repository.InitialDataRepo) *AdminService {
	return &AdminService{
		stores: stores,
		seeds:  seeds,
		now:    model.NowUTC,
	}
}

// WipeAll physically clears both stores.
func (a *AdminService) WipeAll(ctx context.Context) error {
	if err := a.stores.Primary.WipeAll(ctx); err != nil {
		return fmt.Errorf("wipe primary: %w", err)
	}
	if err := a.stores.Secondary.WipeAll(ctx); err != nil {
		return fmt.Errorf("wipe secondary: %w", err)
	}
	log.Printf("admin: both stores wiped")
	return nil
}

// Seed wipes both stores and loads each with its partition of the
// initial data. Seeded users start fresh: new UUID, zero requests,
// unlocked, both timestamps set to now.
func (a *AdminService) Seed(ctx context.Context) error {
	if err := a.WipeAll(ctx); err != nil {
		return err
	}
	for _, target := range []model.StoreID{model.StorePrimary, model.StoreSecondary} {
		if err := a.seedStore(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

func (a *AdminService) seedStore(ctx context.Context, target model.StoreID) error {
	seeds, err := a.seeds.FindByTargetStore(ctx, target)
	if err != nil {
		return fmt.Errorf("seed %s: %w", target, err)
	}
	store := a.stores.Get(target)
	now := a.now()
	for _, s := range seeds {
		u := model.User{
			ID:               uuid.NewString(),
			FirstName:        s.FirstName,
			LastName:         s.LastName,
			LastLoginTimeUTC: s.LastLoginTimeUTC,
			Requests:         0,
			Locked:           false,
			Created:          now,
			Modified:         now,
		}
		if err := store.Create(ctx, u); err != nil {
			return fmt.Errorf("seed %s: %w", target, err)
		}
	}
	log.Printf("admin: seeded %d users into %s", len(seeds), target)
	return nil
}

// Dump returns the quota projections of the live records in one store.
func (a *AdminService) Dump(ctx context.Context, id model.StoreID) ([]model.UserDTO, error) {
	users, err := a.stores.Get(id).ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]model.UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, u.DTO())
	}
	return dtos, nil
}

// DumpAll concatenates the live records of both stores, secondary
// first to match the original admin dump ordering.
func (a *AdminService) DumpAll(ctx context.Context) ([]model.UserDTO, error) {
	out, err := a.Dump(ctx, model.StoreSecondary)
	if err != nil {
		return nil, err
	}
	primary, err := a.Dump(ctx, model.StorePrimary)
	if err != nil {
		return nil, err
	}
	return append(out, primary...), nil
}
