package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/quota-sentry/internal/model"
)

// InitialDataRepo reads the `user_initial_data` table, the third data
// source the admin surface seeds both stores from. Rows are partitioned
// by the store they should land in via the targetDb column.
type InitialDataRepo struct {
	DB *sql.DB
}

func NewInitialDataRepo(db *sql.DB) *InitialDataRepo {
	return &InitialDataRepo{DB: db}
}

// FindByTargetStore returns the seed rows destined for one store.
func (r *InitialDataRepo) FindByTargetStore(ctx context.Context, target model.StoreID) ([]model.SeedUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, firstName, lastName, lastLoginTimeUtc, targetDb FROM user_initial_data WHERE targetDb = ?",
		string(target))
	if err != nil {
		return nil, fmt.Errorf("find seed data for %s: %w", target, err)
	}
	defer rows.Close()

	var seeds []model.SeedUser
	for rows.Next() {
		var (
			s         model.SeedUser
			lastLogin sql.NullTime
			targetDB  string
		)
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &lastLogin, &targetDB); err != nil {
			return nil, fmt.Errorf("find seed data for %s: %w", target, err)
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			s.LastLoginTimeUTC = &t
		}
		if id, ok := model.ParseStoreID(targetDB); ok {
			s.TargetStore = id
		}
		seeds = append(seeds, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find seed data for %s: %w", target, err)
	}
	return seeds, nil
}
