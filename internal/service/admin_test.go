package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/quota-sentry/internal/model"
	"github.com/iliyamo/quota-sentry/internal/repository"
)

func TestAdminService_WipeAll(t *testing.T) {
	ctx := context.Background()
	primary := newMemStore(t)
	secondary := newMemStore(t)
	seedUser(t, primary, model.User{ID: "p1"})
	seedUser(t, secondary, model.User{ID: "s1"})

	admin := NewAdminService(StoreSet{Primary: primary, Secondary: secondary}, nil)
	require.NoError(t, admin.WipeAll(ctx))

	for _, store := range []*repository.UserMemoryRepo{primary, secondary} {
		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	}
}

func TestAdminService_Seed(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "firstName", "lastName", "lastLoginTimeUtc", "targetDb"}
	mock.ExpectQuery("SELECT id, firstName, lastName, lastLoginTimeUtc, targetDb FROM user_initial_data").
		WithArgs("primary").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("seed-1", "Ada", "Lovelace", nil, "primary").
			AddRow("seed-2", "Grace", "Hopper", nil, "primary"))
	mock.ExpectQuery("SELECT id, firstName, lastName, lastLoginTimeUtc, targetDb FROM user_initial_data").
		WithArgs("secondary").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("seed-3", "Edsger", "Dijkstra", nil, "secondary"))

	primary := newMemStore(t)
	secondary := newMemStore(t)
	// Pre-existing data must not survive a seed.
	seedUser(t, primary, model.User{ID: "stale", Requests: 9, Locked: true})

	admin := NewAdminService(StoreSet{Primary: primary, Secondary: secondary}, repository.NewInitialDataRepo(db))
	admin.now = func() time.Time { return base }
	require.NoError(t, admin.Seed(ctx))
	require.NoError(t, mock.ExpectationsWereMet())

	got, err := primary.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, u := range got {
		assert.NotEmpty(t, u.ID)
		assert.NotEqual(t, "stale", u.ID)
		assert.Zero(t, u.Requests, "seeded users start with a clean counter")
		assert.False(t, u.Locked)
		assert.Equal(t, base, u.Created)
		assert.Equal(t, base, u.Modified)
	}

	got, err = secondary.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Edsger", got[0].FirstName)
}

func TestAdminService_Dump(t *testing.T) {
	ctx := context.Background()
	primary := newMemStore(t)
	secondary := newMemStore(t)
	seedUser(t, primary, model.User{ID: "p1", FirstName: "Ada"})
	seedUser(t, primary, model.User{ID: "p2", Deleted: true})
	seedUser(t, secondary, model.User{ID: "s1", FirstName: "Grace"})

	admin := NewAdminService(StoreSet{Primary: primary, Secondary: secondary}, nil)

	dump, err := admin.Dump(ctx, model.StorePrimary)
	require.NoError(t, err)
	require.Len(t, dump, 1, "tombstoned records stay out of dumps")
	assert.Equal(t, "Ada", dump[0].FirstName)

	all, err := admin.DumpAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s1", all[0].ID, "secondary store listed first")
	assert.Equal(t, "p1", all[1].ID)
}
