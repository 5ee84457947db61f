package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/quota-sentry/internal/model"
)

func newMockRepo(t *testing.T, now time.Time) (*UserMySQLRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	r := NewUserMySQLRepo(db)
	r.now = func() time.Time { return now }
	return r, mock
}

func userRows(u model.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "firstName", "lastName", "lastLoginTimeUtc",
		"requests", "locked", "deleted", "created", "modified",
	})
	var lastLogin any
	if u.LastLoginTimeUTC != nil {
		lastLogin = *u.LastLoginTimeUTC
	}
	return rows.AddRow(u.ID, u.FirstName, u.LastName, lastLogin,
		u.Requests, u.Locked, u.Deleted, u.Created, u.Modified)
}

func TestUserMySQLRepo_GetByID(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT id, firstName, lastName, lastLoginTimeUtc, requests, locked, deleted, created, modified FROM `user` WHERE id = ? AND deleted = 0")

	t.Run("found", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		mock.ExpectQuery(query).WithArgs("u1").WillReturnRows(userRows(model.User{
			ID: "u1", FirstName: "Ada", Requests: 2,
			Created: base.Add(-time.Hour), Modified: base,
		}))

		u, err := r.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", u.FirstName)
		assert.Equal(t, 2, u.Requests)
		assert.Nil(t, u.LastLoginTimeUTC)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent row maps to ErrNotFound", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		mock.ExpectQuery(query).WithArgs("u1").WillReturnError(sql.ErrNoRows)

		_, err := r.GetByID(ctx, "u1")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		driverErr := errors.New("connection refused")
		mock.ExpectQuery(query).WithArgs("u1").WillReturnError(driverErr)

		_, err := r.GetByID(ctx, "u1")
		assert.ErrorIs(t, err, driverErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserMySQLRepo_Update(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	update := regexp.QuoteMeta("UPDATE `user` SET firstName = ?, lastName = ?, lastLoginTimeUtc = ?, requests = ?, locked = ?, deleted = ?, modified = ? WHERE id = ? AND modified < ?")
	insert := regexp.QuoteMeta("INSERT INTO `user` (id, firstName, lastName, lastLoginTimeUtc, requests, locked, deleted, created, modified) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	u := model.User{FirstName: "Ada", Requests: 1, Created: base.Add(-time.Hour), Modified: base}

	t.Run("older row is overwritten", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := r.Update(ctx, "u1", u)
		require.NoError(t, err)
		assert.True(t, applied)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent row falls back to insert", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(1, 1))

		applied, err := r.Update(ctx, "u1", u)
		require.NoError(t, err)
		assert.True(t, applied)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("newer row wins the race", func(t *testing.T) {
		// The conditional update matched nothing and the insert hit
		// the primary key: the stored row is newer, the call no-ops.
		r, mock := newMockRepo(t, base)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(insert).WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'u1' for key 'user.PRIMARY'"))

		applied, err := r.Update(ctx, "u1", u)
		require.NoError(t, err)
		assert.False(t, applied)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure surfaces", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		insertErr := errors.New("table is read only")
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(insert).WillReturnError(insertErr)

		_, err := r.Update(ctx, "u1", u)
		assert.ErrorIs(t, err, insertErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserMySQLRepo_SoftDelete(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	query := regexp.QuoteMeta("UPDATE `user` SET deleted = 1, modified = ? WHERE id = ? AND deleted = 0")

	r, mock := newMockRepo(t, base)
	mock.ExpectExec(query).WithArgs(base, "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.SoftDelete(ctx, "u1"))

	// Zero affected rows stays silent: absent and already-tombstoned
	// ids are no-ops.
	mock.ExpectExec(query).WithArgs(base, "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, r.SoftDelete(ctx, "gone"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserMySQLRepo_IncrementQuota(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	query := regexp.QuoteMeta("UPDATE `user` SET requests = requests + 1, lastLoginTimeUtc = ?, modified = ? WHERE id = ? AND deleted = 0")

	t.Run("bumps counter and timestamps together", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		mock.ExpectExec(query).WithArgs(base, base, "u1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, r.IncrementQuota(ctx, "u1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching row maps to ErrNotFound", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		mock.ExpectExec(query).WithArgs(base, base, "u1").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, r.IncrementQuota(ctx, "u1"), ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserMySQLRepo_Listing(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	lastLogin := base.Add(-time.Minute)

	t.Run("ListActive filters tombstones in SQL", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		mock.ExpectQuery(regexp.QuoteMeta("FROM `user` WHERE deleted = 0")).
			WillReturnRows(userRows(model.User{
				ID: "u1", FirstName: "Ada", LastLoginTimeUTC: &lastLogin,
				Requests: 3, Created: base.Add(-time.Hour), Modified: base,
			}))

		users, err := r.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		require.NotNil(t, users[0].LastLoginTimeUTC)
		assert.Equal(t, lastLogin, *users[0].LastLoginTimeUTC)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListAll includes tombstones", func(t *testing.T) {
		r, mock := newMockRepo(t, base)
		rows := userRows(model.User{ID: "u1", Deleted: true, Created: base, Modified: base})
		mock.ExpectQuery("SELECT (.+) FROM `user`$").WillReturnRows(rows)

		users, err := r.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.True(t, users[0].Deleted)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserMySQLRepo_PurgeTombstoned(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	r, mock := newMockRepo(t, base)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `user` WHERE deleted = 1")).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := r.PurgeTombstoned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitialDataRepo_FindByTargetStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_initial_data WHERE targetDb = ?")).
		WithArgs("secondary").
		WillReturnRows(sqlmock.NewRows([]string{"id", "firstName", "lastName", "lastLoginTimeUtc", "targetDb"}).
			AddRow("seed-1", "Ada", "Lovelace", nil, "secondary"))

	seeds, err := NewInitialDataRepo(db).FindByTargetStore(context.Background(), model.StoreSecondary)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, "Ada", seeds[0].FirstName)
	assert.Equal(t, model.StoreSecondary, seeds[0].TargetStore)
	require.NoError(t, mock.ExpectationsWereMet())
}
