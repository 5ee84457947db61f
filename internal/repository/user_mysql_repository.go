package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/quota-sentry/internal/model"
)

var _ UserStore = (*UserMySQLRepo)(nil)

// UserMySQLRepo is the relational implementation of UserStore backed by
// the `user` table. It is the primary store in the active/standby pair.
type UserMySQLRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewUserMySQLRepo(db *sql.DB) *UserMySQLRepo {
	return &UserMySQLRepo{DB: db, now: model.NowUTC}
}

const userColumns = "id, firstName, lastName, lastLoginTimeUtc, requests, locked, deleted, created, modified"

// Create upserts the record; an existing newer row wins.
func (r *UserMySQLRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.Update(ctx, u.ID, u)
	return err
}

// GetByID fetches a live record. Tombstoned rows count as absent.
func (r *UserMySQLRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM `user` WHERE id = ? AND deleted = 0", id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// Update applies last-write-wins keyed on the row's modified column.
// The conditional UPDATE and the fallback INSERT together behave as an
// atomic upsert: a concurrent writer that got there first with a newer
// timestamp simply turns this call into a no-op.
func (r *UserMySQLRepo) Update(ctx context.Context, id string, u model.User) (bool, error) {
	u.ID = id
	res, err := r.DB.ExecContext(ctx,
		"UPDATE `user` SET firstName = ?, lastName = ?, lastLoginTimeUtc = ?, requests = ?, locked = ?, deleted = ?, modified = ? WHERE id = ? AND modified < ?",
		u.FirstName, u.LastName, u.LastLoginTimeUTC, u.Requests, u.Locked, u.Deleted, u.Modified, id, u.Modified)
	if err != nil {
		return false, fmt.Errorf("update user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update user %s: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}
	// Either the id is absent or the stored row is not older. Try the
	// insert; a duplicate key means the stored row stays.
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO `user` ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.FirstName, u.LastName, u.LastLoginTimeUTC, u.Requests, u.Locked, u.Deleted, u.Created, u.Modified)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return false, nil
		}
		return false, fmt.Errorf("insert user %s: %w", id, err)
	}
	return true, nil
}

// SoftDelete tombstones the row. Absent or already-tombstoned ids are
// left alone.
func (r *UserMySQLRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE `user` SET deleted = 1, modified = ? WHERE id = ? AND deleted = 0",
		r.now(), id)
	if err != nil {
		return fmt.Errorf("soft delete user %s: %w", id, err)
	}
	return nil
}

// IncrementQuota bumps the request counter and both timestamps in one
// statement so no reader can observe the counter without the matching
// timestamps.
func (r *UserMySQLRepo) IncrementQuota(ctx context.Context, id string) error {
	now := r.now()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE `user` SET requests = requests + 1, lastLoginTimeUtc = ?, modified = ? WHERE id = ? AND deleted = 0",
		now, now, id)
	if err != nil {
		return fmt.Errorf("consume quota for user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume quota for user %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns all non-tombstoned rows.
func (r *UserMySQLRepo) ListActive(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, "SELECT "+userColumns+" FROM `user` WHERE deleted = 0")
}

// ListAll returns every row, tombstoned ones included.
func (r *UserMySQLRepo) ListAll(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, "SELECT "+userColumns+" FROM `user`")
}

// PurgeTombstoned hard-deletes tombstoned rows and reports the count.
func (r *UserMySQLRepo) PurgeTombstoned(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM `user` WHERE deleted = 1")
	if err != nil {
		return 0, fmt.Errorf("purge tombstoned users: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge tombstoned users: %w", err)
	}
	return n, nil
}

// WipeAll clears the table. Admin seeding only.
func (r *UserMySQLRepo) WipeAll(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM `user`"); err != nil {
		return fmt.Errorf("wipe users: %w", err)
	}
	return nil
}

func (r *UserMySQLRepo) list(ctx context.Context, query string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &lastLogin,
		&u.Requests, &u.Locked, &u.Deleted, &u.Created, &u.Modified)
	if err != nil {
		return model.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginTimeUTC = &t
	}
	return u, nil
}
