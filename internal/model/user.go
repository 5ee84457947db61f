package model

import "time"

// NowUTC returns the current UTC time truncated to microseconds, the
// precision the relational store's DATETIME(6) columns keep. Every
// clock in the application uses it: a timestamp with sub-microsecond
// detail would come back from MySQL slightly different from what the
// in-memory store holds, and the modified comparison between the two
// stores would never settle.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// StoreID names one of the two interchangeable user stores.  The router
// decides which one is active for a given instant; the other becomes the
// standby and only receives catch-up writes from the sync job.
type StoreID string

const (
	// StorePrimary is the relational (MySQL) store.
	StorePrimary StoreID = "primary"
	// StoreSecondary is the simulated in-memory document store.
	StoreSecondary StoreID = "secondary"
)

// ParseStoreID maps a path/query value onto a StoreID.  The boolean
// reports whether the value named a known store.
func ParseStoreID(s string) (StoreID, bool) {
	switch StoreID(s) {
	case StorePrimary:
		return StorePrimary, true
	case StoreSecondary:
		return StoreSecondary, true
	}
	return "", false
}

// User represents a quota-tracked user record as stored in the `user`
// table (and mirrored by the in-memory store).  The same struct is used
// by both backends; Modified is the sole conflict-resolution signal
// when the sync job merges the two stores.
//
// Fields:
//  ID               – opaque unique identifier, immutable after creation.
//  FirstName        – display name, no uniqueness constraint.
//  LastName         – display name, no uniqueness constraint.
//  LastLoginTimeUTC – set only when quota is consumed (nullable).
//  Requests         – executed request count; grows only via quota
//                     consumption or a full record update.
//  Locked           – once true, quota consumption is refused.
//  Deleted          – tombstone flag; the record stays physically
//                     present until the sync job purges it.
//  Created          – set once at insert time, never mutated.
//  Modified         – bumped on every mutation; always >= Created.
type User struct {
	ID               string     // user.id
	FirstName        string     // user.firstName
	LastName         string     // user.lastName
	LastLoginTimeUTC *time.Time // user.lastLoginTimeUtc (nullable)
	Requests         int        // user.requests
	Locked           bool       // user.locked
	Deleted          bool       // user.deleted
	Created          time.Time  // user.created
	Modified         time.Time  // user.modified
}

// UserDTO is the quota projection returned by the listing and lookup
// endpoints.  Tombstone and bookkeeping timestamps stay internal.
type UserDTO struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	LastLoginTimeUTC *time.Time `json:"last_login_time_utc"`
	Requests         int        `json:"requests"`
	Locked           bool       `json:"locked"`
}

// DTO converts the stored record into its quota projection.
func (u User) DTO() UserDTO {
	return UserDTO{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		LastLoginTimeUTC: u.LastLoginTimeUTC,
		Requests:         u.Requests,
		Locked:           u.Locked,
	}
}

// SeedUser is one row of the `user_initial_data` table.  It carries the
// same shape as User plus the store the row should be seeded into.
type SeedUser struct {
	User
	TargetStore StoreID // user_initial_data.targetDb
}
