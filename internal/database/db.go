package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the quota tables when they do not exist yet. The
// `user` table holds the primary store's records; `user_initial_data`
// is the seed source the admin surface loads both stores from.
//
// Timestamp columns are DATETIME(6): the modified column is the
// conflict-resolution signal between the two stores, and the plain
// DATETIME second granularity would round what the clocks write, making
// the stored value differ from the in-memory one. Every clock in the
// application truncates to microseconds so values round-trip exactly.
func Migrate(db *sql.DB) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS `user` (" +
			"id VARCHAR(64) NOT NULL PRIMARY KEY," +
			"firstName VARCHAR(255) NOT NULL," +
			"lastName VARCHAR(255) NOT NULL," +
			"lastLoginTimeUtc DATETIME(6) NULL," +
			"requests INT NOT NULL DEFAULT 0," +
			"locked TINYINT(1) NOT NULL DEFAULT 0," +
			"deleted TINYINT(1) NOT NULL DEFAULT 0," +
			"created DATETIME(6) NOT NULL," +
			"modified DATETIME(6) NOT NULL" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		"CREATE TABLE IF NOT EXISTS user_initial_data (" +
			"id VARCHAR(64) NOT NULL PRIMARY KEY," +
			"firstName VARCHAR(255) NOT NULL," +
			"lastName VARCHAR(255) NOT NULL," +
			"lastLoginTimeUtc DATETIME(6) NULL," +
			"targetDb VARCHAR(16) NOT NULL" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
