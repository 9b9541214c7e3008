// Package database provides SQLite persistence for users, galleries and image
// records.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) *SQLiteStore {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("failed to connect to database: %v\n", err)
	}

	// one connection keeps ":memory:" databases and per-connection pragmas
	// consistent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		log.Fatalf("failed to init database schema: couldn't enable foreign keys: %v\n", err)
	}

	if err := initSchema(db); err != nil {
		log.Fatalf("failed to init database: %v\n", err)
	}

	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	if err := initTable(db, "account", `
		CREATE TABLE IF NOT EXISTS account (
			id          TEXT PRIMARY KEY,
			email       TEXT,
			created_at  INTEGER
		);`,
	); err != nil {
		return err
	}

	if err := initTable(db, "gallery", `
		CREATE TABLE IF NOT EXISTS gallery (
			id          INTEGER PRIMARY KEY,
			owner       TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT,
			created_at  INTEGER,
			updated_at  INTEGER,
			FOREIGN KEY (owner) REFERENCES account (id)
		);`,
	); err != nil {
		return err
	}

	if err := initTable(db, "image", `
		CREATE TABLE IF NOT EXISTS image (
			id          INTEGER PRIMARY KEY,
			gallery     INTEGER NOT NULL,
			blob        TEXT NOT NULL,
			hash        TEXT NOT NULL,
			created_at  INTEGER,
			UNIQUE (gallery, hash),
			FOREIGN KEY (gallery) REFERENCES gallery (id) ON DELETE CASCADE
		);`,
	); err != nil {
		return err
	}

	return nil
}

func initTable(
	db *sql.DB,
	name string,
	sql string,
) error {
	if _, err := db.Exec(sql); err != nil {
		return fmt.Errorf("failed to init '%s' table schema: %v", name, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func resultsEmpty(result sql.Result) bool {
	n, err := result.RowsAffected()
	return err != nil || n == 0
}

func toTimestamp(t time.Time) int64 {
	return t.UnixNano()
}

func fromTimestamp(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
