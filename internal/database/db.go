package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open returns a sqlite handle for the ledger file. Foreign keys are enforced
// and writers wait up to 5s on a locked database. The pool is capped at one
// connection: sqlite allows a single writer, and wizard turns interleave reads
// with writes.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// WithTx runs fn inside a transaction, rolling back on any error.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now is the timestamp used for every row we write: UTC, second precision,
// matching what sqlite itself stores for CURRENT_TIMESTAMP columns.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
