package repository

import (
	"context"
	"database/sql"
	"time"
)

// MovementRepo reads the append-only movement ledger. Writes happen inside
// ledger executor transactions, never through this repo.
type MovementRepo struct {
	db *sql.DB
}

func NewMovementRepo(db *sql.DB) *MovementRepo {
	return &MovementRepo{db: db}
}

func (r *MovementRepo) Get(ctx context.Context, id string) (*Movement, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, account_id, type, amount, concept, created_at FROM movements WHERE id = ?`, id)
	var m Movement
	if err := row.Scan(&m.ID, &m.AccountID, &m.Type, &m.Amount, &m.Concept, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListSince returns movements created at or after the given time, newest first.
// A zero time returns everything.
func (r *MovementRepo) ListSince(ctx context.Context, since time.Time) ([]Movement, error) {
	query := `SELECT id, account_id, type, amount, concept, created_at FROM movements`
	var args []interface{}
	if !since.IsZero() {
		query += ` WHERE created_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Type, &m.Amount, &m.Concept, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountForAccount returns the number of movement legs recorded for an account.
func (r *MovementRepo) CountForAccount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movements WHERE account_id = ?`, accountID).Scan(&n)
	return n, err
}

// SumByType aggregates movement amounts per type since the given time.
func (r *MovementRepo) SumByType(ctx context.Context, since time.Time) (map[string]int64, error) {
	query := `SELECT type, COALESCE(SUM(amount), 0) FROM movements`
	var args []interface{}
	if !since.IsZero() {
		query += ` WHERE created_at >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY type`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var typ string
		var sum int64
		if err := rows.Scan(&typ, &sum); err != nil {
			return nil, err
		}
		out[typ] = sum
	}
	return out, rows.Err()
}
