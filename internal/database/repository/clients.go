package repository

import (
	"context"
	"database/sql"
)

// ClientRepo handles the client directory.
type ClientRepo struct {
	db *sql.DB
}

func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) Insert(ctx context.Context, c Client) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO clients(id, name, created_at) VALUES (?, ?, CURRENT_TIMESTAMP);
	`, c.ID, c.Name)
	return err
}

func (r *ClientRepo) Get(ctx context.Context, id string) (*Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM clients WHERE id = ?`, id)
	var c Client
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepo) List(ctx context.Context) ([]Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
