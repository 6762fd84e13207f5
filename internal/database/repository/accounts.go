package repository

import (
	"context"
	"database/sql"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Insert(ctx context.Context, a Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, balance, historical_income, historical_expense, is_primary, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, a.ID, a.Name, a.Balance, a.HistoricalIncome, a.HistoricalExpense, a.IsPrimary)
	return err
}

func (r *AccountRepo) Get(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, balance, historical_income, historical_expense, is_primary, created_at, updated_at FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetPrimary returns the account used when a command names no account.
func (r *AccountRepo) GetPrimary(ctx context.Context) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, balance, historical_income, historical_expense, is_primary, created_at, updated_at FROM accounts WHERE is_primary = 1 LIMIT 1`)
	return scanAccount(row)
}

func (r *AccountRepo) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, balance, historical_income, historical_expense, is_primary, created_at, updated_at FROM accounts ORDER BY is_primary DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.HistoricalIncome, &a.HistoricalExpense, &a.IsPrimary, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.HistoricalIncome, &a.HistoricalExpense, &a.IsPrimary, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
