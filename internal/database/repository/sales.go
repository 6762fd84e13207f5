package repository

import (
	"context"
	"database/sql"
	"time"
)

// SaleRepo handles sales.
type SaleRepo struct {
	db *sql.DB
}

func NewSaleRepo(db *sql.DB) *SaleRepo {
	return &SaleRepo{db: db}
}

func (r *SaleRepo) Get(ctx context.Context, id string) (*Sale, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, client_id, purchase_order_id, quantity, unit_sale_price, unit_cost_price, unit_freight, total_sale_price, amount_remaining, payment_status, created_at FROM sales WHERE id = ?`, id)
	var s Sale
	if err := row.Scan(&s.ID, &s.ClientID, &s.PurchaseOrderID, &s.Quantity, &s.UnitSalePrice, &s.UnitCostPrice, &s.UnitFreight, &s.TotalSalePrice, &s.AmountRemaining, &s.PaymentStatus, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListSince returns sales created at or after the given time, newest first.
// A zero time returns everything.
func (r *SaleRepo) ListSince(ctx context.Context, since time.Time) ([]Sale, error) {
	query := `SELECT id, client_id, purchase_order_id, quantity, unit_sale_price, unit_cost_price, unit_freight, total_sale_price, amount_remaining, payment_status, created_at FROM sales`
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
	var out []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.ClientID, &s.PurchaseOrderID, &s.Quantity, &s.UnitSalePrice, &s.UnitCostPrice, &s.UnitFreight, &s.TotalSalePrice, &s.AmountRemaining, &s.PaymentStatus, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
