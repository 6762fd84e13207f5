package repository

import (
	"context"
	"database/sql"
)

// PurchaseOrderRepo handles purchase orders.
type PurchaseOrderRepo struct {
	db *sql.DB
}

func NewPurchaseOrderRepo(db *sql.DB) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{db: db}
}

func (r *PurchaseOrderRepo) Insert(ctx context.Context, o PurchaseOrder) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO purchase_orders(id, product, supplier, quantity, available_stock, unit_cost_price, created_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, o.ID, o.Product, o.Supplier, o.Quantity, o.AvailableStock, o.UnitCostPrice)
	return err
}

func (r *PurchaseOrderRepo) Get(ctx context.Context, id string) (*PurchaseOrder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, product, supplier, quantity, available_stock, unit_cost_price, created_at FROM purchase_orders WHERE id = ?`, id)
	var o PurchaseOrder
	if err := row.Scan(&o.ID, &o.Product, &o.Supplier, &o.Quantity, &o.AvailableStock, &o.UnitCostPrice, &o.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// ListWithStock returns orders that still have stock to sell.
func (r *PurchaseOrderRepo) ListWithStock(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, product, supplier, quantity, available_stock, unit_cost_price, created_at FROM purchase_orders WHERE available_stock > 0 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseOrder
	for rows.Next() {
		var o PurchaseOrder
		if err := rows.Scan(&o.ID, &o.Product, &o.Supplier, &o.Quantity, &o.AvailableStock, &o.UnitCostPrice, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
