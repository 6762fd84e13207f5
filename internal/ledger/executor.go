// Package ledger performs the atomic financial mutations against the shared
// account, sale and movement tables. Every operation validates and writes
// inside a single transaction: validation reads see the same snapshot the
// writes commit against, so a failed check can never leave partial state.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/cajabot/cajabot/internal/database"
	"github.com/cajabot/cajabot/internal/database/repository"
)

// Executor runs ledger mutations.
type Executor struct {
	DB *sql.DB
}

// SaleInput carries the accumulated parameters for a sale. Prices are cents.
type SaleInput struct {
	ClientID        string
	PurchaseOrderID string
	Quantity        int64
	UnitSalePrice   int64
	UnitCostPrice   int64
	UnitFreight     int64
}

// CreateSale validates the client, the purchase order stock and the margin,
// then writes the sale and reserves stock. amount_remaining starts at the
// full total with payment pending.
func (e *Executor) CreateSale(ctx context.Context, in SaleInput) (repository.Sale, error) {
	var sale repository.Sale
	err := database.WithTx(e.DB, func(tx *sql.Tx) error {
		if in.Quantity <= 0 {
			return fmt.Errorf("quantity %d: %w", in.Quantity, ErrInvalidAmount)
		}
		if in.UnitSalePrice <= 0 {
			return fmt.Errorf("unit sale price %d: %w", in.UnitSalePrice, ErrInvalidAmount)
		}
		if in.UnitFreight < 0 {
			return fmt.Errorf("unit freight %d: %w", in.UnitFreight, ErrInvalidAmount)
		}
		if in.UnitSalePrice-in.UnitCostPrice-in.UnitFreight <= 0 {
			return fmt.Errorf("sale price %d against cost %d + freight %d: %w",
				in.UnitSalePrice, in.UnitCostPrice, in.UnitFreight, ErrInvalidMargin)
		}

		var clientID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM clients WHERE id = ?`, in.ClientID).Scan(&clientID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("client %s: %w", in.ClientID, ErrNotFound)
		}
		if err != nil {
			return err
		}

		var stock int64
		err = tx.QueryRowContext(ctx, `SELECT available_stock FROM purchase_orders WHERE id = ?`, in.PurchaseOrderID).Scan(&stock)
		if err == sql.ErrNoRows {
			return fmt.Errorf("purchase order %s: %w", in.PurchaseOrderID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if stock < in.Quantity {
			return fmt.Errorf("quantity %d exceeds available stock %d: %w", in.Quantity, stock, ErrInvalidAmount)
		}

		total := in.Quantity * in.UnitSalePrice
		sale = repository.Sale{
			ID:              uuid.NewString(),
			ClientID:        in.ClientID,
			PurchaseOrderID: in.PurchaseOrderID,
			Quantity:        in.Quantity,
			UnitSalePrice:   in.UnitSalePrice,
			UnitCostPrice:   in.UnitCostPrice,
			UnitFreight:     in.UnitFreight,
			TotalSalePrice:  total,
			AmountRemaining: total,
			PaymentStatus:   repository.PaymentPending,
			CreatedAt:       database.Now(),
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales(id, client_id, purchase_order_id, quantity, unit_sale_price, unit_cost_price, unit_freight, total_sale_price, amount_remaining, payment_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
		`, sale.ID, sale.ClientID, sale.PurchaseOrderID, sale.Quantity, sale.UnitSalePrice, sale.UnitCostPrice,
			sale.UnitFreight, sale.TotalSalePrice, sale.AmountRemaining, sale.PaymentStatus, sale.CreatedAt); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE purchase_orders SET available_stock = available_stock - ? WHERE id = ?`, in.Quantity, in.PurchaseOrderID)
		return err
	})
	if err != nil {
		return repository.Sale{}, err
	}
	return sale, nil
}

// RecordIncome adds amount to the account balance and historical income, and
// appends one income movement.
func (e *Executor) RecordIncome(ctx context.Context, accountID string, amount int64, concept string) (repository.Movement, error) {
	return e.recordFlow(ctx, accountID, amount, concept, repository.MovementIncome)
}

// RecordExpense subtracts amount from the account balance, requires the
// balance to cover it, and appends one expense movement.
func (e *Executor) RecordExpense(ctx context.Context, accountID string, amount int64, concept string) (repository.Movement, error) {
	return e.recordFlow(ctx, accountID, amount, concept, repository.MovementExpense)
}

func (e *Executor) recordFlow(ctx context.Context, accountID string, amount int64, concept, kind string) (repository.Movement, error) {
	var mov repository.Movement
	err := database.WithTx(e.DB, func(tx *sql.Tx) error {
		if amount <= 0 {
			return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
		}
		balance, err := accountBalance(ctx, tx, accountID)
		if err != nil {
			return err
		}

		var set string
		if kind == repository.MovementIncome {
			set = `balance = balance + ?, historical_income = historical_income + ?`
		} else {
			if balance < amount {
				return fmt.Errorf("balance %d below amount %d: %w", balance, amount, ErrInsufficientFunds)
			}
			set = `balance = balance - ?, historical_expense = historical_expense + ?`
		}
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET `+set+`, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, amount, amount, accountID); err != nil {
			return err
		}

		mov = repository.Movement{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Type:      kind,
			Amount:    amount,
			Concept:   concept,
			CreatedAt: database.Now(),
		}
		return insertMovement(ctx, tx, mov)
	})
	if err != nil {
		return repository.Movement{}, err
	}
	return mov, nil
}

// TransferResult reports both legs of a committed transfer.
type TransferResult struct {
	Out repository.Movement
	In  repository.Movement
}

// Transfer moves amount between two distinct accounts, appending one
// transfer_out and one transfer_in movement.
func (e *Executor) Transfer(ctx context.Context, sourceID, destinationID string, amount int64, concept string) (TransferResult, error) {
	var res TransferResult
	err := database.WithTx(e.DB, func(tx *sql.Tx) error {
		if amount <= 0 {
			return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
		}
		if sourceID == destinationID {
			return fmt.Errorf("source and destination are the same account: %w", ErrInvalidAmount)
		}
		balance, err := accountBalance(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf("balance %d below amount %d: %w", balance, amount, ErrInsufficientFunds)
		}
		if _, err := accountBalance(ctx, tx, destinationID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, amount, sourceID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, amount, destinationID); err != nil {
			return err
		}

		now := database.Now()
		res.Out = repository.Movement{
			ID:        uuid.NewString(),
			AccountID: sourceID,
			Type:      repository.MovementTransferOut,
			Amount:    amount,
			Concept:   concept,
			CreatedAt: now,
		}
		res.In = repository.Movement{
			ID:        uuid.NewString(),
			AccountID: destinationID,
			Type:      repository.MovementTransferIn,
			Amount:    amount,
			Concept:   concept,
			CreatedAt: now,
		}
		if err := insertMovement(ctx, tx, res.Out); err != nil {
			return err
		}
		return insertMovement(ctx, tx, res.In)
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

func accountBalance(ctx context.Context, tx *sql.Tx, accountID string) (int64, error) {
	var balance int64
	err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func insertMovement(ctx context.Context, tx *sql.Tx, m repository.Movement) error {
	_, err := tx.ExecContext(ctx, `
	INSERT INTO movements(id, account_id, type, amount, concept, created_at)
	VALUES (?, ?, ?, ?, ?, ?);
	`, m.ID, m.AccountID, m.Type, m.Amount, m.Concept, m.CreatedAt)
	return err
}
