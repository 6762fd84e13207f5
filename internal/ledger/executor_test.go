package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cajabot/cajabot/internal/database"
	"github.com/cajabot/cajabot/internal/database/repository"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateUp(db))
	return db
}

func seedAccount(t *testing.T, db *sql.DB, id string, balance int64) {
	t.Helper()
	err := repository.NewAccountRepo(db).Insert(context.Background(), repository.Account{
		ID:      id,
		Name:    "Cuenta " + id,
		Balance: balance,
	})
	require.NoError(t, err)
}

func TestTransferMovesBalanceAndWritesBothLegs(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedAccount(t, db, "src", 1000_00)
	seedAccount(t, db, "dst", 500_00)

	e := &Executor{DB: db}
	res, err := e.Transfer(ctx, "src", "dst", 300_00, "prueba")
	require.NoError(t, err)
	require.Equal(t, repository.MovementTransferOut, res.Out.Type)
	require.Equal(t, repository.MovementTransferIn, res.In.Type)
	require.Equal(t, int64(300_00), res.Out.Amount)
	require.Equal(t, int64(300_00), res.In.Amount)

	accounts := repository.NewAccountRepo(db)
	src, err := accounts.Get(ctx, "src")
	require.NoError(t, err)
	require.Equal(t, int64(700_00), src.Balance)
	dst, err := accounts.Get(ctx, "dst")
	require.NoError(t, err)
	require.Equal(t, int64(800_00), dst.Balance)

	movements := repository.NewMovementRepo(db)
	outCount, err := movements.CountForAccount(ctx, "src")
	require.NoError(t, err)
	require.Equal(t, 1, outCount)
	inCount, err := movements.CountForAccount(ctx, "dst")
	require.NoError(t, err)
	require.Equal(t, 1, inCount)
}

func TestTransferSameAccountRejected(t *testing.T) {
	db := setupDB(t)
	seedAccount(t, db, "src", 1000_00)

	e := &Executor{DB: db}
	_, err := e.Transfer(context.Background(), "src", "src", 100_00, "prueba")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransferInsufficientFundsLeavesStateUntouched(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedAccount(t, db, "src", 100_00)
	seedAccount(t, db, "dst", 0)

	e := &Executor{DB: db}
	_, err := e.Transfer(ctx, "src", "dst", 500_00, "prueba")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	src, err := repository.NewAccountRepo(db).Get(ctx, "src")
	require.NoError(t, err)
	require.Equal(t, int64(100_00), src.Balance)
	n, err := repository.NewMovementRepo(db).CountForAccount(ctx, "src")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestTransferUnknownDestination(t *testing.T) {
	db := setupDB(t)
	seedAccount(t, db, "src", 1000_00)

	e := &Executor{DB: db}
	_, err := e.Transfer(context.Background(), "src", "nope", 100_00, "prueba")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordIncomeUpdatesBalanceAndHistory(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedAccount(t, db, "caja", 0)

	e := &Executor{DB: db}
	mov, err := e.RecordIncome(ctx, "caja", 2500_00, "cobro factura 12")
	require.NoError(t, err)
	require.Equal(t, repository.MovementIncome, mov.Type)

	a, err := repository.NewAccountRepo(db).Get(ctx, "caja")
	require.NoError(t, err)
	require.Equal(t, int64(2500_00), a.Balance)
	require.Equal(t, int64(2500_00), a.HistoricalIncome)
	require.Equal(t, int64(0), a.HistoricalExpense)
}

func TestRecordExpenseRequiresFunds(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedAccount(t, db, "caja", 200_00)

	e := &Executor{DB: db}
	_, err := e.RecordExpense(ctx, "caja", 300_00, "alquiler")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	mov, err := e.RecordExpense(ctx, "caja", 150_00, "alquiler")
	require.NoError(t, err)
	require.Equal(t, repository.MovementExpense, mov.Type)

	a, err := repository.NewAccountRepo(db).Get(ctx, "caja")
	require.NoError(t, err)
	require.Equal(t, int64(50_00), a.Balance)
	require.Equal(t, int64(150_00), a.HistoricalExpense)
}

func TestRecordFlowRejectsNonPositiveAmount(t *testing.T) {
	db := setupDB(t)
	seedAccount(t, db, "caja", 100_00)

	e := &Executor{DB: db}
	_, err := e.RecordIncome(context.Background(), "caja", 0, "nada")
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = e.RecordExpense(context.Background(), "caja", -5, "nada")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func seedSaleFixtures(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repository.NewClientRepo(db).Insert(ctx, repository.Client{ID: "cli-1", Name: "Comercial del Norte"}))
	require.NoError(t, repository.NewPurchaseOrderRepo(db).Insert(ctx, repository.PurchaseOrder{
		ID:             "po-1",
		Product:        "Cemento gris 50kg",
		Quantity:       100,
		AvailableStock: 100,
		UnitCostPrice:  60_00,
	}))
}

func TestCreateSaleHappyPath(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedSaleFixtures(t, db)

	e := &Executor{DB: db}
	sale, err := e.CreateSale(ctx, SaleInput{
		ClientID:        "cli-1",
		PurchaseOrderID: "po-1",
		Quantity:        20,
		UnitSalePrice:   100_00,
		UnitCostPrice:   60_00,
		UnitFreight:     10_00,
	})
	require.NoError(t, err)
	require.Equal(t, int64(20*100_00), sale.TotalSalePrice)
	require.Equal(t, sale.TotalSalePrice, sale.AmountRemaining)
	require.Equal(t, repository.PaymentPending, sale.PaymentStatus)

	o, err := repository.NewPurchaseOrderRepo(db).Get(ctx, "po-1")
	require.NoError(t, err)
	require.Equal(t, int64(80), o.AvailableStock)

	stored, err := repository.NewSaleRepo(db).Get(ctx, sale.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, sale.ClientID, stored.ClientID)
}

func TestCreateSaleRejectsNonPositiveMargin(t *testing.T) {
	db := setupDB(t)
	seedSaleFixtures(t, db)

	e := &Executor{DB: db}
	_, err := e.CreateSale(context.Background(), SaleInput{
		ClientID:        "cli-1",
		PurchaseOrderID: "po-1",
		Quantity:        10,
		UnitSalePrice:   65_00,
		UnitCostPrice:   60_00,
		UnitFreight:     5_00,
	})
	require.ErrorIs(t, err, ErrInvalidMargin)
}

func TestCreateSaleRejectsOverselling(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedSaleFixtures(t, db)

	e := &Executor{DB: db}
	_, err := e.CreateSale(ctx, SaleInput{
		ClientID:        "cli-1",
		PurchaseOrderID: "po-1",
		Quantity:        150,
		UnitSalePrice:   100_00,
		UnitCostPrice:   60_00,
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	o, err := repository.NewPurchaseOrderRepo(db).Get(ctx, "po-1")
	require.NoError(t, err)
	require.Equal(t, int64(100), o.AvailableStock)
}

func TestCreateSaleUnknownClient(t *testing.T) {
	db := setupDB(t)
	seedSaleFixtures(t, db)

	e := &Executor{DB: db}
	_, err := e.CreateSale(context.Background(), SaleInput{
		ClientID:        "cli-nope",
		PurchaseOrderID: "po-1",
		Quantity:        10,
		UnitSalePrice:   100_00,
		UnitCostPrice:   60_00,
	})
	require.ErrorIs(t, err, ErrNotFound)
}
