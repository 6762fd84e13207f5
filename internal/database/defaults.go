package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/cajabot/cajabot/internal/database/repository"
)

// SeedDefaults ensures baseline accounts, clients and purchase orders exist for
// new databases. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	acctRepo := repository.NewAccountRepo(db)
	existing, err := acctRepo.List(ctx)
	if err == nil && len(existing) > 0 {
		return nil
	}

	accounts := []repository.Account{
		{Name: "Caja Principal", Balance: 0, IsPrimary: true},
		{Name: "Banco Santander", Balance: 0},
		{Name: "BBVA", Balance: 0},
	}
	for _, a := range accounts {
		a.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("account:"+a.Name)).String()
		if err := acctRepo.Insert(ctx, a); err != nil {
			return err
		}
	}

	clientRepo := repository.NewClientRepo(db)
	for _, name := range []string{"Comercial del Norte", "Distribuidora La Palma", "Ferreteria Gomez"} {
		c := repository.Client{
			ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte("client:"+name)).String(),
			Name: name,
		}
		if err := clientRepo.Insert(ctx, c); err != nil {
			return err
		}
	}

	orderRepo := repository.NewPurchaseOrderRepo(db)
	orders := []repository.PurchaseOrder{
		{Product: "Cemento gris 50kg", Supplier: "Cementos del Valle", Quantity: 200, AvailableStock: 200, UnitCostPrice: 650_00},
		{Product: "Varilla 3/8", Supplier: "Aceros Rio", Quantity: 500, AvailableStock: 500, UnitCostPrice: 120_00},
	}
	for _, o := range orders {
		o.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("po:"+o.Product)).String()
		if err := orderRepo.Insert(ctx, o); err != nil {
			return err
		}
	}
	return nil
}
