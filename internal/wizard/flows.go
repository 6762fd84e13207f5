package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cajabot/cajabot/internal/command"
	"github.com/cajabot/cajabot/internal/database/repository"
	"github.com/cajabot/cajabot/internal/ledger"
	"github.com/cajabot/cajabot/internal/nlu"
)

// step is one question in a flow. apply validates the answer and returns the
// data to merge; a non-empty failMsg keeps the session on the same step.
type step struct {
	prompt func(data map[string]string) string
	apply  func(ctx context.Context, e *Engine, data map[string]string, input string) (updates map[string]string, failMsg string, err error)
}

// flow is the full step sequence for one operation type, plus the executor
// call that runs once every parameter is collected.
type flow struct {
	operation string
	steps     []step
	finish    func(ctx context.Context, e *Engine, data map[string]string) (text string, executed bool)
}

var flows = map[string]flow{
	"sale":           saleFlow,
	"deposit":        depositFlow,
	"expense":        expenseFlow,
	"transfer":       transferFlow,
	"purchase_order": purchaseOrderFlow,
}

// Flows lists the registered wizard operation types.
func Flows() []string {
	out := make([]string, 0, len(flows))
	for k := range flows {
		out = append(out, k)
	}
	return out
}

var saleFlow = flow{
	operation: command.OpCreateSale,
	steps: []step{
		{
			prompt: func(map[string]string) string {
				return "¿Para qué cliente es la venta? Escribe el nombre o el id."
			},
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				clients, err := e.Clients.List(ctx)
				if err != nil {
					return nil, "", err
				}
				cands := make([]candidate, len(clients))
				for i, c := range clients {
					cands[i] = candidate{id: c.ID, name: c.Name}
				}
				id, ok := bestMatch(input, cands)
				if !ok {
					return nil, fmt.Sprintf("No encontré ningún cliente parecido a %q.", strings.TrimSpace(input)), nil
				}
				return map[string]string{"client_id": id}, "", nil
			},
		},
		{
			prompt: func(map[string]string) string {
				return "¿De qué orden de compra sale el producto? Escribe el id o el nombre del producto."
			},
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				orders, err := e.Orders.ListWithStock(ctx)
				if err != nil {
					return nil, "", err
				}
				cands := make([]candidate, len(orders))
				for i, o := range orders {
					cands[i] = candidate{id: o.ID, name: o.Product}
				}
				id, ok := bestMatch(input, cands)
				if !ok {
					return nil, fmt.Sprintf("No encontré ninguna orden de compra que coincida con %q.", strings.TrimSpace(input)), nil
				}
				for _, o := range orders {
					if o.ID == id {
						return map[string]string{
							"purchase_order_id": o.ID,
							"product":           o.Product,
							"available_stock":   strconv.FormatInt(o.AvailableStock, 10),
							"unit_cost_price":   strconv.FormatInt(o.UnitCostPrice, 10),
						}, "", nil
					}
				}
				return nil, "", fmt.Errorf("matched order %s missing from list", id)
			},
		},
		{
			prompt: func(data map[string]string) string {
				return fmt.Sprintf("¿Cuántas unidades? (disponibles: %s)", data["available_stock"])
			},
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				qty, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
				if err != nil || qty <= 0 {
					return nil, "La cantidad debe ser un número entero positivo.", nil
				}
				stock, _ := strconv.ParseInt(data["available_stock"], 10, 64)
				if qty > stock {
					return nil, fmt.Sprintf("Solo hay %d unidades disponibles.", stock), nil
				}
				return map[string]string{"quantity": strconv.FormatInt(qty, 10)}, "", nil
			},
		},
		{
			prompt: func(data map[string]string) string {
				cost, _ := strconv.ParseInt(data["unit_cost_price"], 10, 64)
				return fmt.Sprintf("¿Precio de venta por unidad? (costo unitario: %s)", nlu.FormatAmount(cost))
			},
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				price, ok := nlu.ParseAmount(input)
				if !ok || price <= 0 {
					return nil, "No entendí el precio. Escribe un monto como 1500 o $1,500.50.", nil
				}
				cost, _ := strconv.ParseInt(data["unit_cost_price"], 10, 64)
				if price <= cost {
					return nil, fmt.Sprintf("El precio debe superar el costo unitario de %s para dejar margen.", nlu.FormatAmount(cost)), nil
				}
				return map[string]string{"unit_sale_price": strconv.FormatInt(price, 10)}, "", nil
			},
		},
		{
			prompt: func(map[string]string) string {
				return "¿Flete por unidad? (deja vacío para 0)"
			},
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				input = strings.TrimSpace(input)
				if input == "" {
					return map[string]string{"unit_freight": "0"}, "", nil
				}
				freight, ok := nlu.ParseAmount(input)
				if !ok || freight < 0 {
					return nil, "No entendí el flete. Escribe un monto o deja vacío para 0.", nil
				}
				return map[string]string{"unit_freight": strconv.FormatInt(freight, 10)}, "", nil
			},
		},
	},
	finish: func(ctx context.Context, e *Engine, data map[string]string) (string, bool) {
		qty, _ := strconv.ParseInt(data["quantity"], 10, 64)
		price, _ := strconv.ParseInt(data["unit_sale_price"], 10, 64)
		cost, _ := strconv.ParseInt(data["unit_cost_price"], 10, 64)
		freight, _ := strconv.ParseInt(data["unit_freight"], 10, 64)
		sale, err := e.Ledger.CreateSale(ctx, ledger.SaleInput{
			ClientID:        data["client_id"],
			PurchaseOrderID: data["purchase_order_id"],
			Quantity:        qty,
			UnitSalePrice:   price,
			UnitCostPrice:   cost,
			UnitFreight:     freight,
		})
		if err != nil {
			return "No pude registrar la venta: " + ledgerErrorText(err), false
		}
		return fmt.Sprintf("Venta registrada: %d x %s a %s. Total %s, pago pendiente.",
			sale.Quantity, data["product"], nlu.FormatAmount(sale.UnitSalePrice), nlu.FormatAmount(sale.TotalSalePrice)), true
	},
}

func accountStep(prompt string, key string, allowDefault bool) step {
	return step{
		prompt: func(map[string]string) string { return prompt },
		apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
			if allowDefault && strings.TrimSpace(input) == "" {
				primary, err := e.Accounts.GetPrimary(ctx)
				if err != nil {
					return nil, "", err
				}
				if primary == nil {
					return nil, "No hay una cuenta principal configurada. Escribe el nombre de la cuenta.", nil
				}
				return map[string]string{key: primary.ID}, "", nil
			}
			accounts, err := e.Accounts.List(ctx)
			if err != nil {
				return nil, "", err
			}
			cands := make([]candidate, len(accounts))
			for i, a := range accounts {
				cands[i] = candidate{id: a.ID, name: a.Name}
			}
			id, ok := bestMatch(input, cands)
			if !ok {
				return nil, fmt.Sprintf("No encontré ninguna cuenta parecida a %q.", strings.TrimSpace(input)), nil
			}
			return map[string]string{key: id}, "", nil
		},
	}
}

func amountStep(prompt string) step {
	return step{
		prompt: func(map[string]string) string { return prompt },
		apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
			amount, ok := nlu.ParseAmount(input)
			if !ok || amount <= 0 {
				return nil, "No entendí el monto. Escribe un número positivo como 5000 o $5,000.", nil
			}
			return map[string]string{"amount": strconv.FormatInt(amount, 10)}, "", nil
		},
	}
}

func conceptStep(prompt, fallback string) step {
	return step{
		prompt: func(map[string]string) string { return prompt },
		apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
			concept := strings.TrimSpace(input)
			if concept == "" {
				concept = fallback
			}
			return map[string]string{"concept": concept}, "", nil
		},
	}
}

var depositFlow = flow{
	operation: command.OpRecordIncome,
	steps: []step{
		accountStep("¿En qué cuenta entra el dinero? (deja vacío para la cuenta principal)", "account_id", true),
		amountStep("¿De cuánto es el ingreso?"),
		conceptStep("¿Concepto? (deja vacío para 'Depósito')", "Depósito"),
	},
	finish: func(ctx context.Context, e *Engine, data map[string]string) (string, bool) {
		amount, _ := strconv.ParseInt(data["amount"], 10, 64)
		mov, err := e.Ledger.RecordIncome(ctx, data["account_id"], amount, data["concept"])
		if err != nil {
			return "No pude registrar el ingreso: " + ledgerErrorText(err), false
		}
		return fmt.Sprintf("Ingreso de %s registrado (%s).", nlu.FormatAmount(mov.Amount), mov.Concept), true
	},
}

var expenseFlow = flow{
	operation: command.OpRecordExpense,
	steps: []step{
		accountStep("¿De qué cuenta sale el dinero? (deja vacío para la cuenta principal)", "account_id", true),
		amountStep("¿De cuánto es el gasto?"),
		conceptStep("¿Concepto? (deja vacío para 'Gasto')", "Gasto"),
	},
	finish: func(ctx context.Context, e *Engine, data map[string]string) (string, bool) {
		amount, _ := strconv.ParseInt(data["amount"], 10, 64)
		mov, err := e.Ledger.RecordExpense(ctx, data["account_id"], amount, data["concept"])
		if err != nil {
			return "No pude registrar el gasto: " + ledgerErrorText(err), false
		}
		return fmt.Sprintf("Gasto de %s registrado (%s).", nlu.FormatAmount(mov.Amount), mov.Concept), true
	},
}

var transferFlow = flow{
	operation: command.OpTransfer,
	steps: []step{
		accountStep("¿Desde qué cuenta sale la transferencia?", "source_id", false),
		{
			prompt: func(map[string]string) string { return "¿A qué cuenta llega la transferencia?" },
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				accounts, err := e.Accounts.List(ctx)
				if err != nil {
					return nil, "", err
				}
				cands := make([]candidate, len(accounts))
				for i, a := range accounts {
					cands[i] = candidate{id: a.ID, name: a.Name}
				}
				id, ok := bestMatch(input, cands)
				if !ok {
					return nil, fmt.Sprintf("No encontré ninguna cuenta parecida a %q.", strings.TrimSpace(input)), nil
				}
				if id == data["source_id"] {
					return nil, "La cuenta destino debe ser distinta a la cuenta origen.", nil
				}
				return map[string]string{"destination_id": id}, "", nil
			},
		},
		amountStep("¿Cuánto quieres transferir?"),
	},
	finish: func(ctx context.Context, e *Engine, data map[string]string) (string, bool) {
		amount, _ := strconv.ParseInt(data["amount"], 10, 64)
		res, err := e.Ledger.Transfer(ctx, data["source_id"], data["destination_id"], amount, "Transferencia entre cuentas")
		if err != nil {
			return "No pude hacer la transferencia: " + ledgerErrorText(err), false
		}
		return fmt.Sprintf("Transferencia de %s realizada.", nlu.FormatAmount(res.Out.Amount)), true
	},
}

var purchaseOrderFlow = flow{
	operation: command.OpCreatePurchaseOrder,
	steps: []step{
		{
			prompt: func(map[string]string) string { return "¿Qué producto compraste?" },
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				product := strings.TrimSpace(input)
				if product == "" {
					return nil, "Escribe el nombre del producto.", nil
				}
				return map[string]string{"product": product}, "", nil
			},
		},
		{
			prompt: func(map[string]string) string { return "¿Cuántas unidades entraron?" },
			apply: func(ctx context.Context, e *Engine, data map[string]string, input string) (map[string]string, string, error) {
				qty, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
				if err != nil || qty <= 0 {
					return nil, "La cantidad debe ser un número entero positivo.", nil
				}
				return map[string]string{"quantity": strconv.FormatInt(qty, 10)}, "", nil
			},
		},
		amountStep("¿Costo por unidad?"),
	},
	finish: func(ctx context.Context, e *Engine, data map[string]string) (string, bool) {
		qty, _ := strconv.ParseInt(data["quantity"], 10, 64)
		cost, _ := strconv.ParseInt(data["amount"], 10, 64)
		o := repository.PurchaseOrder{
			ID:             uuid.NewString(),
			Product:        data["product"],
			Quantity:       qty,
			AvailableStock: qty,
			UnitCostPrice:  cost,
		}
		if err := e.Orders.Insert(ctx, o); err != nil {
			return "No pude registrar la orden de compra.", false
		}
		return fmt.Sprintf("Orden de compra registrada: %d x %s a %s por unidad.",
			o.Quantity, o.Product, nlu.FormatAmount(o.UnitCostPrice)), true
	},
}

// ledgerErrorText maps executor failure classes onto user-facing Spanish.
func ledgerErrorText(err error) string {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return "no encontré uno de los registros involucrados."
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "la cuenta no tiene fondos suficientes."
	case errors.Is(err, ledger.ErrInvalidMargin):
		return "el margen de la venta no es positivo."
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "el monto o la cantidad no es válida."
	default:
		return "ocurrió un error inesperado."
	}
}
