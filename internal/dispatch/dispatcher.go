// Package dispatch orchestrates the command pipeline: rate limiting, intent
// classification, wizard routing, permission checks and ledger execution. All
// failures are converted into user-facing responses at this boundary; nothing
// propagates as a fault.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cajabot/cajabot/internal/command"
	"github.com/cajabot/cajabot/internal/database"
	"github.com/cajabot/cajabot/internal/database/repository"
	"github.com/cajabot/cajabot/internal/ledger"
	"github.com/cajabot/cajabot/internal/nlu"
	"github.com/cajabot/cajabot/internal/ratelimit"
	"github.com/cajabot/cajabot/internal/wizard"
)

// Request is one caller turn.
type Request struct {
	Text     string `json:"text"`
	CallerID string `json:"callerId"`
}

// Response is what the caller sees.
type Response struct {
	ResponseText         string   `json:"responseText"`
	Suggestions          []string `json:"suggestions"`
	RequiresConfirmation bool     `json:"requiresConfirmation"`
}

// Repos bundles the read-side repositories the dispatcher queries directly.
type Repos struct {
	Accounts  *repository.AccountRepo
	Sales     *repository.SaleRepo
	Movements *repository.MovementRepo
}

// Dispatcher runs the pipeline. Build one per process and share it.
type Dispatcher struct {
	Limiter    *ratelimit.Limiter
	Classifier *nlu.Classifier
	Registry   *command.Registry
	Wizards    *wizard.Engine
	Ledger     *ledger.Executor
	Repos      Repos
	Perms      PermissionValidator
	Audit      AuditRecorder
	Notify     NotificationSink
	Log        zerolog.Logger
}

var cancelWords = map[string]bool{
	"cancelar": true, "cancela": true, "cancel": true, "salir": true, "olvidalo": true, "olvídalo": true,
}

var helpSuggestions = []string{
	"crear venta",
	"ver bancos",
	"registrar gasto $500",
	"transferir",
	"resumen del mes",
}

// Handle processes one turn synchronously.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	rl := d.Limiter.Check(req.CallerID)
	if !rl.Allowed {
		secs := int(rl.ResetIn.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		return Response{ResponseText: fmt.Sprintf("Demasiadas solicitudes. Intenta de nuevo en %d segundos.", secs)}
	}

	text := strings.TrimSpace(req.Text)
	lower := strings.ToLower(text)

	if cancelWords[lower] {
		cancelled, err := d.Wizards.Cancel(ctx, req.CallerID)
		if err != nil {
			return d.unexpected(req, "cancel", err)
		}
		if cancelled {
			return Response{ResponseText: "Operación cancelada.", Suggestions: helpSuggestions}
		}
		return Response{ResponseText: "No hay ninguna operación en curso.", Suggestions: helpSuggestions}
	}

	// A live wizard consumes the input before any classification.
	if session, err := d.Wizards.ActiveSession(ctx, req.CallerID); err != nil {
		return d.unexpected(req, "wizard", err)
	} else if session != nil {
		return d.handleWizardTurn(ctx, req, session, text)
	}

	match := d.Classifier.Classify(text)
	if match.Operation == "" {
		return d.helpResponse()
	}
	op, ok := d.Registry.Get(match.Operation)
	if !ok {
		d.Log.Warn().Str("operation", match.Operation).Msg("classifier produced unregistered operation")
		return d.helpResponse()
	}

	if !op.Category.ReadOnly() {
		decision, err := d.Perms.Validate(ctx, req.CallerID, op.Category, match.Entities)
		if err != nil {
			return d.unexpected(req, op.Name, err)
		}
		if !decision.Allowed {
			d.record(req.CallerID, op.Name, "denied", decision.Reason)
			return Response{ResponseText: "No tienes permiso para esta operación."}
		}
		if decision.RequiresApproval {
			d.record(req.CallerID, op.Name, "queued", "pending approval by "+decision.ApproverRole)
			d.Notify.Notify(decision.ApproverRole, fmt.Sprintf("%s solicita aprobación para %s", req.CallerID, op.Name))
			return Response{ResponseText: "La operación quedó pendiente de aprobación. Te avisaremos cuando se resuelva."}
		}
	}

	return d.execute(ctx, req, op, match)
}

func (d *Dispatcher) handleWizardTurn(ctx context.Context, req Request, session *repository.WizardSession, text string) Response {
	reply, err := d.Wizards.HandleInput(ctx, session, text)
	if err != nil {
		return d.unexpected(req, session.OperationType, err)
	}
	resp := Response{ResponseText: reply.Text}
	if reply.Done {
		outcome := "error"
		if reply.Executed {
			outcome = "ok"
			resp.Suggestions = followUps(reply.Operation)
			// Money moved between accounts is relevant beyond the caller.
			if reply.Operation == command.OpTransfer {
				d.Notify.Notify(req.CallerID, reply.Text)
			}
		}
		if reply.Operation != "" {
			d.record(req.CallerID, reply.Operation, outcome, reply.Text)
		}
	}
	return resp
}

func (d *Dispatcher) execute(ctx context.Context, req Request, op command.Operation, match nlu.Match) Response {
	switch op.Name {
	case command.OpViewAccounts:
		return d.viewAccounts(ctx, req)
	case command.OpViewSales:
		return d.viewSales(ctx, req, match.Entities[nlu.EntityPeriod])
	case command.OpViewMovements:
		return d.viewMovements(ctx, req, match.Entities[nlu.EntityPeriod])
	case command.OpSummary:
		return d.summary(ctx, req, match.Entities[nlu.EntityPeriod])
	case command.OpNavigate:
		return d.navigate(match.Entities[nlu.EntityPanel])
	case command.OpExportMovements:
		return d.exportMovements(ctx, req, match.Entities[nlu.EntityPeriod])
	case command.OpRecordIncome, command.OpRecordExpense:
		// Fully satisfiable in one shot when the amount was extracted.
		if raw, ok := match.Entities[nlu.EntityAmount]; ok {
			amount, err := strconv.ParseInt(raw, 10, 64)
			if err == nil {
				return d.recordDirect(ctx, req, op, amount)
			}
		}
		return d.startWizard(ctx, req, op)
	default:
		return d.startWizard(ctx, req, op)
	}
}

func (d *Dispatcher) startWizard(ctx context.Context, req Request, op command.Operation) Response {
	if op.WizardType == "" {
		d.Log.Warn().Str("operation", op.Name).Msg("operation has no wizard and was not satisfiable in one shot")
		return d.helpResponse()
	}
	reply, err := d.Wizards.Start(ctx, req.CallerID, op.WizardType)
	if err != nil {
		return d.unexpected(req, op.Name, err)
	}
	return Response{
		ResponseText:         reply.Text,
		RequiresConfirmation: op.RequiresConfirmation,
		Suggestions:          []string{"cancelar"},
	}
}

func (d *Dispatcher) recordDirect(ctx context.Context, req Request, op command.Operation, amount int64) Response {
	primary, err := d.Repos.Accounts.GetPrimary(ctx)
	if err != nil {
		return d.unexpected(req, op.Name, err)
	}
	if primary == nil {
		return Response{ResponseText: "No hay una cuenta principal configurada."}
	}

	var mov repository.Movement
	if op.Name == command.OpRecordIncome {
		mov, err = d.Ledger.RecordIncome(ctx, primary.ID, amount, req.Text)
	} else {
		mov, err = d.Ledger.RecordExpense(ctx, primary.ID, amount, req.Text)
	}
	if err != nil {
		d.record(req.CallerID, op.Name, "error", err.Error())
		return d.ledgerFailure(err)
	}
	d.record(req.CallerID, op.Name, "ok", mov.ID)

	verb := "Ingreso"
	if op.Name == command.OpRecordExpense {
		verb = "Gasto"
	}
	return Response{
		ResponseText: fmt.Sprintf("%s de %s registrado en %s.", verb, nlu.FormatAmount(mov.Amount), primary.Name),
		Suggestions:  followUps(op.Name),
	}
}

func (d *Dispatcher) viewAccounts(ctx context.Context, req Request) Response {
	accounts, err := d.Repos.Accounts.List(ctx)
	if err != nil {
		return d.unexpected(req, command.OpViewAccounts, err)
	}
	if len(accounts) == 0 {
		return Response{ResponseText: "No hay cuentas registradas."}
	}
	var b strings.Builder
	b.WriteString("Cuentas:\n")
	var total int64
	for _, a := range accounts {
		fmt.Fprintf(&b, "• %s: %s\n", a.Name, nlu.FormatAmount(a.Balance))
		total += a.Balance
	}
	fmt.Fprintf(&b, "Total: %s", nlu.FormatAmount(total))
	return Response{ResponseText: b.String(), Suggestions: []string{"ver movimientos", "resumen del mes"}}
}

func (d *Dispatcher) viewSales(ctx context.Context, req Request, period string) Response {
	sales, err := d.Repos.Sales.ListSince(ctx, periodStart(period))
	if err != nil {
		return d.unexpected(req, command.OpViewSales, err)
	}
	if len(sales) == 0 {
		return Response{ResponseText: "No hay ventas en ese período.", Suggestions: []string{"crear venta"}}
	}
	var total, remaining int64
	for _, s := range sales {
		total += s.TotalSalePrice
		remaining += s.AmountRemaining
	}
	return Response{
		ResponseText: fmt.Sprintf("%d ventas por %s; %s por cobrar.", len(sales), nlu.FormatAmount(total), nlu.FormatAmount(remaining)),
		Suggestions:  []string{"crear venta", "resumen del mes"},
	}
}

func (d *Dispatcher) viewMovements(ctx context.Context, req Request, period string) Response {
	movements, err := d.Repos.Movements.ListSince(ctx, periodStart(period))
	if err != nil {
		return d.unexpected(req, command.OpViewMovements, err)
	}
	if len(movements) == 0 {
		return Response{ResponseText: "No hay movimientos en ese período."}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Últimos movimientos (%d):\n", len(movements))
	shown := movements
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, m := range shown {
		fmt.Fprintf(&b, "• %s %s %s\n", m.CreatedAt.Format("02/01"), movementLabel(m.Type), nlu.FormatAmount(m.Amount))
	}
	return Response{ResponseText: strings.TrimRight(b.String(), "\n")}
}

func (d *Dispatcher) summary(ctx context.Context, req Request, period string) Response {
	sums, err := d.Repos.Movements.SumByType(ctx, periodStart(period))
	if err != nil {
		return d.unexpected(req, command.OpSummary, err)
	}
	income := sums[repository.MovementIncome]
	expense := sums[repository.MovementExpense]
	return Response{
		ResponseText: fmt.Sprintf("Resumen (%s): ingresos %s, egresos %s, neto %s.",
			periodLabel(period), nlu.FormatAmount(income), nlu.FormatAmount(expense), nlu.FormatAmount(income-expense)),
		Suggestions: []string{"ver movimientos", "ver ventas"},
	}
}

func (d *Dispatcher) navigate(panel string) Response {
	if panel == "" {
		return Response{ResponseText: "¿A qué panel quieres ir? Opciones: ventas, bancos, clientes, ordenes, movimientos, resumen."}
	}
	return Response{ResponseText: "Abriendo el panel de " + panel + "."}
}

func (d *Dispatcher) exportMovements(ctx context.Context, req Request, period string) Response {
	movements, err := d.Repos.Movements.ListSince(ctx, periodStart(period))
	if err != nil {
		return d.unexpected(req, command.OpExportMovements, err)
	}
	csv := movementsCSV(movements)
	d.record(req.CallerID, command.OpExportMovements, "ok", fmt.Sprintf("%d rows", len(movements)))
	return Response{ResponseText: fmt.Sprintf("Export listo (%d movimientos):\n%s", len(movements), csv)}
}

func (d *Dispatcher) helpResponse() Response {
	return Response{
		ResponseText: "No entendí el comando. Prueba por ejemplo: \"crear venta\", \"ver bancos\", \"registrar gasto $500\" o \"resumen del mes\".",
		Suggestions:  helpSuggestions,
	}
}

func (d *Dispatcher) ledgerFailure(err error) Response {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return Response{ResponseText: "No encontré uno de los registros involucrados."}
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return Response{ResponseText: "La cuenta no tiene fondos suficientes."}
	case errors.Is(err, ledger.ErrInvalidMargin):
		return Response{ResponseText: "El margen de la venta no es positivo."}
	case errors.Is(err, ledger.ErrInvalidAmount):
		return Response{ResponseText: "El monto o la cantidad no es válida."}
	default:
		return Response{ResponseText: "Ocurrió un error inesperado. Inténtalo de nuevo."}
	}
}

// unexpected logs, audits and degrades a failure into a generic message.
func (d *Dispatcher) unexpected(req Request, operation string, err error) Response {
	d.Log.Error().Err(err).Str("caller", req.CallerID).Str("operation", operation).Msg("command failed")
	d.record(req.CallerID, operation, "error", err.Error())
	return Response{ResponseText: "Ocurrió un error inesperado. Inténtalo de nuevo."}
}

func (d *Dispatcher) record(callerID, operation, outcome, detail string) {
	d.Audit.Record(AuditEvent{
		ID:        uuid.NewString(),
		CallerID:  callerID,
		Operation: operation,
		Outcome:   outcome,
		Detail:    detail,
		At:        database.Now(),
	})
}

func followUps(operation string) []string {
	switch operation {
	case command.OpCreateSale:
		return []string{"ver ventas", "resumen del mes"}
	case command.OpTransfer, command.OpRecordIncome, command.OpRecordExpense:
		return []string{"ver bancos", "ver movimientos"}
	default:
		return []string{"ver bancos"}
	}
}

func movementLabel(kind string) string {
	switch kind {
	case repository.MovementIncome:
		return "ingreso"
	case repository.MovementExpense:
		return "egreso"
	case repository.MovementTransferIn:
		return "transferencia recibida"
	case repository.MovementTransferOut:
		return "transferencia enviada"
	}
	return kind
}

func periodLabel(period string) string {
	switch period {
	case nlu.PeriodToday:
		return "hoy"
	case nlu.PeriodYesterday:
		return "desde ayer"
	case nlu.PeriodWeek:
		return "esta semana"
	case nlu.PeriodMonth:
		return "este mes"
	case nlu.PeriodYear:
		return "este año"
	case nlu.PeriodQuarter:
		return "este trimestre"
	}
	return "histórico"
}

// periodStart maps a canonical period key to its lower bound. Empty or
// unknown keys mean no bound.
func periodStart(period string) time.Time {
	now := database.Now()
	switch period {
	case nlu.PeriodToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case nlu.PeriodYesterday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	case nlu.PeriodWeek:
		return now.AddDate(0, 0, -7)
	case nlu.PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case nlu.PeriodQuarter:
		q := (int(now.Month()) - 1) / 3
		return time.Date(now.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	case nlu.PeriodYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
