package wizard

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cajabot/cajabot/internal/command"
	"github.com/cajabot/cajabot/internal/database"
	"github.com/cajabot/cajabot/internal/database/repository"
	"github.com/cajabot/cajabot/internal/ledger"
)

func setupEngine(t *testing.T) (*Engine, *sql.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateUp(db))

	ctx := context.Background()
	accounts := repository.NewAccountRepo(db)
	require.NoError(t, accounts.Insert(ctx, repository.Account{ID: "caja", Name: "Caja Principal", Balance: 1000_00, IsPrimary: true}))
	require.NoError(t, accounts.Insert(ctx, repository.Account{ID: "banco", Name: "Banco Santander", Balance: 500_00}))
	require.NoError(t, repository.NewClientRepo(db).Insert(ctx, repository.Client{ID: "cli-1", Name: "Comercial del Norte"}))
	require.NoError(t, repository.NewPurchaseOrderRepo(db).Insert(ctx, repository.PurchaseOrder{
		ID:             "po-1",
		Product:        "Cemento gris 50kg",
		Quantity:       100,
		AvailableStock: 100,
		UnitCostPrice:  60_00,
	}))

	e := &Engine{
		Sessions: repository.NewSessionRepo(db),
		Clients:  repository.NewClientRepo(db),
		Accounts: accounts,
		Orders:   repository.NewPurchaseOrderRepo(db),
		Ledger:   &ledger.Executor{DB: db},
		TTL:      30 * time.Minute,
		Log:      zerolog.Nop(),
	}
	return e, db
}

// turn re-fetches the live session and feeds it one input, the way the
// dispatcher does between user messages.
func turn(t *testing.T, e *Engine, owner, input string) Reply {
	t.Helper()
	ctx := context.Background()
	s, err := e.ActiveSession(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, s, "no live session for %s", owner)
	r, err := e.HandleInput(ctx, s, input)
	require.NoError(t, err)
	return r
}

func TestStartIsIdempotent(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	first, err := e.Start(ctx, "ana", "sale")
	require.NoError(t, err)
	require.Contains(t, first.Text, "cliente")

	s1, err := e.ActiveSession(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, s1)

	_, err = e.Start(ctx, "ana", "sale")
	require.NoError(t, err)
	s2, err := e.ActiveSession(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, s1.ID, s2.ID)
}

func TestSaleFlowEndToEnd(t *testing.T) {
	e, db := setupEngine(t)
	ctx := context.Background()

	_, err := e.Start(ctx, "ana", "sale")
	require.NoError(t, err)

	r := turn(t, e, "ana", "comercial")
	require.Contains(t, r.Text, "orden de compra")

	r = turn(t, e, "ana", "cemento")
	require.Contains(t, r.Text, "unidades")
	require.Contains(t, r.Text, "100")

	// Over stock: the step fails and the session stays put.
	r = turn(t, e, "ana", "500")
	require.Contains(t, r.Text, "100 unidades")
	require.False(t, r.Done)
	s, err := e.ActiveSession(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, 3, s.CurrentStep)

	r = turn(t, e, "ana", "20")
	require.Contains(t, r.Text, "Precio de venta")

	r = turn(t, e, "ana", "100")
	require.Contains(t, r.Text, "Flete")

	r = turn(t, e, "ana", "")
	require.True(t, r.Done)
	require.True(t, r.Executed)
	require.Equal(t, command.OpCreateSale, r.Operation)
	require.Contains(t, r.Text, "Venta registrada")

	s, err = e.ActiveSession(ctx, "ana")
	require.NoError(t, err)
	require.Nil(t, s, "session should be deleted after completion")

	o, err := repository.NewPurchaseOrderRepo(db).Get(ctx, "po-1")
	require.NoError(t, err)
	require.Equal(t, int64(80), o.AvailableStock)
}

func TestSaleFlowPriceBelowCostRetries(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	_, err := e.Start(ctx, "ana", "sale")
	require.NoError(t, err)
	turn(t, e, "ana", "comercial")
	turn(t, e, "ana", "cemento")
	turn(t, e, "ana", "10")

	r := turn(t, e, "ana", "50")
	require.Contains(t, r.Text, "margen")
	s, err := e.ActiveSession(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, 4, s.CurrentStep)
}

func TestTransferFlowRejectsSameDestination(t *testing.T) {
	e, db := setupEngine(t)
	ctx := context.Background()

	_, err := e.Start(ctx, "ana", "transfer")
	require.NoError(t, err)
	turn(t, e, "ana", "caja")

	r := turn(t, e, "ana", "caja")
	require.Contains(t, r.Text, "distinta")

	turn(t, e, "ana", "banco")
	r = turn(t, e, "ana", "$300")
	require.True(t, r.Done)
	require.True(t, r.Executed)

	a, err := repository.NewAccountRepo(db).Get(ctx, "caja")
	require.NoError(t, err)
	require.Equal(t, int64(700_00), a.Balance)
}

func TestDepositFlowDefaultsToPrimaryAccount(t *testing.T) {
	e, db := setupEngine(t)
	ctx := context.Background()

	_, err := e.Start(ctx, "ana", "deposit")
	require.NoError(t, err)
	turn(t, e, "ana", "")
	turn(t, e, "ana", "2500")
	r := turn(t, e, "ana", "venta mostrador")
	require.True(t, r.Done)
	require.True(t, r.Executed)
	require.Equal(t, command.OpRecordIncome, r.Operation)

	a, err := repository.NewAccountRepo(db).Get(ctx, "caja")
	require.NoError(t, err)
	require.Equal(t, int64(1000_00+2500_00), a.Balance)
}

func TestFailedExecutionStillEndsSession(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	_, err := e.Start(ctx, "ana", "expense")
	require.NoError(t, err)
	turn(t, e, "ana", "banco")
	turn(t, e, "ana", "99999")
	r := turn(t, e, "ana", "compra grande")
	require.True(t, r.Done)
	require.False(t, r.Executed)
	require.Contains(t, r.Text, "fondos")

	s, err := e.ActiveSession(ctx, "ana")
	require.NoError(t, err)
	require.Nil(t, s, "one-shot final step must delete the session even on failure")
}

func TestCancelDeletesLiveSession(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	canceled, err := e.Cancel(ctx, "ana")
	require.NoError(t, err)
	require.False(t, canceled)

	_, err = e.Start(ctx, "ana", "transfer")
	require.NoError(t, err)
	canceled, err = e.Cancel(ctx, "ana")
	require.NoError(t, err)
	require.True(t, canceled)

	s, err := e.ActiveSession(ctx, "ana")
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestMergeNewValuesWin(t *testing.T) {
	base := map[string]string{"a": "1", "b": "2"}
	out := merge(base, map[string]string{"b": "3", "c": "4"})
	require.Equal(t, map[string]string{"a": "1", "b": "3", "c": "4"}, out)
	require.Equal(t, "2", base["b"], "base map must not be mutated")
}

func TestBestMatchPrefersExactThenFuzzy(t *testing.T) {
	cands := []candidate{
		{id: "c1", name: "Comercial del Norte"},
		{id: "c2", name: "Distribuidora La Palma"},
	}
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"c2", "c2", true},
		{"comercial", "c1", true},
		{"distribuidora la palma", "c2", true},
		{"Comercial del Nrote", "c1", true},
		{"zzzzzz", "", false},
	}
	for _, c := range cases {
		got, ok := bestMatch(c.in, cands)
		if ok != c.ok || got != c.want {
			t.Errorf("bestMatch(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFlowsCoverRegistryWizardTypes(t *testing.T) {
	names := Flows()
	for _, want := range []string{"sale", "deposit", "expense", "transfer", "purchase_order"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("flow %q not registered (have %s)", want, strings.Join(names, ", "))
		}
	}
}
