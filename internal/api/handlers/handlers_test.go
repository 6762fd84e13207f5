package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cajabot/cajabot/internal/command"
	"github.com/cajabot/cajabot/internal/database"
	"github.com/cajabot/cajabot/internal/database/repository"
	"github.com/cajabot/cajabot/internal/dispatch"
	"github.com/cajabot/cajabot/internal/ledger"
	"github.com/cajabot/cajabot/internal/nlu"
	"github.com/cajabot/cajabot/internal/ratelimit"
	"github.com/cajabot/cajabot/internal/wizard"
)

func setupHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateUp(db))

	ctx := context.Background()
	accounts := repository.NewAccountRepo(db)
	require.NoError(t, accounts.Insert(ctx, repository.Account{ID: "caja", Name: "Caja Principal", Balance: 1000_00, IsPrimary: true}))

	executor := &ledger.Executor{DB: db}
	d := &dispatch.Dispatcher{
		Limiter:    ratelimit.New(100, time.Minute),
		Classifier: nlu.NewClassifier(0.5),
		Registry:   command.NewRegistry(),
		Wizards: &wizard.Engine{
			Sessions: repository.NewSessionRepo(db),
			Clients:  repository.NewClientRepo(db),
			Accounts: accounts,
			Orders:   repository.NewPurchaseOrderRepo(db),
			Ledger:   executor,
			TTL:      30 * time.Minute,
			Log:      zerolog.Nop(),
		},
		Ledger: executor,
		Repos: dispatch.Repos{
			Accounts:  accounts,
			Sales:     repository.NewSaleRepo(db),
			Movements: repository.NewMovementRepo(db),
		},
		Perms:  dispatch.AllowAll{},
		Audit:  dispatch.NopAudit{},
		Notify: dispatch.NopNotifier{},
		Log:    zerolog.Nop(),
	}
	return &Handler{Dispatcher: d}
}

func TestHealthz(t *testing.T) {
	h := setupHandler(t)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCommandEndpoint(t *testing.T) {
	h := setupHandler(t)
	body := strings.NewReader(`{"text": "ver bancos", "callerId": "ana"}`)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/command", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dispatch.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.ResponseText, "Caja Principal")
	require.NotNil(t, resp.Suggestions)
}

func TestCommandRequiresCallerID(t *testing.T) {
	h := setupHandler(t)
	body := strings.NewReader(`{"text": "ver bancos"}`)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/command", body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "callerId")
}

func TestCommandRejectsBadJSON(t *testing.T) {
	h := setupHandler(t)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/command", strings.NewReader("{nope")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandMethodNotAllowed(t *testing.T) {
	h := setupHandler(t)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/command", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
