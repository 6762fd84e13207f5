package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cajabot/cajabot/internal/api/handlers"
	"github.com/cajabot/cajabot/internal/api/middleware"
	"github.com/cajabot/cajabot/internal/command"
	"github.com/cajabot/cajabot/internal/config"
	"github.com/cajabot/cajabot/internal/database"
	"github.com/cajabot/cajabot/internal/database/repository"
	"github.com/cajabot/cajabot/internal/dispatch"
	"github.com/cajabot/cajabot/internal/ledger"
	"github.com/cajabot/cajabot/internal/logger"
	"github.com/cajabot/cajabot/internal/nlu"
	"github.com/cajabot/cajabot/internal/ratelimit"
	"github.com/cajabot/cajabot/internal/wizard"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatal().Err(err).Msg("mkdir db dir")
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	if err := database.MigrateUp(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("seed defaults")
	}

	acctRepo := repository.NewAccountRepo(db)
	clientRepo := repository.NewClientRepo(db)
	orderRepo := repository.NewPurchaseOrderRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	movRepo := repository.NewMovementRepo(db)
	sessionRepo := repository.NewSessionRepo(db)

	executor := &ledger.Executor{DB: db}
	wizards := &wizard.Engine{
		Sessions: sessionRepo,
		Clients:  clientRepo,
		Accounts: acctRepo,
		Orders:   orderRepo,
		Ledger:   executor,
		TTL:      cfg.Wizard.TTL(),
		Log:      log,
	}

	dispatcher := &dispatch.Dispatcher{
		Limiter:    ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
		Classifier: nlu.NewClassifier(cfg.NLU.MinConfidence),
		Registry:   command.NewRegistry(),
		Wizards:    wizards,
		Ledger:     executor,
		Repos:      dispatch.Repos{Accounts: acctRepo, Sales: saleRepo, Movements: movRepo},
		Perms:      dispatch.AllowAll{},
		Audit:      dispatch.NopAudit{},
		Notify:     dispatch.NopNotifier{},
		Log:        log,
	}

	h := &handlers.Handler{Dispatcher: dispatcher}

	var handler http.Handler = h.Routes()
	handler = middleware.Logger(log)(handler)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.RequestID(handler)

	log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Server.Addr, handler); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
