package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cajabot/cajabot/internal/command"
	"github.com/cajabot/cajabot/internal/config"
	"github.com/cajabot/cajabot/internal/database"
	"github.com/cajabot/cajabot/internal/database/repository"
	"github.com/cajabot/cajabot/internal/dispatch"
	"github.com/cajabot/cajabot/internal/ledger"
	"github.com/cajabot/cajabot/internal/logger"
	"github.com/cajabot/cajabot/internal/nlu"
	"github.com/cajabot/cajabot/internal/ratelimit"
	"github.com/cajabot/cajabot/internal/tui"
	"github.com/cajabot/cajabot/internal/wizard"
)

func main() {
	ctx := context.Background()
	zlog := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.MigrateUp(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		log.Fatalf("seed defaults: %v", err)
	}

	// repositories
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
		Log:      zlog,
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
		Log:        zlog,
	}

	callerID := os.Getenv("USER")
	if callerID == "" {
		callerID = "local"
	}

	p := tea.NewProgram(tui.New(ctx, dispatcher, callerID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
