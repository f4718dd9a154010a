package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/findash/findash/internal/clients/alphavantage"
	"github.com/findash/findash/internal/clients/yahoo"
	"github.com/findash/findash/internal/config"
	"github.com/findash/findash/internal/database"
	"github.com/findash/findash/internal/events"
	"github.com/findash/findash/internal/locking"
	"github.com/findash/findash/internal/modules/accounts"
	"github.com/findash/findash/internal/modules/marketdata"
	"github.com/findash/findash/internal/modules/portfolio"
	"github.com/findash/findash/internal/modules/transactions"
	"github.com/findash/findash/internal/modules/users"
	"github.com/findash/findash/internal/scheduler"
	"github.com/findash/findash/internal/server"
	"github.com/findash/findash/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored from the start
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting findash")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	eventManager := events.NewManager(log)
	lockManager := locking.NewManager()

	// Quote source selected by config
	var source marketdata.QuoteSource
	switch cfg.MarketProvider {
	case config.ProviderYahoo:
		source = yahoo.NewClient(cfg.QuoteTimeout, log)
	default:
		source = alphavantage.NewClient(cfg.AlphaVantageKey, cfg.QuoteTimeout, log)
	}
	log.Info().Str("provider", source.Name()).Msg("Quote source configured")

	// Market data engine
	priceCache := marketdata.NewPriceCache(cfg.PriceCacheTTL)
	tracker := marketdata.NewTracker()
	marketRepo := marketdata.NewRepository(db.Conn(), log)
	marketService := marketdata.NewService(priceCache, tracker, source, marketRepo, eventManager, log)

	// Portfolio valuator
	holdingRepo := portfolio.NewHoldingRepository(db.Conn(), log)
	portfolioService := portfolio.NewService(holdingRepo, marketService, eventManager, log)

	// Accounts, transactions, users
	accountRepo := accounts.NewRepository(db.Conn(), log)
	accountService := accounts.NewService(accountRepo, eventManager, log)
	transactionRepo := transactions.NewRepository(db.Conn(), log)
	transactionService := transactions.NewService(transactionRepo, accountService, eventManager, log)
	userRepo := users.NewRepository(db.Conn(), log)
	userService := users.NewService(userRepo, log)

	// Scheduler and background jobs
	sched := scheduler.New(log)
	refreshJob := scheduler.NewPriceRefreshJob(marketService, lockManager, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,
		Status:  marketService,
		Modules: []server.RouteRegistrar{
			marketdata.NewHandler(marketService, log),
			portfolio.NewHandler(portfolioService, accountRepo, log),
			accounts.NewHandler(accountService, log),
			transactions.NewHandler(transactionService, log),
			users.NewHandler(userService, log),
		},
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
