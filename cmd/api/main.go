package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homecare-ledger/config"
	httpHandler "homecare-ledger/internal/adapter/http/handler"
	pgStorage "homecare-ledger/internal/adapter/storage/postgres"
	redisStorage "homecare-ledger/internal/adapter/storage/redis"
	"homecare-ledger/internal/core/domain"
	"homecare-ledger/internal/core/ports"
	"homecare-ledger/internal/service"
	"homecare-ledger/internal/worker"
	"homecare-ledger/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Homecare Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	approvalRepo := pgStorage.NewApprovalRepo(pool)
	disputeRepo := pgStorage.NewDisputeRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	if err := seedAdminWallets(ctx, walletRepo); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin wallets")
	}

	// Initialize notification sink
	sink := redisStorage.NewNotificationSink(rdb)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, transactor, sink, log)
	approvalSvc := service.NewApprovalService(approvalRepo, disputeRepo, orderRepo, ledgerSvc, sink, log)
	guardianSvc := service.NewGuardianService(
		disputeRepo, orderRepo, auditRepo, approvalSvc, sink,
		service.GuardianPolicy{
			AutoResolveThreshold: cfg.Guardian.AutoResolveThreshold,
			EscalationWindow:     cfg.Guardian.EscalationWindow,
		},
		log,
	)

	// Start guardian sweep worker
	guardianWorker := worker.NewGuardianWorker(
		guardianSvc,
		cfg.Guardian.Interval,
		func() bool { return cfg.Guardian.Enabled },
		log,
	)
	stopWorker := guardianWorker.Run(ctx)
	defer stopWorker()

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		ApprovalSvc:    approvalSvc,
		TokenSvc:       tokenSvc,
		WalletRepo:     walletRepo,
		ApprovalRepo:   approvalRepo,
		OrderRepo:      orderRepo,
		AuditRepo:      auditRepo,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// seedAdminWallets creates the three platform sub-wallets if they do not
// exist yet. Safe to run on every startup.
func seedAdminWallets(ctx context.Context, repo ports.WalletRepository) error {
	for _, ownerID := range []uuid.UUID{
		domain.AdminWalletCash,
		domain.AdminWalletProfit,
		domain.AdminWalletTax,
	} {
		existing, err := repo.GetByOwnerID(ctx, ownerID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		now := time.Now().UTC()
		if err := repo.Create(ctx, &domain.Wallet{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Balance:   0,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}
