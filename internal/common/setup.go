package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/database"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/exchange"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/rails"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/reconcile"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/settlement"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService        *database.Service
	SettlementClient *settlement.Client
	RailsClient      *rails.Client
	Registry         *reconcile.Registry
	Engine           *reconcile.Engine
	ExchangeService  *exchange.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the full service graph. ctx is the process-lifetime
// context; pollers started later inherit it.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	settlementClient, err := settlement.NewClient(cfg.Settlement)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	railsClient, err := rails.NewClient(cfg.Rails)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	zap.L().Info("Loading exchange rates", zap.String("file", cfg.Exchange.RatesFile))
	rateSource, err := exchange.LoadRateSource(cfg.Exchange.RatesFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	margin, err := decimal.NewFromString(cfg.Exchange.MarginPercent)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("invalid MARGIN_FEE_PERCENT %q: %w", cfg.Exchange.MarginPercent, err)
	}

	registry := reconcile.NewRegistry(settlementClient, dbService, cfg.Reconcile)
	executor := reconcile.NewSettlementExecutor(dbService, settlementClient, railsClient, cfg.Rails)
	engine := reconcile.NewEngine(dbService, executor, registry)
	exchangeService := exchange.NewService(ctx, dbService, settlementClient, rateSource, registry, engine, margin)

	return &Services{
		DbService:        dbService,
		SettlementClient: settlementClient,
		RailsClient:      railsClient,
		Registry:         registry,
		Engine:           engine,
		ExchangeService:  exchangeService,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for CLI tools that never talk to the providers.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

// ResumeOpenPollers restarts a reconciliation poller for every transaction
// that was still open when the process last stopped.
func (cs *Services) ResumeOpenPollers(ctx context.Context) error {
	open, err := cs.DbService.ListOpenTransactions(ctx)
	if err != nil {
		return fmt.Errorf("unable to list open transactions: %w", err)
	}

	for _, tx := range open {
		cs.Registry.Start(ctx, cs.Engine, tx.TransferId)
	}

	if len(open) > 0 {
		zap.L().Info("Resumed reconciliation pollers", zap.Int("count", len(open)))
	}
	return nil
}

func (cs *Services) Close() {
	if cs.Registry != nil {
		cs.Registry.StopAll()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
