// Package bootstrap wires configuration, persistence and the catalog and
// stock services into one App. It is the embedding point for an external
// transport: an HTTP or gRPC server builds an App and calls its services.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	inventoryapp "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// App holds the wired services and the resources they share
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB          *persistence.Database
	Products    *persistence.GormProductRepository
	Attributes  *persistence.GormAttributeCatalog
	Ledger      *persistence.GormStockLedger
	Idempotency shared.IdempotencyStore
	Metrics     *telemetry.BusinessMetrics

	ProductService  *catalogapp.ProductService
	VariantService  *catalogapp.VariantService
	StockAdjustment *inventoryapp.StockAdjustmentService
}

// New connects to postgres with cfg.Database and wires an App over it
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	app, err := NewWithDatabase(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// NewWithDatabase wires an App over an already opened database. The App
// takes ownership of db and closes it in Close.
func NewWithDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger, db *persistence.Database) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Stock, cfg.Redis,
		cache.WithLogger(log.Named("idempotency")),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		return nil, err
	}

	metrics, err := telemetry.NewGlobalBusinessMetrics(log.Named("metrics"))
	if err != nil {
		_ = idempotency.Close()
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &App{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		Products:    persistence.NewGormProductRepository(db.DB),
		Attributes:  persistence.NewGormAttributeCatalog(db.DB),
		Ledger:      persistence.NewGormStockLedger(db.DB, log.Named("ledger")),
		Idempotency: idempotency,
		Metrics:     metrics,
	}

	builder := catalog.NewVariantMatrixBuilder(catalog.WithMaxCombinations(cfg.Variant.MaxCombinations))

	app.ProductService = catalogapp.NewProductService(app.Products, log.Named("catalog"))
	app.VariantService = catalogapp.NewVariantService(app.Products, app.Attributes, builder, log.Named("catalog"))
	app.VariantService.SetBusinessMetrics(metrics)
	app.StockAdjustment = inventoryapp.NewStockAdjustmentService(app.Products, app.Ledger, log.Named("inventory"),
		inventoryapp.WithIdempotencyStore(idempotency),
		inventoryapp.WithBusinessMetrics(metrics),
		inventoryapp.WithStockAdjustmentConfig(inventoryapp.StockAdjustmentConfig{
			RejectEmptyBatch: cfg.Stock.RejectEmptyBatch,
			IdempotencyTTL:   cfg.Stock.IdempotencyTTL,
			ReasonMaxLength:  cfg.Stock.ReasonMaxLength,
		}),
	)

	log.Info("Storefront services ready",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("idempotency_backend", cfg.Stock.IdempotencyBackend),
		zap.Int("max_combinations", cfg.Variant.MaxCombinations),
	)
	return app, nil
}

// Close releases the idempotency store and the database
func (a *App) Close() error {
	var errs []error
	if a.Idempotency != nil {
		errs = append(errs, a.Idempotency.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
