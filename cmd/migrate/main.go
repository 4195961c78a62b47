package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/catalogbridge/migrator/config"
	httpDelivery "github.com/catalogbridge/migrator/internal/delivery/http"
	"github.com/catalogbridge/migrator/internal/domain"
	"github.com/catalogbridge/migrator/internal/infrastructure/cache"
	"github.com/catalogbridge/migrator/internal/infrastructure/logger"
	"github.com/catalogbridge/migrator/internal/infrastructure/metrics"
	"github.com/catalogbridge/migrator/internal/infrastructure/prestashop"
	"github.com/catalogbridge/migrator/internal/infrastructure/wxr"
	"github.com/catalogbridge/migrator/internal/usecase"
)

const mediaCacheBytes = 256 << 20

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	baseLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = baseLogger.Sync() }()

	runID := uuid.NewString()
	log := baseLogger.With(zap.String("run_id", runID))

	log.Info("starting catalog migration",
		zap.String("export", cfg.Export.Path),
		zap.String("target", cfg.PrestaShop.BaseURL),
		zap.Int("concurrency", cfg.Migration.Concurrency),
		zap.Bool("dry_run", cfg.Migration.DryRun),
	)

	items, err := wxr.ParseFile(cfg.Export.Path)
	if err != nil {
		log.Error("cannot read export", zap.Error(err))
		return 1
	}

	attachments := usecase.ResolveAttachments(items)
	extractor := usecase.NewProductExtractor(usecase.ExtractorConfig{
		SKUPrefix:     cfg.Migration.SKUPrefix,
		VariantDomain: cfg.Migration.VariantDomain,
	}, log)
	products := extractor.Extract(items, attachments)

	plan := domain.PlanFor(products)
	log.Info("export parsed",
		zap.Int("items", len(items)),
		zap.Int("attachments", len(attachments)),
		zap.Int("products", plan.Products),
		zap.Int("variable_products", plan.VariableProducts),
		zap.Int("combinations", plan.Combinations),
		zap.Int("images", plan.Images),
	)

	if cfg.Migration.DryRun {
		for _, p := range products {
			log.Info("planned product",
				zap.String("sku", p.SKU),
				zap.String("title", p.Title),
				zap.String("price", p.Price),
				zap.Strings("sizes", p.Sizes),
				zap.Int("images", len(p.ImageURLs)),
			)
		}
		log.Info("dry run finished, nothing was sent")
		return 0
	}

	recorder := metrics.New()
	client := prestashop.NewClient(cfg.PrestaShop.APIKey, cfg.PrestaShop.BaseURL, prestashop.Options{
		LangID:            int64(cfg.PrestaShop.LangID),
		ShopID:            int64(cfg.PrestaShop.ShopID),
		TaxRulesGroupID:   int64(cfg.PrestaShop.TaxRulesGroupID),
		HomeCategoryID:    int64(cfg.PrestaShop.HomeCategoryID),
		RequestsPerSecond: cfg.PrestaShop.RequestsPerSecond,
		Timeout:           cfg.PrestaShop.Timeout,
		Logger:            log,
		Metrics:           recorder,
	})

	service := usecase.NewMigrationService(client, cache.NewMemoryCache(mediaCacheBytes), recorder, log,
		usecase.MigrationServiceConfig{
			Concurrency:      cfg.Migration.Concurrency,
			VariantGroupName: cfg.Migration.VariantGroupName,
			HomeCategoryID:   int64(cfg.PrestaShop.HomeCategoryID),
		})

	if cfg.Server.Port != "" {
		srv := startStatusServer(cfg, httpDelivery.NewHandler(runID, service, recorder.Registry()), log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	report := service.Run(context.Background(), products)

	log.Info("migration finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	for _, f := range report.Failures() {
		log.Warn("product not migrated",
			zap.String("sku", f.SKU),
			zap.String("stage", string(f.Stage)),
			zap.String("reason", f.Error),
		)
	}
	return 0
}

func startStatusServer(cfg *config.Config, handler *httpDelivery.Handler, log *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           httpDelivery.SetupRouter(cfg, handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("status server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("status server stopped", zap.Error(err))
		}
	}()
	return srv
}
