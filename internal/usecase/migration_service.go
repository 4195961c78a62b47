package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/catalogbridge/migrator/internal/domain"
	"github.com/catalogbridge/migrator/internal/infrastructure/metrics"
)

// MigrationServiceConfig holds configuration for the migration service
type MigrationServiceConfig struct {
	Concurrency      int
	VariantGroupName string
	HomeCategoryID   int64
	MediaCacheTTL    time.Duration
}

// MigrationService runs the per-product creation pipeline against the
// platform under a bounded worker pool
type MigrationService struct {
	client   domain.CommerceClient
	cache    domain.MediaCache
	metrics  *metrics.Recorder
	logger   *zap.Logger
	config   MigrationServiceConfig
	progress progressTracker
}

// NewMigrationService creates a migration service. cache and recorder may be nil.
func NewMigrationService(
	client domain.CommerceClient,
	cache domain.MediaCache,
	recorder *metrics.Recorder,
	logger *zap.Logger,
	config MigrationServiceConfig,
) *MigrationService {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.VariantGroupName == "" {
		config.VariantGroupName = "Taille"
	}
	if config.MediaCacheTTL == 0 {
		config.MediaCacheTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MigrationService{
		client:  client,
		cache:   cache,
		metrics: recorder,
		logger:  logger.Named("migration"),
		config:  config,
	}
}

// optionGroupCell creates the shared option group at most once. The first
// attempt's result, id or error, is kept for the rest of the run.
type optionGroupCell struct {
	mu   sync.Mutex
	done bool
	id   int64
	err  error
}

func (c *optionGroupCell) get(ctx context.Context, create func(context.Context) (int64, error)) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.done {
		c.id, c.err = create(ctx)
		c.done = true
	}
	return c.id, c.err
}

// Run migrates every product and waits for all of them to settle. A product
// failure never stops its siblings. Outcomes are returned in input order.
func (s *MigrationService) Run(ctx context.Context, products []domain.Product) domain.Report {
	group := &optionGroupCell{}
	outcomes := make([]domain.MigrationOutcome, len(products))

	s.progress.start(len(products))
	defer s.progress.stop()

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)
	for i, p := range products {
		g.Go(func() error {
			outcomes[i] = s.migrateProduct(ctx, group, p)
			return nil
		})
	}
	_ = g.Wait()

	report := domain.Report{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Status == domain.StatusSuccess {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report
}

// Progress returns a snapshot of the current or last run
func (s *MigrationService) Progress() domain.Progress {
	return s.progress.snapshot()
}

func (s *MigrationService) migrateProduct(ctx context.Context, group *optionGroupCell, p domain.Product) (outcome domain.MigrationOutcome) {
	outcome = domain.MigrationOutcome{SKU: p.SKU, Stage: domain.StagePending}
	log := s.logger.With(zap.String("sku", p.SKU))

	s.progress.begin()
	s.metrics.PipelineStarted()
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = domain.StatusFailure
			outcome.Error = fmt.Sprintf("panic: %v", r)
			log.Error("product pipeline panicked", zap.Any("panic", r))
		}
		s.metrics.PipelineFinished()
		s.metrics.ProductSettled(string(outcome.Status))
		s.progress.settle(outcome.Status)
	}()

	productType := domain.ProductTypeStandard
	if p.IsVariable {
		productType = domain.ProductTypeCombinations
	}

	productID, err := s.client.CreateProduct(ctx, domain.ProductDraft{
		Type:             productType,
		Name:             p.Title,
		Reference:        p.SKU,
		Price:            p.Price,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		MetaDescription:  p.MetaDescription,
		CategoryIDs:      []int64{s.config.HomeCategoryID},
	})
	if err != nil {
		return s.fail(log, outcome, fmt.Errorf("create product %s: %w", p.SKU, err))
	}
	outcome.ProductID = productID
	outcome.Stage = domain.StageProductCreated
	log = log.With(zap.Int64("product_id", productID))
	log.Info("product created", zap.String("type", productType))

	s.processImages(ctx, log, p, productID, &outcome)
	outcome.Stage = domain.StageImagesProcessed

	if p.HasVariants() {
		if err := s.processVariants(ctx, log, group, p, productID, &outcome); err != nil {
			return s.fail(log, outcome, err)
		}
	}
	outcome.Stage = domain.StageVariantsProcessed

	outcome.Stage = domain.StageDone
	outcome.Status = domain.StatusSuccess
	return outcome
}

func (s *MigrationService) fail(log *zap.Logger, outcome domain.MigrationOutcome, err error) domain.MigrationOutcome {
	outcome.Status = domain.StatusFailure
	outcome.Error = err.Error()
	log.Error("product migration failed", zap.String("stage", string(outcome.Stage)), zap.Error(err))
	return outcome
}

// processImages uploads images one after the other. Failures are logged and
// never fail the product.
func (s *MigrationService) processImages(ctx context.Context, log *zap.Logger, p domain.Product, productID int64, outcome *domain.MigrationOutcome) {
	for i, url := range p.ImageURLs {
		outcome.ImagesAttempted++
		if err := s.uploadImage(ctx, p.SKU, productID, i+1, url); err != nil {
			s.metrics.ImageProcessed(false)
			log.Warn("image skipped", zap.String("url", url), zap.Error(err))
			continue
		}
		outcome.ImagesSucceeded++
		s.metrics.ImageProcessed(true)
		log.Info("image uploaded", zap.Int("index", i+1), zap.Int("total", len(p.ImageURLs)))
	}
}

func (s *MigrationService) uploadImage(ctx context.Context, sku string, productID int64, position int, url string) error {
	media, err := s.fetchMedia(ctx, url)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("%s-%d.%s", sku, position, imageExtension(media.ContentType))
	return s.client.UploadImage(ctx, productID, media, filename)
}

// fetchMedia downloads through the media cache when one is configured
func (s *MigrationService) fetchMedia(ctx context.Context, url string) (domain.Media, error) {
	if s.cache != nil {
		if media, err := s.cache.Get(ctx, url); err == nil {
			return media, nil
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Debug("media cache unavailable", zap.Error(err))
		}
	}

	media, err := s.client.FetchMedia(ctx, url)
	if err != nil {
		return domain.Media{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, url, media, s.config.MediaCacheTTL); err != nil {
			s.logger.Debug("media not cached", zap.String("url", url), zap.Error(err))
		}
	}
	return media, nil
}

// processVariants creates one option value and one combination per size, in
// order. The first error stops the remaining variants; nothing is rolled back.
func (s *MigrationService) processVariants(ctx context.Context, log *zap.Logger, group *optionGroupCell, p domain.Product, productID int64, outcome *domain.MigrationOutcome) error {
	groupName := s.config.VariantGroupName
	groupID, err := group.get(ctx, func(ctx context.Context) (int64, error) {
		id, err := s.client.CreateOptionGroup(ctx, groupName)
		if err == nil {
			s.logger.Info("option group created", zap.String("name", groupName), zap.Int64("group_id", id))
		}
		return id, err
	})
	if err != nil {
		return fmt.Errorf("option group %q: %w", groupName, err)
	}

	priceImpact := decimal.Zero.StringFixed(6)
	for _, size := range p.Sizes {
		valueID, err := s.client.CreateOptionValue(ctx, groupID, size)
		if err != nil {
			return fmt.Errorf("option value %q: %w", size, err)
		}

		reference := p.SKU + "-" + size
		combinationID, err := s.client.CreateCombination(ctx, domain.CombinationDraft{
			ProductID:     productID,
			OptionValueID: valueID,
			Reference:     reference,
			PriceImpact:   priceImpact,
		})
		if err != nil {
			return fmt.Errorf("combination %q: %w", reference, err)
		}
		outcome.CombinationsCreated++
		s.metrics.CombinationCreated()
		log.Info("combination created", zap.String("size", size), zap.Int64("combination_id", combinationID))
	}
	return nil
}

// imageExtension picks a file extension from a media type
func imageExtension(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return "jpg"
	}
}

// progressTracker counts pipelines for status reporting
type progressTracker struct {
	total     atomic.Int64
	settled   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
	running   atomic.Bool
}

func (t *progressTracker) start(total int) {
	t.total.Store(int64(total))
	t.settled.Store(0)
	t.succeeded.Store(0)
	t.failed.Store(0)
	t.inFlight.Store(0)
	t.running.Store(true)
}

func (t *progressTracker) stop() {
	t.running.Store(false)
}

func (t *progressTracker) begin() {
	t.inFlight.Add(1)
}

func (t *progressTracker) settle(status domain.OutcomeStatus) {
	t.inFlight.Add(-1)
	t.settled.Add(1)
	if status == domain.StatusSuccess {
		t.succeeded.Add(1)
	} else {
		t.failed.Add(1)
	}
}

func (t *progressTracker) snapshot() domain.Progress {
	return domain.Progress{
		Total:     int(t.total.Load()),
		Settled:   int(t.settled.Load()),
		Succeeded: int(t.succeeded.Load()),
		Failed:    int(t.failed.Load()),
		InFlight:  int(t.inFlight.Load()),
		Running:   t.running.Load(),
	}
}
