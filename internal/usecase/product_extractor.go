package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/catalogbridge/migrator/internal/domain"
)

var plainDecimalRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ExtractorConfig holds the export conventions used during extraction
type ExtractorConfig struct {
	SKUPrefix     string // fallback SKU is "<prefix>-<post id>"
	VariantDomain string // taxonomy domain of the variant axis, e.g. pa_taille
}

// ProductExtractor rebuilds normalized products from raw export items
type ProductExtractor struct {
	skuPrefix     string
	variantDomain string
	logger        *zap.Logger
}

// NewProductExtractor creates an extractor; empty config values get defaults
func NewProductExtractor(cfg ExtractorConfig, logger *zap.Logger) *ProductExtractor {
	if cfg.SKUPrefix == "" {
		cfg.SKUPrefix = "WP"
	}
	if cfg.VariantDomain == "" {
		cfg.VariantDomain = "pa_taille"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductExtractor{
		skuPrefix:     cfg.SKUPrefix,
		variantDomain: cfg.VariantDomain,
		logger:        logger.Named("extractor"),
	}
}

// ResolveAttachments maps attachment post ids to their media URL, preferring
// the attachment URL over the guid. Items lacking an id or any URL are skipped.
func ResolveAttachments(items []domain.RawItem) domain.AttachmentIndex {
	index := make(domain.AttachmentIndex)
	for _, item := range items {
		if item.PostType != domain.PostTypeAttachment {
			continue
		}
		id := strings.TrimSpace(item.PostID)
		url := strings.TrimSpace(item.AttachmentURL)
		if url == "" {
			url = strings.TrimSpace(item.GUID)
		}
		if id == "" || url == "" {
			continue
		}
		index[id] = url
	}
	return index
}

// Extract returns one product per product item, in export order
func (e *ProductExtractor) Extract(items []domain.RawItem, attachments domain.AttachmentIndex) []domain.Product {
	var products []domain.Product
	for _, item := range items {
		if item.PostType != domain.PostTypeProduct {
			continue
		}
		products = append(products, e.extractProduct(item, attachments))
	}
	return products
}

func (e *ProductExtractor) extractProduct(item domain.RawItem, attachments domain.AttachmentIndex) domain.Product {
	sku := item.Meta.Resolve(domain.MetaSKU)
	if sku == "" {
		sku = fmt.Sprintf("%s-%s", e.skuPrefix, strings.TrimSpace(item.PostID))
	}

	rawPrice := item.Meta.Resolve(domain.MetaPrice, domain.MetaRegularPrice)
	price, ok := normalizePrice(rawPrice)
	if !ok {
		e.logger.Warn("unusable price, defaulting to 0", zap.String("sku", sku), zap.String("price", rawPrice))
	}

	return domain.Product{
		Title:            strings.TrimSpace(item.Title),
		SKU:              sku,
		Price:            price,
		Description:      strings.TrimSpace(item.Content),
		ShortDescription: strings.TrimSpace(item.Excerpt),
		MetaDescription:  item.Meta.Resolve(domain.MetaYoastMetaDesc),
		IsVariable:       item.Terms.Has(domain.DomainProductType, domain.ProductTypeVariable),
		Sizes:            item.Terms.Values(e.variantDomain),
		Categories:       item.Terms.Values(domain.DomainProductCat),
		ImageURLs:        resolveImageURLs(item.Meta, attachments),
	}
}

// normalizePrice returns a non-negative decimal string. An empty price is "0";
// an unparsable or negative one is "0" and reported as not ok.
func normalizePrice(raw string) (string, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return "0", true
	}
	if plainDecimalRegex.MatchString(raw) {
		return raw, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return "0", false
	}
	return d.String(), true
}

// resolveImageURLs puts the thumbnail first, then gallery images in listed
// order, skipping unknown ids and URLs already present.
func resolveImageURLs(meta domain.Metadata, attachments domain.AttachmentIndex) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(id string) {
		url, ok := attachments.Resolve(id)
		if !ok || seen[url] {
			return
		}
		seen[url] = true
		urls = append(urls, url)
	}

	add(meta.Resolve(domain.MetaThumbnailID))
	gallery, _ := meta.Get(domain.MetaImageGallery)
	for _, id := range strings.Split(gallery, ",") {
		add(id)
	}
	return urls
}
