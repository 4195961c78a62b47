// Package prestashop is a write-only client for the PrestaShop webservice.
package prestashop

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/catalogbridge/migrator/internal/domain"
	"github.com/catalogbridge/migrator/internal/infrastructure/metrics"
)

// maxResponseSize bounds how much of a response body is read (10MB for API
// responses, media is allowed more)
const (
	maxResponseSize = 10 * 1024 * 1024
	maxMediaSize    = 50 * 1024 * 1024
	userAgent       = "catalog-migrator/1.0"

	// DefaultPriceImpact is sent when a combination has no price impact
	DefaultPriceImpact = "0.000000"
	defaultMediaType   = "image/jpeg"
)

// Options configures the fixed ids embedded in every document
type Options struct {
	LangID            int64
	ShopID            int64
	TaxRulesGroupID   int64
	HomeCategoryID    int64
	RequestsPerSecond float64 // <= 0 disables rate limiting
	Timeout           time.Duration
	Logger            *zap.Logger
	Metrics           *metrics.Recorder
}

// Client handles communication with the PrestaShop webservice
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	opts        Options
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	metrics     *metrics.Recorder
}

// NewClient creates a new PrestaShop client
func NewClient(apiKey, baseURL string, opts Options) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		opts:        opts,
		rateLimiter: limiter,
		logger:      log.Named("prestashop"),
		metrics:     opts.Metrics,
	}
}

// APIError is a non-success answer from the webservice
type APIError struct {
	Operation  string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed (%d) %s\n%s", e.Operation, e.StatusCode, e.URL, e.Body)
}

func (e *APIError) Unwrap() error {
	return domain.ErrPlatformRequestFailed
}

// CreateProduct creates a product and returns its id
func (c *Client) CreateProduct(ctx context.Context, draft domain.ProductDraft) (int64, error) {
	doc := document{Product: c.productDocument(draft)}
	return c.create(ctx, "create_product", "/api/products", "product", doc)
}

// CreateOptionGroup creates a non-color select option group
func (c *Client) CreateOptionGroup(ctx context.Context, name string) (int64, error) {
	doc := document{ProductOption: &optionGroupDocument{
		IsColorGroup: 0,
		GroupType:    cdata{"select"},
		Name:         c.localized(name),
		PublicName:   c.localized(name),
	}}
	return c.create(ctx, "create_option_group", "/api/product_options", "product_option", doc)
}

// CreateOptionValue creates a value inside groupID
func (c *Client) CreateOptionValue(ctx context.Context, groupID int64, value string) (int64, error) {
	doc := document{ProductOptionValue: &optionValueDocument{
		GroupID: groupID,
		Name:    c.localized(value),
	}}
	return c.create(ctx, "create_option_value", "/api/product_option_values", "product_option_value", doc)
}

// CreateCombination links a product to one option value
func (c *Client) CreateCombination(ctx context.Context, draft domain.CombinationDraft) (int64, error) {
	priceImpact := strings.TrimSpace(draft.PriceImpact)
	if priceImpact == "" {
		priceImpact = DefaultPriceImpact
	}
	doc := document{Combination: &combinationDocument{
		ProductID: draft.ProductID,
		Reference: cdata{sanitize(draft.Reference)},
		Price:     priceImpact,
		Associations: combinationAssociations{
			OptionValues: optionValueRefs{
				NodeType: "product_option_value",
				API:      "product_option_values",
				Values:   []idRef{{ID: draft.OptionValueID}},
			},
		},
	}}
	return c.create(ctx, "create_combination", "/api/combinations", "combination", doc)
}

// UploadImage attaches an image to a product. No id is returned by the webservice.
func (c *Client) UploadImage(ctx context.Context, productID int64, media domain.Media, filename string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", mediaType(media.ContentType))
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(media.Data); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	_, err = c.send(ctx, "upload_image", http.MethodPost, fmt.Sprintf("/api/images/products/%d", productID), mw.FormDataContentType(), &body)
	return err
}

// FetchMedia downloads an image from the export's media host
func (c *Client) FetchMedia(ctx context.Context, url string) (domain.Media, error) {
	start := time.Now()
	media, err := c.fetchMedia(ctx, url)
	c.metrics.RemoteCall("fetch_media", err, time.Since(start))
	return media, err
}

func (c *Client) fetchMedia(ctx context.Context, url string) (domain.Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Media{}, fmt.Errorf("%w: %s: %v", domain.ErrMediaFetchFailed, url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Media{}, fmt.Errorf("%w: %s: %v", domain.ErrMediaFetchFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Media{}, fmt.Errorf("%w: %s => %d", domain.ErrMediaFetchFailed, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return domain.Media{}, fmt.Errorf("%w: %s: %v", domain.ErrMediaFetchFailed, url, err)
	}

	return domain.Media{Data: data, ContentType: mediaType(resp.Header.Get("Content-Type"))}, nil
}

// create posts an XML document and extracts the id of the created resource
func (c *Client) create(ctx context.Context, op, path, resource string, doc document) (int64, error) {
	payload, err := xml.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to encode document: %w", op, err)
	}
	body := append([]byte(xml.Header), payload...)

	respBody, err := c.send(ctx, op, http.MethodPost, path, "application/xml", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	id, err := parseCreatedID(respBody, resource)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug("resource created", zap.String("operation", op), zap.Int64("id", id))
	return id, nil
}

// send executes an authenticated webservice call, failing on any non-2xx status
func (c *Client) send(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	start := time.Now()
	respBody, err := c.doRequest(ctx, op, method, path, contentType, body)
	c.metrics.RemoteCall(op, err, time.Since(start))
	return respBody, err
}

func (c *Client) doRequest(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrPlatformRequestFailed, op, reqURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: reading response: %v", domain.ErrPlatformRequestFailed, op, reqURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("request rejected",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, &APIError{
			Operation:  op,
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// mediaType strips parameters from a Content-Type, defaulting to JPEG
func mediaType(contentType string) string {
	if contentType == "" {
		return defaultMediaType
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" {
		return defaultMediaType
	}
	return mt
}
