package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/migrator/internal/domain"
)

func attachment(id, url, guid string) domain.RawItem {
	return domain.RawItem{PostType: domain.PostTypeAttachment, PostID: id, AttachmentURL: url, GUID: guid}
}

func productItem(id string, meta domain.Metadata, terms ...domain.Term) domain.RawItem {
	return domain.RawItem{
		PostType: domain.PostTypeProduct,
		PostID:   id,
		Title:    "Product " + id,
		Meta:     meta,
		Terms:    terms,
	}
}

func TestResolveAttachments(t *testing.T) {
	items := []domain.RawItem{
		attachment("5", "https://cdn.example.com/a.jpg", "https://example.com/?p=5"),
		attachment("6", "", "https://example.com/b.jpg"),
		attachment("", "https://cdn.example.com/orphan.jpg", ""),
		attachment("7", "  ", ""),
		productItem("8", domain.NewMetadata()),
	}

	index := ResolveAttachments(items)

	assert.Equal(t, domain.AttachmentIndex{
		"5": "https://cdn.example.com/a.jpg",
		"6": "https://example.com/b.jpg",
	}, index)
}

func TestNewProductExtractor(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		e := NewProductExtractor(ExtractorConfig{}, nil)
		assert.Equal(t, "WP", e.skuPrefix)
		assert.Equal(t, "pa_taille", e.variantDomain)
		assert.NotNil(t, e.logger)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		e := NewProductExtractor(ExtractorConfig{SKUPrefix: "SHOP", VariantDomain: "pa_size"}, nil)
		assert.Equal(t, "SHOP", e.skuPrefix)
		assert.Equal(t, "pa_size", e.variantDomain)
	})
}

func TestExtract(t *testing.T) {
	e := NewProductExtractor(ExtractorConfig{}, nil)

	t.Run("falls back to prefixed post id when sku is missing", func(t *testing.T) {
		products := e.Extract([]domain.RawItem{productItem("123", domain.NewMetadata("_price", "10"))}, nil)

		require.Len(t, products, 1)
		assert.Equal(t, "WP-123", products[0].SKU)
	})

	t.Run("blank sku also falls back", func(t *testing.T) {
		products := e.Extract([]domain.RawItem{productItem("9", domain.NewMetadata("_sku", "   "))}, nil)

		require.Len(t, products, 1)
		assert.Equal(t, "WP-9", products[0].SKU)
	})

	t.Run("last metadata entry wins", func(t *testing.T) {
		meta := domain.NewMetadata("_sku", "OLD", "_sku", " NEW ")
		products := e.Extract([]domain.RawItem{productItem("1", meta)}, nil)

		require.Len(t, products, 1)
		assert.Equal(t, "NEW", products[0].SKU)
	})

	t.Run("thumbnail first and duplicates dropped", func(t *testing.T) {
		items := []domain.RawItem{
			attachment("5", "urlA", ""),
			attachment("6", "urlB", ""),
			productItem("1", domain.NewMetadata("_thumbnail_id", "5", "_product_image_gallery", "5, 6,5")),
		}

		products := e.Extract(items, ResolveAttachments(items))

		require.Len(t, products, 1)
		assert.Equal(t, []string{"urlA", "urlB"}, products[0].ImageURLs)
	})

	t.Run("unknown attachment ids are skipped", func(t *testing.T) {
		items := []domain.RawItem{
			attachment("6", "urlB", ""),
			productItem("1", domain.NewMetadata("_thumbnail_id", "404", "_product_image_gallery", "6,,77")),
		}

		products := e.Extract(items, ResolveAttachments(items))

		require.Len(t, products, 1)
		assert.Equal(t, []string{"urlB"}, products[0].ImageURLs)
	})

	t.Run("detects variable product sizes", func(t *testing.T) {
		item := productItem("1", domain.NewMetadata("_sku", "TEE"),
			domain.Term{Domain: "product_type", Nicename: "variable", Value: "variable"},
			domain.Term{Domain: "pa_taille", Nicename: "s", Value: "S"},
			domain.Term{Domain: "product_cat", Nicename: "shirts", Value: "Shirts"},
			domain.Term{Domain: "pa_taille", Nicename: "m", Value: "M"},
		)

		products := e.Extract([]domain.RawItem{item}, nil)

		require.Len(t, products, 1)
		p := products[0]
		assert.True(t, p.IsVariable)
		assert.Equal(t, []string{"S", "M"}, p.Sizes)
		assert.Equal(t, []string{"Shirts"}, p.Categories)
		assert.True(t, p.HasVariants())
	})

	t.Run("duplicate sizes are preserved", func(t *testing.T) {
		item := productItem("1", domain.NewMetadata(),
			domain.Term{Domain: "product_type", Value: "variable"},
			domain.Term{Domain: "pa_taille", Value: "S"},
			domain.Term{Domain: "pa_taille", Value: "S"},
		)

		products := e.Extract([]domain.RawItem{item}, nil)

		require.Len(t, products, 1)
		assert.Equal(t, []string{"S", "S"}, products[0].Sizes)
	})

	t.Run("simple product has no variants", func(t *testing.T) {
		item := productItem("1", domain.NewMetadata(),
			domain.Term{Domain: "product_type", Value: "simple"},
			domain.Term{Domain: "pa_taille", Value: "S"},
		)

		products := e.Extract([]domain.RawItem{item}, nil)

		require.Len(t, products, 1)
		assert.False(t, products[0].IsVariable)
		assert.False(t, products[0].HasVariants())
	})

	t.Run("trims text fields", func(t *testing.T) {
		item := productItem("1", domain.NewMetadata("_yoast_wpseo_metadesc", "  meta  "))
		item.Title = "  Tee  "
		item.Content = "\n<p>Body</p>\n"
		item.Excerpt = "   "

		products := e.Extract([]domain.RawItem{item}, nil)

		require.Len(t, products, 1)
		p := products[0]
		assert.Equal(t, "Tee", p.Title)
		assert.Equal(t, "<p>Body</p>", p.Description)
		assert.Equal(t, "", p.ShortDescription)
		assert.Equal(t, "meta", p.MetaDescription)
	})

	t.Run("keeps export order and ignores other post types", func(t *testing.T) {
		items := []domain.RawItem{
			productItem("2", domain.NewMetadata()),
			{PostType: "page", PostID: "3"},
			attachment("4", "url", ""),
			productItem("1", domain.NewMetadata()),
		}

		products := e.Extract(items, nil)

		require.Len(t, products, 2)
		assert.Equal(t, "WP-2", products[0].SKU)
		assert.Equal(t, "WP-1", products[1].SKU)
	})

	t.Run("uses configured conventions", func(t *testing.T) {
		custom := NewProductExtractor(ExtractorConfig{SKUPrefix: "SHOP", VariantDomain: "pa_size"}, nil)
		item := productItem("7", domain.NewMetadata(),
			domain.Term{Domain: "pa_size", Value: "XL"},
			domain.Term{Domain: "pa_taille", Value: "S"},
		)

		products := custom.Extract([]domain.RawItem{item}, nil)

		require.Len(t, products, 1)
		assert.Equal(t, "SHOP-7", products[0].SKU)
		assert.Equal(t, []string{"XL"}, products[0].Sizes)
	})
}

func TestExtractPrice(t *testing.T) {
	e := NewProductExtractor(ExtractorConfig{}, nil)

	tests := []struct {
		name string
		meta domain.Metadata
		want string
	}{
		{"price", domain.NewMetadata("_price", "19.90", "_regular_price", "25"), "19.90"},
		{"regular price fallback", domain.NewMetadata("_price", " ", "_regular_price", "25"), "25"},
		{"missing", domain.NewMetadata(), "0"},
		{"comma separator", domain.NewMetadata("_price", "12,50"), "12.50"},
		{"negative", domain.NewMetadata("_price", "-3"), "0"},
		{"garbage", domain.NewMetadata("_price", "free"), "0"},
		{"scientific", domain.NewMetadata("_price", "1e2"), "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := e.Extract([]domain.RawItem{productItem("1", tt.meta)}, nil)
			require.Len(t, products, 1)
			assert.Equal(t, tt.want, products[0].Price)
		})
	}
}
