package prestashop

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/catalogbridge/migrator/internal/domain"
)

// document is the <prestashop> envelope; exactly one resource is set
type document struct {
	XMLName            xml.Name             `xml:"prestashop"`
	Product            *productDocument     `xml:"product,omitempty"`
	ProductOption      *optionGroupDocument `xml:"product_option,omitempty"`
	ProductOptionValue *optionValueDocument `xml:"product_option_value,omitempty"`
	Combination        *combinationDocument `xml:"combination,omitempty"`
}

// cdata marshals its value inside a CDATA section. encoding/xml splits any
// "]]>" in the value so the section cannot be closed early.
type cdata struct {
	Value string `xml:",cdata"`
}

type languageText struct {
	ID    int64  `xml:"id,attr"`
	Value string `xml:",cdata"`
}

type localizedText struct {
	Languages []languageText `xml:"language"`
}

type idRef struct {
	ID int64 `xml:"id"`
}

type productDocument struct {
	ShopDefault      int64               `xml:"id_shop_default"`
	CategoryDefault  int64               `xml:"id_category_default"`
	TaxRulesGroup    int64               `xml:"id_tax_rules_group"`
	ProductType      cdata               `xml:"product_type"`
	Type             int                 `xml:"type"`
	Active           int                 `xml:"active"`
	Reference        cdata               `xml:"reference"`
	Price            cdata               `xml:"price"`
	MetaDescription  localizedText       `xml:"meta_description"`
	Name             localizedText       `xml:"name"`
	LinkRewrite      localizedText       `xml:"link_rewrite"`
	Description      localizedText       `xml:"description"`
	DescriptionShort localizedText       `xml:"description_short"`
	Associations     productAssociations `xml:"associations"`
}

type productAssociations struct {
	Categories categoryRefs `xml:"categories"`
}

type categoryRefs struct {
	Categories []idRef `xml:"category"`
}

type optionGroupDocument struct {
	IsColorGroup int           `xml:"is_color_group"`
	GroupType    cdata         `xml:"group_type"`
	Name         localizedText `xml:"name"`
	PublicName   localizedText `xml:"public_name"`
}

type optionValueDocument struct {
	GroupID int64         `xml:"id_attribute_group"`
	Name    localizedText `xml:"name"`
}

type combinationDocument struct {
	ProductID    int64                   `xml:"id_product"`
	Reference    cdata                   `xml:"reference"`
	Price        string                  `xml:"price"`
	Associations combinationAssociations `xml:"associations"`
}

type combinationAssociations struct {
	OptionValues optionValueRefs `xml:"product_option_values"`
}

type optionValueRefs struct {
	NodeType string  `xml:"nodeType,attr"`
	API      string  `xml:"api,attr"`
	Values   []idRef `xml:"product_option_value"`
}

func (c *Client) productDocument(draft domain.ProductDraft) *productDocument {
	categoryIDs := draft.CategoryIDs
	if len(categoryIDs) == 0 {
		categoryIDs = []int64{c.opts.HomeCategoryID}
	}
	refs := make([]idRef, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		refs = append(refs, idRef{ID: id})
	}

	return &productDocument{
		ShopDefault:      c.opts.ShopID,
		CategoryDefault:  categoryIDs[0],
		TaxRulesGroup:    c.opts.TaxRulesGroupID,
		ProductType:      cdata{draft.Type},
		Type:             1,
		Active:           1,
		Reference:        cdata{sanitize(draft.Reference)},
		Price:            cdata{sanitize(draft.Price)},
		MetaDescription:  c.localized(draft.MetaDescription),
		Name:             c.localized(draft.Name),
		LinkRewrite:      c.localized(Slugify(draft.Name)),
		Description:      c.localized(draft.Description),
		DescriptionShort: c.localized(draft.ShortDescription),
		Associations: productAssociations{
			Categories: categoryRefs{Categories: refs},
		},
	}
}

func (c *Client) localized(text string) localizedText {
	return localizedText{Languages: []languageText{{ID: c.opts.LangID, Value: sanitize(text)}}}
}

// sanitize drops invalid UTF-8 and characters XML 1.0 cannot carry, even in CDATA
func sanitize(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, func(r rune) bool { return !isXMLChar(r) }) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToValidUTF8(s, "") {
		if isXMLChar(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

type createdResource struct {
	XMLName xml.Name
	ID      string `xml:"id"`
}

type createdResponse struct {
	Resources []createdResource `xml:",any"`
}

// parseCreatedID reads <prestashop><resource><id> from a create response
func parseCreatedID(body []byte, resource string) (int64, error) {
	var resp createdResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: unparsable response: %v", domain.ErrMissingResourceID, err)
	}

	for _, r := range resp.Resources {
		if r.XMLName.Local != resource {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%w: %s id %q", domain.ErrMissingResourceID, resource, r.ID)
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: no %s element", domain.ErrMissingResourceID, resource)
}
