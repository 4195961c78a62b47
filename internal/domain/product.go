package domain

// Product is the normalized catalog entry extracted from a product item
type Product struct {
	Title            string   `json:"title"`
	SKU              string   `json:"sku"`
	Price            string   `json:"price"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription"`
	MetaDescription  string   `json:"metaDescription"`
	IsVariable       bool     `json:"isVariable"`
	Sizes            []string `json:"sizes"`      // variant axis values, duplicates kept
	Categories       []string `json:"categories"` // product_cat values, informational only
	ImageURLs        []string `json:"imageUrls"`  // thumbnail first, no duplicates
}

// HasVariants reports whether combinations must be created for the product
func (p Product) HasVariants() bool {
	return p.IsVariable && len(p.Sizes) > 0
}

// PrestaShop product types
const (
	ProductTypeStandard     = "standard"
	ProductTypeCombinations = "combinations"
)

// ProductDraft is the payload of a product creation call
type ProductDraft struct {
	Type             string
	Name             string
	Reference        string
	Price            string
	Description      string
	ShortDescription string
	MetaDescription  string
	CategoryIDs      []int64 // first entry is the default category
}

// OptionGroup is the shared variant axis on the platform
type OptionGroup struct {
	ID   int64
	Name string
}

// OptionValue is one value of an option group
type OptionValue struct {
	ID      int64
	GroupID int64
	Value   string
}

// CombinationDraft is the payload of a combination creation call
type CombinationDraft struct {
	ProductID     int64
	OptionValueID int64
	Reference     string
	PriceImpact   string
}

// Media is a downloaded image
type Media struct {
	Data        []byte
	ContentType string
}
