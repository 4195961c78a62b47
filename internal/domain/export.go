package domain

import "strings"

// Post types found in a WXR export
const (
	PostTypeAttachment = "attachment"
	PostTypeProduct    = "product"
)

// Taxonomy domains and meta keys used by WooCommerce exports
const (
	DomainProductType = "product_type"
	DomainProductCat  = "product_cat"

	ProductTypeVariable = "variable"

	MetaSKU           = "_sku"
	MetaPrice         = "_price"
	MetaRegularPrice  = "_regular_price"
	MetaThumbnailID   = "_thumbnail_id"
	MetaImageGallery  = "_product_image_gallery"
	MetaYoastMetaDesc = "_yoast_wpseo_metadesc"
)

// RawItem is one <item> of the export channel
type RawItem struct {
	PostType      string
	PostID        string
	Title         string
	Content       string
	Excerpt       string
	GUID          string
	AttachmentURL string
	Meta          Metadata
	Terms         Terms
}

// Metadata is the flattened postmeta bag of an item. Setting a key that is
// already present replaces its value, so the last entry in export order wins.
type Metadata struct {
	values map[string]string
	keys   []string
}

// NewMetadata builds a bag from key/value pairs given in export order
func NewMetadata(pairs ...string) Metadata {
	var m Metadata
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set stores value under key, overwriting any earlier value
func (m *Metadata) Set(key, value string) {
	if key == "" {
		return
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Resolve returns the first non-blank value among keys, trimmed.
func (m Metadata) Resolve(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(m.values[k]); v != "" {
			return v
		}
	}
	return ""
}

// Keys returns the keys in first-seen order
func (m Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of distinct keys
func (m Metadata) Len() int {
	return len(m.keys)
}

// Term is a <category> child of an item
type Term struct {
	Domain   string
	Nicename string
	Value    string
}

// Terms is the ordered taxonomy list of an item. The same list carries the
// product type flag, the variant axis and the shop categories.
type Terms []Term

// Values returns the non-empty values of the given domain in occurrence order
func (ts Terms) Values(domain string) []string {
	var out []string
	for _, t := range ts {
		if t.Domain == domain && t.Value != "" {
			out = append(out, t.Value)
		}
	}
	return out
}

// Has reports whether a term with the given domain and value exists
func (ts Terms) Has(domain, value string) bool {
	for _, t := range ts {
		if t.Domain == domain && t.Value == value {
			return true
		}
	}
	return false
}

// AttachmentIndex maps attachment post ids to media URLs
type AttachmentIndex map[string]string

// Resolve looks up a trimmed attachment id
func (a AttachmentIndex) Resolve(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	url, ok := a[id]
	return url, ok
}
