// Package wxr reads WordPress eXtended RSS exports into raw items.
package wxr

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/catalogbridge/migrator/internal/domain"
)

// ParseFile opens and parses the export at path
func ParseFile(path string) ([]domain.RawItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExportUnreadable, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads every channel item of the export in document order. The whole
// document must be well formed; nothing is returned on error.
func Parse(r io.Reader) ([]domain.RawItem, error) {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var (
		items      []domain.RawItem
		inChannel  bool
		sawChannel bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrExportUnreadable, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "channel":
				inChannel, sawChannel = true, true
			case "item":
				if !inChannel {
					if err := dec.Skip(); err != nil {
						return nil, fmt.Errorf("%w: %v", domain.ErrExportUnreadable, err)
					}
					continue
				}
				item, err := decodeItem(dec)
				if err != nil {
					return nil, fmt.Errorf("%w: item %d: %v", domain.ErrExportUnreadable, len(items)+1, err)
				}
				items = append(items, item)
			}
		case xml.EndElement:
			if t.Name.Local == "channel" {
				inChannel = false
			}
		}
	}

	if !sawChannel {
		return nil, fmt.Errorf("%w: no rss channel found", domain.ErrExportUnreadable)
	}
	return items, nil
}

// decodeItem consumes tokens up to and including the closing </item>
func decodeItem(dec *xml.Decoder) (domain.RawItem, error) {
	var item domain.RawItem
	for {
		tok, err := dec.Token()
		if err != nil {
			return item, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := decodeField(dec, t, &item); err != nil {
				return item, err
			}
		case xml.EndElement:
			return item, nil
		}
	}
}

type postMeta struct {
	Key   string `xml:"meta_key"`
	Value string `xml:"meta_value"`
}

type category struct {
	Domain   string `xml:"domain,attr"`
	Nicename string `xml:"nicename,attr"`
	Value    string `xml:",chardata"`
}

func decodeField(dec *xml.Decoder, el xml.StartElement, item *domain.RawItem) error {
	switch el.Name.Local {
	case "title":
		return decodeText(dec, el, &item.Title)
	case "guid":
		return decodeTrimmed(dec, el, &item.GUID)
	case "encoded":
		// content:encoded and excerpt:encoded share a local name
		if isExcerptSpace(el.Name.Space) {
			return decodeText(dec, el, &item.Excerpt)
		}
		return decodeText(dec, el, &item.Content)
	case "post_id":
		return decodeTrimmed(dec, el, &item.PostID)
	case "post_type":
		return decodeTrimmed(dec, el, &item.PostType)
	case "attachment_url":
		return decodeTrimmed(dec, el, &item.AttachmentURL)
	case "postmeta":
		var m postMeta
		if err := dec.DecodeElement(&m, &el); err != nil {
			return err
		}
		item.Meta.Set(strings.TrimSpace(m.Key), m.Value)
		return nil
	case "category":
		var c category
		if err := dec.DecodeElement(&c, &el); err != nil {
			return err
		}
		item.Terms = append(item.Terms, domain.Term{
			Domain:   c.Domain,
			Nicename: c.Nicename,
			Value:    strings.TrimSpace(c.Value),
		})
		return nil
	default:
		return dec.Skip()
	}
}

// decodeText reads the character data of el; CDATA sections and plain text
// are returned the same way.
func decodeText(dec *xml.Decoder, el xml.StartElement, dst *string) error {
	var s string
	if err := dec.DecodeElement(&s, &el); err != nil {
		return err
	}
	*dst = s
	return nil
}

func decodeTrimmed(dec *xml.Decoder, el xml.StartElement, dst *string) error {
	if err := decodeText(dec, el, dst); err != nil {
		return err
	}
	*dst = strings.TrimSpace(*dst)
	return nil
}

// isExcerptSpace matches both the resolved namespace URL
// (http://wordpress.org/export/1.2/excerpt/) and an undeclared "excerpt" prefix.
func isExcerptSpace(space string) bool {
	return strings.Contains(space, "excerpt")
}
