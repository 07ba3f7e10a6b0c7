package record

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the variants of an extracted record.
type Kind string

const (
	KindHeadline   Kind = "headline"
	KindPrice      Kind = "price"
	KindEmail      Kind = "email"
	KindPhone      Kind = "phone"
	KindSocialLink Kind = "social_link"
	KindCustom     Kind = "custom"
)

// Kinds lists every defined record kind.
var Kinds = []Kind{KindHeadline, KindPrice, KindEmail, KindPhone, KindSocialLink, KindCustom}

// Bucket is the coarse logical data type a record kind maps into.
// Callers filter on buckets, not on individual kinds.
type Bucket string

const (
	BucketText       Bucket = "text"
	BucketStructured Bucket = "structured"
	BucketLinks      Bucket = "links"
)

// kindBuckets maps every record kind to its logical bucket. Every Kind
// constant must have an entry here; BucketFor panics otherwise so a
// missing mapping is caught by the package tests, not at crawl time.
var kindBuckets = map[Kind]Bucket{
	KindHeadline:   BucketText,
	KindPrice:      BucketStructured,
	KindEmail:      BucketStructured,
	KindPhone:      BucketStructured,
	KindSocialLink: BucketLinks,
	KindCustom:     BucketText,
}

// BucketFor returns the logical bucket for a record kind.
func BucketFor(k Kind) Bucket {
	b, ok := kindBuckets[k]
	if !ok {
		panic("record: kind without bucket mapping: " + string(k))
	}
	return b
}

// Record is a single datum extracted from a rendered page. Records are
// immutable once produced; the JSON field names match the wire format of
// the scrape API.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Text      string    `json:"text,omitempty"`
	Value     string    `json:"value,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	Selector  string    `json:"selector,omitempty"`
	PageURL   string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Primary returns the record's primary content: Text for textual kinds,
// Value otherwise. Length-based filtering operates on this.
func (r Record) Primary() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Value
}

func newRecord(kind Kind, pageURL string) Record {
	return Record{
		ID:        uuid.New().String(),
		Kind:      kind,
		PageURL:   pageURL,
		CreatedAt: time.Now().UTC(),
	}
}

// Headline builds a headline record from an h1/h2 element's text.
func Headline(text, pageURL string) Record {
	r := newRecord(KindHeadline, pageURL)
	r.Text = text
	return r
}

// Price builds a price record from a price-marked element.
func Price(value, pageURL string) Record {
	r := newRecord(KindPrice, pageURL)
	r.Value = value
	return r
}

// Email builds an email record from a mailto: link.
func Email(address, pageURL string) Record {
	r := newRecord(KindEmail, pageURL)
	r.Value = address
	return r
}

// Phone builds a phone record from a tel: link.
func Phone(number, pageURL string) Record {
	r := newRecord(KindPhone, pageURL)
	r.Value = number
	return r
}

// Social builds a social-link record for an allow-listed platform.
func Social(href, platform, pageURL string) Record {
	r := newRecord(KindSocialLink, pageURL)
	r.Value = href
	r.Platform = platform
	return r
}

// Custom builds a record for a caller-supplied selector match. The
// selector string itself is the kind discriminator within KindCustom.
func Custom(selector, text, pageURL string) Record {
	r := newRecord(KindCustom, pageURL)
	r.Selector = selector
	r.Text = text
	return r
}
