// Package pipeline applies caller-supplied filters to the record set a
// crawl session produced. Every stage is a pure per-record predicate, so
// the stages run in one pass while still tallying drops per stage.
package pipeline

import (
	"strings"

	"github.com/quarrylabs/quarry/internal/record"
)

// navigationKeywords drops records whose whole text is boilerplate chrome
// rather than content. Matching is case-insensitive on the trimmed text.
var navigationKeywords = map[string]struct{}{
	"home":       {},
	"about":      {},
	"contact":    {},
	"login":      {},
	"signup":     {},
	"menu":       {},
	"navigation": {},
}

// Filter is the post-crawl filter specification.
type Filter struct {
	// Buckets enables logical data-type buckets. Nil means all buckets
	// pass; a non-nil map drops records whose bucket maps to false or is
	// absent.
	Buckets map[record.Bucket]bool
	// MinTextLength drops records whose primary text is shorter, in
	// bytes, than this value.
	MinTextLength int
	// ExcludeNavigation drops records matching navigationKeywords.
	ExcludeNavigation bool
	// IncludeHidden is accepted for request compatibility. Visibility is
	// not tracked during extraction, so it has no effect on output.
	IncludeHidden bool
}

// StageCounts reports how many records each filter stage dropped.
type StageCounts struct {
	ByType       int `json:"byType"`
	ByLength     int `json:"byLength"`
	ByNavigation int `json:"byNavigation"`
}

// Apply filters records and reports per-stage drop tallies. The input slice
// is not modified.
func Apply(records []record.Record, f Filter) ([]record.Record, StageCounts) {
	var counts StageCounts
	out := make([]record.Record, 0, len(records))

	for _, r := range records {
		if f.Buckets != nil && !f.Buckets[record.BucketFor(r.Kind)] {
			counts.ByType++
			continue
		}
		if len(r.Primary()) < f.MinTextLength {
			counts.ByLength++
			continue
		}
		if f.ExcludeNavigation && isNavigation(r.Primary()) {
			counts.ByNavigation++
			continue
		}
		out = append(out, r)
	}

	return out, counts
}

func isNavigation(text string) bool {
	_, ok := navigationKeywords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
