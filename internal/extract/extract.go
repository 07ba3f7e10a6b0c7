// Package extract parses rendered HTML into typed records and discovers
// same-origin links for the crawl frontier. Extraction is a pure function
// of the document: the scheduler consumes the returned records and links
// synchronously, nothing is emitted through callbacks.
package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/quarrylabs/quarry/internal/record"
)

// socialPlatforms is the fixed allow-list of platform domains that turn an
// anchor into a social_link record. Matching is by host suffix, so
// www.twitter.com and twitter.com both qualify.
var socialPlatforms = map[string]string{
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"linkedin.com":  "linkedin",
}

// Result carries everything pulled from one rendered page.
type Result struct {
	Records []record.Record
	Links   []string
	// Warnings lists non-fatal extraction problems (bad selectors,
	// malformed hrefs). They surface in the session diagnostics.
	Warnings []string
}

// Extractor applies the builtin heuristics plus caller-supplied selectors
// to rendered documents.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract parses the rendered HTML and returns typed records plus the
// same-origin links discovered on the page. visited is a read-only
// snapshot used to pre-filter links; the scheduler re-checks membership
// before enqueueing. A non-nil error means the document itself could not
// be parsed at all.
func (e *Extractor) Extract(html, pageURL string, selectors []string, visited map[string]struct{}) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("extract: parse document: %w", err)
	}

	res := &Result{}

	e.extractBuiltins(doc, pageURL, res)
	e.extractCustom(doc, pageURL, selectors, res)
	e.discoverLinks(doc, pageURL, visited, res)

	return res, nil
}

func (e *Extractor) extractBuiltins(doc *goquery.Document, pageURL string, res *Result) {
	// Headlines
	doc.Find("h1,h2").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			res.Records = append(res.Records, record.Headline(text, pageURL))
		}
	})

	// Price-marked elements
	doc.Find(".price,[data-price]").Each(func(_ int, s *goquery.Selection) {
		if value := strings.TrimSpace(s.Text()); value != "" {
			res.Records = append(res.Records, record.Price(value, pageURL))
		}
	})

	// Contact links
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if addr := strings.TrimPrefix(href, "mailto:"); addr != "" {
			res.Records = append(res.Records, record.Email(addr, pageURL))
		}
	})
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if num := strings.TrimPrefix(href, "tel:"); num != "" {
			res.Records = append(res.Records, record.Phone(num, pageURL))
		}
	})

	// Social links against the platform allow-list
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Host == "" {
			return
		}
		if platform, ok := matchPlatform(u.Hostname()); ok {
			res.Records = append(res.Records, record.Social(href, platform, pageURL))
		}
	})
}

func (e *Extractor) extractCustom(doc *goquery.Document, pageURL string, selectors []string, res *Result) {
	for _, sel := range selectors {
		matcher, err := cascadia.Compile(sel)
		if err != nil {
			// Bad selector skips that rule for this page only.
			e.logger.Warn("invalid custom selector skipped", "selector", sel, "err", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("invalid selector %q: %v", sel, err))
			continue
		}

		doc.FindMatcher(matcher).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				res.Records = append(res.Records, record.Custom(sel, text, pageURL))
			}
		})
	}
}

func (e *Extractor) discoverLinks(doc *goquery.Document, pageURL string, visited map[string]struct{}, res *Result) {
	base, err := url.Parse(pageURL)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unparseable page URL %q: %v", pageURL, err))
		return
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		u, err := url.Parse(href)
		if err != nil {
			e.logger.Debug("malformed href skipped", "href", href, "page", pageURL)
			res.Warnings = append(res.Warnings, fmt.Sprintf("malformed href %q", href))
			return
		}

		resolved := base.ResolveReference(u)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		// Same origin tree only: scheme+host+port must match the page.
		if resolved.Scheme != base.Scheme || resolved.Host != base.Host {
			return
		}

		resolved.Fragment = ""
		link := resolved.String()

		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}

		if _, ok := visited[link]; ok {
			return
		}
		res.Links = append(res.Links, link)
	})
}

// matchPlatform reports whether the host belongs to an allow-listed social
// platform, and if so which one.
func matchPlatform(host string) (string, bool) {
	host = strings.ToLower(host)
	for domain, platform := range socialPlatforms {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return platform, true
		}
	}
	return "", false
}
