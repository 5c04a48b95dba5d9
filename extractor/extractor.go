// Package extractor turns rendered search-results pages into raw
// article records. Each target site owns one SiteExtractor holding only
// its structural query constants; the pipeline around them is shared.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/klipworks/kliping/fetcher"
	"github.com/klipworks/kliping/models"
)

// SiteExtractor is the per-site variability seam. Adding a site means
// supplying a new query set, not forking the pipeline.
type SiteExtractor interface {
	// Site is the identifier used in scrape requests.
	Site() string

	// SearchURL builds the target search URL for a query. The query
	// value is always URL-encoded.
	SearchURL(query string) string

	// WaitSelector is the structural marker the fetcher waits for
	// before handing over the DOM.
	WaitSelector() string

	// MaxRecords caps the records extracted from one page. Zero means
	// page-limited (every matched container).
	MaxRecords() int

	// Extract yields raw records from the rendered page. Malformed
	// elements are skipped individually; one bad element never aborts
	// the batch.
	Extract(page *fetcher.RenderedPage) []models.RawRecord
}

// Registry resolves site identifiers to extractors. The site set is
// fixed at construction and every structural query is validated then.
type Registry struct {
	sites map[string]SiteExtractor
}

// NewRegistry builds the fixed site set. It fails if any extractor
// carries an unparsable selector, so a bad query constant surfaces at
// startup rather than mid-run.
func NewRegistry() (*Registry, error) {
	all := []SiteExtractor{
		newDetik(),
		newGoogleEmbed("kompas", "kompas.com"),
		newGoogleEmbed("tribunnews", "tribunnews.com"),
	}

	sites := make(map[string]SiteExtractor, len(all))
	for _, ex := range all {
		if err := validateSelectors(selectorsOf(ex)...); err != nil {
			return nil, fmt.Errorf("extractor %q: %w", ex.Site(), err)
		}
		sites[ex.Site()] = ex
	}

	return &Registry{sites: sites}, nil
}

// Get returns the extractor for a site identifier.
func (r *Registry) Get(site string) (SiteExtractor, error) {
	ex, ok := r.sites[site]
	if !ok {
		return nil, models.NewScrapeError(
			models.ErrCodeUnknownSite,
			fmt.Sprintf("no extractor registered for site %q", site),
			nil,
		)
	}
	return ex, nil
}

// Sites lists the registered site identifiers.
func (r *Registry) Sites() []string {
	out := make([]string, 0, len(r.sites))
	for site := range r.sites {
		out = append(out, site)
	}
	return out
}

// selectorQueries is implemented by every extractor so the registry can
// validate its query constants at construction.
type selectorQueries interface {
	selectors() []string
}

func selectorsOf(ex SiteExtractor) []string {
	if sq, ok := ex.(selectorQueries); ok {
		return sq.selectors()
	}
	return nil
}

func validateSelectors(sels ...string) error {
	for _, sel := range sels {
		if _, err := cascadia.Parse(sel); err != nil {
			return fmt.Errorf("invalid selector %q: %w", sel, err)
		}
	}
	return nil
}

// parsePage parses the rendered HTML once and returns the document plus
// the base URL relative hrefs resolve against.
func parsePage(page *fetcher.RenderedPage) (*goquery.Document, *url.URL, error) {
	root, err := html.Parse(strings.NewReader(page.HTML))
	if err != nil {
		return nil, nil, fmt.Errorf("parse rendered HTML: %w", err)
	}
	base, err := url.Parse(page.FinalURL)
	if err != nil {
		base = nil
	}
	return goquery.NewDocumentFromNode(root), base, nil
}

// resolveHref absolutizes an extracted href against the page URL.
// Already-absolute links pass through unchanged.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
