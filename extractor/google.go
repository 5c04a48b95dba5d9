package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/klipworks/kliping/fetcher"
	"github.com/klipworks/kliping/models"
)

// googleEmbed covers sites whose own search is unusable for structural
// extraction: the query runs through a Google search scoped to the
// site's domain instead. SERP pages are heavy and repetitive, so
// extraction is capped at the first few organic results.
type googleEmbed struct {
	site   string
	domain string
}

const (
	googleResultSel  = "div.g"
	googleTitleSel   = "h3"
	googleAnchorSel  = "a[href]"
	googleSnippetSel = "div.VwiC3b"

	googleEmbedCap = 3
)

func newGoogleEmbed(site, domain string) *googleEmbed {
	return &googleEmbed{site: site, domain: domain}
}

func (g *googleEmbed) Site() string { return g.site }

func (g *googleEmbed) SearchURL(query string) string {
	return "https://www.google.com/search?q=" +
		url.QueryEscape("site:"+g.domain+" "+query)
}

func (g *googleEmbed) WaitSelector() string { return googleResultSel }

func (g *googleEmbed) MaxRecords() int { return googleEmbedCap }

func (g *googleEmbed) Extract(page *fetcher.RenderedPage) []models.RawRecord {
	doc, base, err := parsePage(page)
	if err != nil {
		slog.Warn("google embed: page did not parse", "site", g.site, "error", err)
		return nil
	}

	var records []models.RawRecord
	doc.Find(googleResultSel).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(records) >= googleEmbedCap {
			return false
		}

		title := s.Find(googleTitleSel).First().Text()
		href, ok := s.Find(googleAnchorSel).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" || strings.TrimSpace(title) == "" {
			slog.Warn("google embed: skipping malformed result element",
				"site", g.site, "index", i)
			return true
		}

		records = append(records, models.RawRecord{
			Title:       title,
			URL:         resolveHref(base, href),
			Description: s.Find(googleSnippetSel).First().Text(),
		})
		return true
	})

	return records
}

func (g *googleEmbed) selectors() []string {
	return []string{googleResultSel, googleTitleSel, googleAnchorSel, googleSnippetSel}
}
