package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/klipworks/kliping/fetcher"
	"github.com/klipworks/kliping/models"
)

// detik extracts from detik.com's own search listing. The listing is a
// flat article list, so extraction is page-limited rather than capped.
type detik struct{}

const (
	detikContainerSel = "article.list-content__item"
	detikTitleSel     = "h3.media__title a"
	detikDescSel      = "div.media__desc"
)

func newDetik() *detik { return &detik{} }

func (d *detik) Site() string { return "detik" }

func (d *detik) SearchURL(query string) string {
	return "https://www.detik.com/search/searchall?query=" +
		url.QueryEscape(query) + "&siteid=2&source_kanal=true"
}

func (d *detik) WaitSelector() string { return detikContainerSel }

func (d *detik) MaxRecords() int { return 0 }

func (d *detik) Extract(page *fetcher.RenderedPage) []models.RawRecord {
	doc, base, err := parsePage(page)
	if err != nil {
		slog.Warn("detik: page did not parse", "error", err)
		return nil
	}

	var records []models.RawRecord
	doc.Find(detikContainerSel).Each(func(i int, s *goquery.Selection) {
		anchor := s.Find(detikTitleSel).First()
		href, ok := anchor.Attr("href")
		title := anchor.Text()
		if !ok || strings.TrimSpace(href) == "" || strings.TrimSpace(title) == "" {
			slog.Warn("detik: skipping malformed result element", "index", i)
			return
		}

		records = append(records, models.RawRecord{
			Title:       title,
			URL:         resolveHref(base, href),
			Description: s.Find(detikDescSel).First().Text(),
		})
	})

	return records
}

func (d *detik) selectors() []string {
	return []string{detikContainerSel, detikTitleSel, detikDescSel}
}
