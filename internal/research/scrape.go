// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// Page is a fetched web page normalized to plain text.
type Page struct {
	URL       string
	Title     string
	Content   string
	Citations []types.Citation
}

// PageFetcher retrieves a page and strips it down to readable content:
// chrome elements removed, title pulled from the first h1 (falling back
// to <title>), reference links collected as citations.
type PageFetcher struct {
	UserAgent string
	MaxChars  int
	Client    *http.Client
}

// chromeSelector matches the elements stripped before text extraction.
const chromeSelector = "script, style, nav, footer, header, aside"

const maxPageCitations = 20

// Fetch downloads and normalizes one page.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	doc.Find(chromeSelector).Remove()

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	content := collapseWhitespace(doc.Find("body").Text())
	maxChars := f.MaxChars
	if maxChars <= 0 {
		maxChars = 8000
	}
	if len(content) > maxChars {
		content = content[:maxChars]
	}

	var citations []types.Citation
	doc.Find("cite, a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !strings.Contains(strings.ToLower(class), "reference") {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if len(text) > 200 {
			text = text[:200]
		}
		href, _ := s.Attr("href")
		citations = append(citations, types.Citation{
			ID:     fmt.Sprintf("ref-%d", len(citations)),
			Title:  text,
			Source: pageURL,
			URL:    href,
		})
		return len(citations) < maxPageCitations
	})

	return &Page{
		URL:       pageURL,
		Title:     title,
		Content:   content,
		Citations: citations,
	}, nil
}

// collapseWhitespace squeezes runs of whitespace into single spaces while
// keeping paragraph breaks.
func collapseWhitespace(s string) string {
	var paragraphs []string
	for _, para := range strings.Split(s, "\n\n") {
		fields := strings.Fields(para)
		if len(fields) == 0 {
			continue
		}
		paragraphs = append(paragraphs, strings.Join(fields, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}
