package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	scrapeTimeout   = 30 * time.Second
	scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// webPageSize is the pseudo-page size for scraped web pages.
	webPageSize = 3000

	// minScrapedChars rejects pages that are effectively empty after
	// boilerplate removal.
	minScrapedChars = 100
)

// skipElements holds HTML elements whose subtrees carry navigation and
// boilerplate rather than content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"noscript": true,
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Scraper fetches a web page and reduces it to readable text.
type Scraper struct {
	client *http.Client
}

func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: scrapeTimeout},
	}
}

// Scrape downloads the page at url and returns its visible text as
// pseudo-pages. Pages with too little content after boilerplate
// removal are rejected.
func (s *Scraper) Scrape(ctx context.Context, url string) ([]Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrExtractionFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s returned status %s", ErrExtractionFailed, url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	text := ExtractReadableText(string(body))
	if len(text) < minScrapedChars {
		return nil, fmt.Errorf("%w: page has too little readable text", ErrTooLittleText)
	}

	return splitPseudoPages(text, webPageSize), nil
}

// ExtractReadableText strips markup and boilerplate elements from an
// HTML document and normalises whitespace.
func ExtractReadableText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	text := excessNewlines.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(text)
}

func isBlockElement(name string) bool {
	switch name {
	case "p", "div", "section", "article", "li", "h1", "h2", "h3", "h4", "h5", "h6", "br", "tr":
		return true
	}
	return false
}
