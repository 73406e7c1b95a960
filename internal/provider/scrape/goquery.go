package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// minParagraphLen filters boilerplate when falling back to a whole-page
// paragraph sweep.
const minParagraphLen = 50

// Goquery extracts article content with CSS selectors. It serves as
// the fallback scraper when readability extraction fails.
type Goquery struct {
	timeout    time.Duration
	httpClient *http.Client
}

// NewGoquery creates the provider.
func NewGoquery(timeout time.Duration) *Goquery {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Goquery{
		timeout: timeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (p *Goquery) Name() string           { return "goquery" }
func (p *Goquery) Available() bool        { return true }
func (p *Goquery) Timeout() time.Duration { return p.timeout }

// Fetch downloads a page and extracts paragraphs from common article
// containers.
func (p *Goquery) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").Text())
	text := extractContent(doc)
	if text == "" {
		return nil, fmt.Errorf("validation: no article content at %s", pageURL)
	}

	return &Page{Title: title, Text: text}, nil
}

func extractContent(doc *goquery.Document) string {
	var sb strings.Builder

	container := doc.Find("article, .article, .post, .content, main")
	if container.Length() > 0 {
		container.Find("p").Each(func(_ int, s *goquery.Selection) {
			sb.WriteString(s.Text())
			sb.WriteString("\n\n")
		})
	} else {
		// Whole-page sweep; short paragraphs are usually navigation.
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			if len(s.Text()) > minParagraphLen {
				sb.WriteString(s.Text())
				sb.WriteString("\n\n")
			}
		})
	}

	return strings.TrimSpace(sb.String())
}
