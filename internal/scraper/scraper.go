package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxExcerpt bounds extracted article text so prompts stay small.
const maxExcerpt = 2000

// ArticleContent is the extracted body of a web article.
type ArticleContent struct {
	Title   string
	Content string
	URL     string
}

// Scraper pulls readable article text out of arbitrary web pages.
type Scraper struct {
	client *http.Client
}

func New(timeout time.Duration) *Scraper {
	return &Scraper{client: &http.Client{Timeout: timeout}}
}

// Extract fetches url and returns its main text content.
func (s *Scraper) Extract(ctx context.Context, url string) (*ArticleContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; aihub/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	content := cleanContent(extractBody(doc))
	if content == "" {
		return nil, fmt.Errorf("no readable content at %s", url)
	}

	return &ArticleContent{
		Title:   extractTitle(doc),
		Content: content,
		URL:     url,
	}, nil
}

// extractBody walks common article selectors and stops at the first
// one that yields real paragraphs.
func extractBody(doc *goquery.Document) string {
	selectors := []string{
		"article p",
		".article-body p",
		".article-content p",
		".post-content p",
		".entry-content p",
		".content p",
		"main p",
		"#content p",
		"p",
	}

	var paragraphs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			break
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func extractTitle(doc *goquery.Document) string {
	selectors := []string{
		"h1",
		".article-title",
		".headline",
		".entry-title",
		"title",
	}
	for _, selector := range selectors {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return title
		}
	}
	return ""
}

var junkIndicators = []string{
	"cookie", "subscribe to", "sign up", "newsletter",
	"advertisement", "sponsored", "read more:", "follow us",
	"share this", "privacy policy", "log in", "create account",
}

// cleanContent drops boilerplate lines, collapses whitespace and caps
// the result at whole paragraphs.
func cleanContent(content string) string {
	if content == "" {
		return ""
	}

	var clean []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 20 {
			continue
		}
		lower := strings.ToLower(line)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if junk {
			continue
		}
		clean = append(clean, strings.Join(strings.Fields(line), " "))
	}

	text := strings.Join(clean, "\n\n")
	if len(text) <= maxExcerpt {
		return text
	}

	// Cut at paragraph boundaries rather than mid-sentence.
	var kept []string
	total := 0
	for _, p := range clean {
		if total+len(p) > maxExcerpt {
			break
		}
		kept = append(kept, p)
		total += len(p) + 2
	}
	if len(kept) == 0 {
		return text[:maxExcerpt]
	}
	return strings.Join(kept, "\n\n")
}
