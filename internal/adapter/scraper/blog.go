package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

const (
	contentSelector  = "div.content__body"
	relevantSelector = "h1, h2, h3, h4, h5, h6, p, li"
)

var (
	ErrNoContent         = errors.New("no content found in the page")
	ErrNoRelevantContent = errors.New("no relevant content found in the page")
	ErrEmptyContent      = errors.New("extracted content is empty")
)

// BlogScraper turns a blog post into plain text with light structure:
// headings become paragraph breaks, list items become lines.
type BlogScraper struct {
	url       string
	userAgent string
	client    *http.Client
}

func NewBlogScraper(url, userAgent string, timeout time.Duration) *BlogScraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BlogScraper{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *BlogScraper) Name() string {
	return s.url
}

// Fetch downloads the page and extracts its text. Every failure is a *domain.ScrapeError.
func (s *BlogScraper) Fetch(ctx context.Context) (string, error) {
	doc, err := s.download(ctx)
	if err != nil {
		return "", &domain.ScrapeError{URL: s.url, Err: fmt.Errorf("failed to fetch content: %w", err)}
	}

	text, err := Extract(doc)
	if err != nil {
		return "", &domain.ScrapeError{URL: s.url, Err: err}
	}
	return text, nil
}

func (s *BlogScraper) download(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML content: %w", err)
	}
	return doc, nil
}

// Extract pulls the article text out of doc. Without the main content container
// every paragraph on the page is used instead.
func Extract(doc *goquery.Document) (string, error) {
	var elements *goquery.Selection
	nested := true

	body := doc.Find(contentSelector).First()
	if body.Length() == 0 {
		elements = doc.Find("p")
		if elements.Length() == 0 {
			return "", ErrNoContent
		}
		nested = false
	} else {
		elements = body.Find(relevantSelector)
		if elements.Length() == 0 {
			return "", ErrNoRelevantContent
		}
	}

	var b strings.Builder
	elements.Each(func(_ int, el *goquery.Selection) {
		name := goquery.NodeName(el)

		// nested list items and paragraphs inside list items are covered by the outer li text
		if nested && (name == "li" || name == "p") && el.ParentsFiltered("li").Length() > 0 {
			return
		}

		text := strings.TrimSpace(el.Text())
		if text == "" {
			return
		}

		switch {
		case strings.HasPrefix(name, "h"):
			b.WriteString("\n\n" + text + "\n")
		case name == "li":
			b.WriteString("\n" + text)
		default:
			b.WriteString(text + "\n")
		}
	})

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyContent
	}
	return out, nil
}
