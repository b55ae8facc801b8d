package readers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/tably/tably/internal/logger"
)

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// WebpageOptions controls webpage fetching.
type WebpageOptions struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
}

// DefaultWebpageOptions returns sensible defaults.
func DefaultWebpageOptions() WebpageOptions {
	return WebpageOptions{
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// Webpage fetches a page and reduces it to readable text. Script, style,
// noscript, iframe and svg elements are stripped before text extraction, and
// the result is prefixed with the page URL and title so the model knows what
// it is looking at. Non-success HTTP statuses are returned as errors.
func Webpage(ctx context.Context, pageURL string, opts WebpageOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger.Debug("webpage fetch starting", "url", pageURL)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
	)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultWebpageOptions().Timeout
	}
	c.SetRequestTimeout(timeout)

	if len(opts.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range opts.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var (
		html     string
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
		logger.Debug("webpage fetch response received",
			"status", r.StatusCode,
			"content_type", r.Headers.Get("Content-Type"),
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = fmt.Errorf("fetch failed with status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = fmt.Errorf("fetch failed: %w", err)
	})

	if err := c.Visit(pageURL); err != nil {
		logger.Debug("webpage fetch visit failed", "url", pageURL, "error", err)
		return "", fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		logger.Debug("webpage fetch failed", "url", pageURL, "error", fetchErr)
		return "", fetchErr
	}

	text, title, err := stripHTML(html)
	if err != nil {
		return "", fmt.Errorf("failed to parse content: %w", err)
	}
	logger.Debug("webpage fetch complete",
		"url", pageURL,
		"title", title,
		"text_size", len(text))

	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", pageURL)
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	b.WriteString("\n")
	b.WriteString(text)
	return b.String(), nil
}

// stripHTML removes non-content elements and collapses the remaining text
// to trimmed, non-empty lines.
func stripHTML(html string) (text, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, iframe, svg").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return collapseText(doc.Text()), title, nil
	}
	return collapseText(body.Text()), title, nil
}

// collapseText normalizes whitespace within lines and drops empty lines.
func collapseText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
