package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobclip-engine/internal/browser"
)

// PageExtractor is the one-shot page-text capability: given a tab, return
// the page's rendered visible text as a single string, or fail. It never
// mutates the page and returns exactly one result per invocation.
type PageExtractor interface {
	ExtractText(ctx context.Context, tab browser.Tab) (string, error)
}

type Config struct {
	Timeout    time.Duration
	MaxBodyKB  int
	PerHostRPS float64
	Burst      int
}

// HTTPExtractor reads the tab's page over HTTP and strips it down to its
// visible text. Pages behind logins or client-side rendering come back
// thinner than what the user sees; that is accepted, same as a restricted
// page failing injection in the browser.
type HTTPExtractor struct {
	hc      *http.Client
	limiter *HostLimiter
	maxBody int64
}

func NewHTTPExtractor(cfg Config) *HTTPExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBodyKB <= 0 {
		cfg.MaxBodyKB = 2048
	}
	if cfg.PerHostRPS <= 0 {
		cfg.PerHostRPS = 1.0
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	return &HTTPExtractor{
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: NewHostLimiter(cfg.PerHostRPS, cfg.Burst),
		maxBody: int64(cfg.MaxBodyKB) * 1024,
	}
}

func (e *HTTPExtractor) ExtractText(ctx context.Context, tab browser.Tab) (string, error) {
	raw := strings.TrimSpace(tab.URL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("extract: tab url %q is not fetchable", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		// chrome://, about:, file:// and friends are restricted pages
		return "", fmt.Errorf("extract: restricted page scheme %q", u.Scheme)
	}

	if err := e.limiter.WaitURL(ctx, raw); err != nil {
		return "", fmt.Errorf("extract: wait limiter: %w", err)
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	req.Header.Set("User-Agent", "JobClip/1.0 (+local)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	res, err := e.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: get page: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("extract: page status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, e.maxBody))
	if err != nil {
		return "", fmt.Errorf("extract: parse page html: %w", err)
	}

	text := VisibleText(doc)
	if text == "" {
		return "", fmt.Errorf("extract: page has no visible text")
	}
	return text, nil
}

// VisibleText flattens a document to the text a user would see: anything
// script-, style- or markup-only is removed and whitespace is collapsed.
func VisibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, iframe, svg, head").Remove()

	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	return cleanText(sel.Text())
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
