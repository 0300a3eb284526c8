package sourcing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/logging"
	"github.com/arnavs06/HackNYU/internal/ml"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// minBodyChars is the smallest body that counts as a real product page.
const minBodyChars = 200

// PageFetcher loads product pages over HTTP, falling back to a headless
// browser when the plain response looks blocked or empty.
type PageFetcher struct {
	client   *http.Client
	timeout  time.Duration
	headless bool
	maxChars int
	logger   *slog.Logger
}

// NewPageFetcher creates a fetcher from cfg
func NewPageFetcher(cfg config.FetchConfig, logger *slog.Logger) *PageFetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = 15000
	}
	return &PageFetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		timeout:  cfg.Timeout,
		headless: cfg.Headless,
		maxChars: maxChars,
		logger:   logger.With("component", "fetch"),
	}
}

// Fetch returns the visible text of the page at url
func (f *PageFetcher) Fetch(ctx context.Context, url string) (ml.ProductPage, error) {
	doc, err := f.fetchHTTP(ctx, url)
	if err == nil && isUsable(doc) {
		return f.pageFrom(url, doc), nil
	}
	if err != nil {
		f.logger.Debug("http fetch failed", "url", url, "error", err)
	}
	if !f.headless {
		if err == nil {
			err = fmt.Errorf("page content looks blocked or empty")
		}
		return ml.ProductPage{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	doc, err = f.fetchHeadless(ctx, url)
	if err != nil {
		return ml.ProductPage{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	return f.pageFrom(url, doc), nil
}

func (f *PageFetcher) fetchHTTP(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}
	return goquery.NewDocumentFromReader(io.LimitReader(res.Body, 4<<20))
}

func (f *PageFetcher) fetchHeadless(ctx context.Context, url string) (*goquery.Document, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()
	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	headers := network.Headers{
		"Accept-Language": "en-US,en;q=0.9",
		"Sec-Fetch-Dest":  "document",
		"Sec-Fetch-Mode":  "navigate",
	}
	var html string
	err := chromedp.Run(taskCtx,
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp navigation error: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *PageFetcher) pageFrom(url string, doc *goquery.Document) ml.ProductPage {
	return ml.ProductPage{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  truncate(visibleText(doc), f.maxChars),
	}
}

// visibleText joins the meta description and the body text, one line per
// non-empty text run.
func visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, svg, iframe").Remove()

	var lines []string
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
		lines = append(lines, strings.TrimSpace(desc))
	}
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func isUsable(doc *goquery.Document) bool {
	title := strings.ToLower(doc.Find("title").Text())
	for _, blocked := range []string{"robot check", "captcha", "access denied"} {
		if strings.Contains(title, blocked) {
			return false
		}
	}
	return len(strings.TrimSpace(doc.Find("body").Text())) > minBodyChars
}
