package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/questlog/questlog-be/internal/importer/domain"
)

const (
	defaultBaseURL        = "https://www.backloggd.com"
	defaultPageDelay      = 800 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Config holds Backloggd client settings.
type Config struct {
	BaseURL        string
	PageDelay      time.Duration
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Client scrapes a Backloggd profile's categorized game shelves. It owns one
// resty session with a cookie jar seeded with baseline cookies and a
// browser-like header set, reused across every page fetch.
type Client struct {
	http      *resty.Client
	pageDelay time.Duration
	logger    *slog.Logger
}

// New creates a Backloggd scraping client.
func New(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageDelay := cfg.PageDelay
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetCookieJar(jar)
	client.SetTimeout(timeout)
	client.SetHeaders(map[string]string{
		"user-agent":      userAgent,
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
	})
	client.SetCookies([]*http.Cookie{
		{Name: "locale", Value: "en"},
		{Name: "allow_mature", Value: "false"},
	})

	return &Client{
		http:      client,
		pageDelay: pageDelay,
		logger:    logger,
	}, nil
}

// ProfileExists fetches the profile root page and looks for the structural
// marker that only rendered profiles carry. Any fetch or parse error is
// treated as "does not exist" rather than propagated.
func (c *Client) ProfileExists(ctx context.Context, username string) bool {
	res, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/u/%s", username))
	if err != nil || res.StatusCode() != http.StatusOK {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return false
	}

	return hasProfileMarker(doc)
}

// FetchCollection fetches all four shelves of the given profile across
// pagination and returns the raw per-shelf entry lists.
func (c *Client) FetchCollection(ctx context.Context, username string) (*domain.Collection, error) {
	collection := &domain.Collection{}

	targets := []struct {
		shelf string
		dest  *[]domain.StagedGameEntry
	}{
		{"played", &collection.Played},
		{"playing", &collection.Playing},
		{"backlog", &collection.Backlog},
		{"wishlist", &collection.Wishlist},
	}

	for _, t := range targets {
		entries, err := c.fetchShelf(ctx, username, t.shelf)
		if err != nil {
			return nil, err
		}
		*t.dest = entries
	}

	c.logger.Info("Fetched external collection",
		slog.String("username", username),
		slog.Int("raw_entries", collection.Size()),
	)

	return collection, nil
}

// fetchShelf fetches page 1 of one shelf, reads the total page count from
// its pagination markers, then walks the remaining pages sequentially with a
// delay between requests to avoid hammering the external host.
func (c *Client) fetchShelf(ctx context.Context, username, shelf string) ([]domain.StagedGameEntry, error) {
	doc, err := c.fetchShelfPage(ctx, username, shelf, 1)
	if err != nil {
		return nil, err
	}

	entries := extractEntries(doc)
	pages := extractPageCount(doc)

	c.logger.Debug("Fetched shelf page",
		slog.String("username", username),
		slog.String("shelf", shelf),
		slog.Int("pages", pages),
		slog.Int("entries", len(entries)),
	)

	for page := 2; page <= pages; page++ {
		select {
		case <-time.After(c.pageDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		doc, err := c.fetchShelfPage(ctx, username, shelf, page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, extractEntries(doc)...)
	}

	return entries, nil
}

func (c *Client) fetchShelfPage(ctx context.Context, username, shelf string, page int) (*goquery.Document, error) {
	req := c.http.R().SetContext(ctx)
	if page > 1 {
		req.SetQueryParam("page", fmt.Sprintf("%d", page))
	}

	res, err := req.Get(fmt.Sprintf("/u/%s/games/%s", username, shelf))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shelf %q page %d: %w", shelf, page, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("shelf %q page %d: unexpected status %d", shelf, page, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse shelf %q page %d: %w", shelf, page, err)
	}

	return doc, nil
}
