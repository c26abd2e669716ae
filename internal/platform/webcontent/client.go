// Package webcontent provides clients for the external crawl and web-search
// provider. Both aggregate the provider's per-page results into a single text
// blob for the pipeline; zero results is an error, not an empty success.
package webcontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/draftmill/draftmill-api/internal/config"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/go-resty/resty/v2"
)

// Common errors returned by the webcontent clients
var (
	// ErrNoCrawlResults is returned when a crawl retrieved zero pages
	ErrNoCrawlResults = errors.New("crawl returned zero results")

	// ErrNoSearchResults is returned when a search retrieved zero results
	ErrNoSearchResults = errors.New("web search returned zero results")
)

// crawlRequest is the provider's crawl API request body.
type crawlRequest struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth"`
	Limit        int    `json:"limit"`
	Instructions string `json:"instructions,omitempty"`
}

// crawlResponse is the provider's crawl API response body.
type crawlResponse struct {
	Results []struct {
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

// searchRequest is the provider's search API request body.
type searchRequest struct {
	Query string `json:"query"`
}

// searchResponse is the provider's search API response body.
type searchResponse struct {
	Results []struct {
		Content string `json:"content"`
	} `json:"results"`
}

// Client calls the crawl and search endpoints of the configured provider.
type Client struct {
	crawl  *resty.Client
	search *resty.Client
	cfg    config.WebConfig
	logger *slog.Logger
}

// NewClient builds a Client from the web provider configuration.
func NewClient(cfg config.WebConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		crawl:  newHTTPClient(cfg.CrawlBaseURL, cfg.APIKey),
		search: newHTTPClient(cfg.SearchBaseURL, cfg.APIKey),
		cfg:    cfg,
		logger: log.With(slog.String("component", "webcontent")),
	}
}

// newHTTPClient configures a resty client with auth and transport-level
// retries for flaky provider responses.
func newHTTPClient(baseURL, apiKey string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Bearer "+apiKey).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= http.StatusInternalServerError ||
			r.StatusCode() == http.StatusTooManyRequests
	})

	return client
}

// Crawl retrieves text from the given website, bounded by the configured
// depth and page limit, and returns the concatenated page content.
// Returns ErrNoCrawlResults if the provider found nothing.
func (c *Client) Crawl(ctx context.Context, websiteURL string) (string, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var out crawlResponse
	resp, err := c.crawl.R().
		SetContext(ctx).
		SetBody(crawlRequest{
			URL:          websiteURL,
			MaxDepth:     c.cfg.CrawlMaxDepth,
			Limit:        c.cfg.CrawlPageLimit,
			Instructions: "Collect the main textual content of each page. Skip navigation, cookie banners and footers.",
		}).
		SetResult(&out).
		Post("/crawl")
	if err != nil {
		return "", fmt.Errorf("crawl request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("crawl request failed with status %d", resp.StatusCode())
	}

	var pages []string
	for _, r := range out.Results {
		if strings.TrimSpace(r.RawContent) != "" {
			pages = append(pages, r.RawContent)
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoCrawlResults, websiteURL)
	}

	log.Info("crawl completed",
		slog.String("website_url", websiteURL),
		slog.Int("page_count", len(pages)))
	return strings.Join(pages, "\n\n"), nil
}

// Search runs a web search for the given query and returns the concatenated
// result content. Returns ErrNoSearchResults if the provider found nothing.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var out searchResponse
	resp, err := c.search.R().
		SetContext(ctx).
		SetBody(searchRequest{Query: query}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("search request failed with status %d", resp.StatusCode())
	}

	var contents []string
	for _, r := range out.Results {
		if strings.TrimSpace(r.Content) != "" {
			contents = append(contents, r.Content)
		}
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("%w: query length %d", ErrNoSearchResults, len(query))
	}

	log.Info("web search completed",
		slog.Int("query_length", len(query)),
		slog.Int("result_count", len(contents)))
	return strings.Join(contents, "\n\n"), nil
}
