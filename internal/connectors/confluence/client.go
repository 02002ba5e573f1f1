package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
	"github.com/opsrca/rcafinder/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// PageLimit is the page size used for content pagination.
	PageLimit = 50

	// RequestsPerSecond is the proactive throttle rate.
	RequestsPerSecond = 5

	// expandFields asks for the storage body, version and labels in one call.
	expandFields = "body.storage,version,metadata.labels,space"
)

// Ensure Client implements the interface.
var _ driven.DocumentSource = (*Client)(nil)

// Client is a Confluence REST API client implementing driven.DocumentSource.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRateLimit overrides the proactive request rate.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a Confluence client for the given base URL
// (e.g. https://wiki.example.com) authenticating with a bearer token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- REST wire types ---

type contentList struct {
	Results []content `json:"results"`
	Size    int       `json:"size"`
}

type content struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     body     `json:"body"`
	Version  version  `json:"version"`
	Metadata metadata `json:"metadata"`
	Space    space    `json:"space"`
	Links    links    `json:"_links"`
}

type body struct {
	Storage struct {
		Value string `json:"value"`
	} `json:"storage"`
}

type version struct {
	When string `json:"when"`
}

type metadata struct {
	Labels struct {
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	} `json:"labels"`
}

type space struct {
	Key string `json:"key"`
}

type links struct {
	WebUI string `json:"webui"`
	Base  string `json:"base"`
}

// FetchPages returns all pages in a space carrying at least one of the given
// tags. An empty tag list matches everything.
func (c *Client) FetchPages(ctx context.Context, spaceKey string, tags []string) ([]domain.PageContent, error) {
	var pages []domain.PageContent

	for start := 0; ; start += PageLimit {
		list, err := c.fetchContentPage(ctx, spaceKey, start)
		if err != nil {
			return nil, err
		}

		for _, item := range list.Results {
			page := c.toPageContent(item, spaceKey)
			if page.HasAnyTag(tags) {
				pages = append(pages, page)
			}
		}

		if len(list.Results) < PageLimit {
			break
		}
	}

	logger.Debug("Fetched %d matching pages from space %s", len(pages), spaceKey)
	return pages, nil
}

// FetchPageByID returns a single page by its content ID.
func (c *Client) FetchPageByID(ctx context.Context, id string) (*domain.PageContent, error) {
	endpoint := fmt.Sprintf("%s/rest/api/content/%s?expand=%s", c.baseURL, url.PathEscape(id), url.QueryEscape(expandFields))

	var item content
	if err := c.get(ctx, endpoint, &item); err != nil {
		return nil, err
	}

	page := c.toPageContent(item, item.Space.Key)
	return &page, nil
}

// FetchModifiedSince returns pages across the given spaces whose version
// timestamp is strictly after since. Confluence's CQL search does not expand
// the storage body, so this re-crawls each space and filters client-side.
func (c *Client) FetchModifiedSince(ctx context.Context, since time.Time, spaceKeys, tags []string) ([]domain.PageContent, error) {
	var modified []domain.PageContent
	for _, spaceKey := range spaceKeys {
		pages, err := c.FetchPages(ctx, spaceKey, tags)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			if page.LastModified.After(since) {
				modified = append(modified, page)
			}
		}
	}
	return modified, nil
}

// fetchContentPage fetches one pagination window of a space.
func (c *Client) fetchContentPage(ctx context.Context, spaceKey string, start int) (*contentList, error) {
	params := url.Values{}
	params.Set("spaceKey", spaceKey)
	params.Set("type", "page")
	params.Set("start", strconv.Itoa(start))
	params.Set("limit", strconv.Itoa(PageLimit))
	params.Set("expand", expandFields)

	endpoint := fmt.Sprintf("%s/rest/api/content?%s", c.baseURL, params.Encode())

	var list contentList
	if err := c.get(ctx, endpoint, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// get performs a throttled, authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: confluence rejected credentials (status %d)", domain.ErrUpstreamFailure, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: confluence returned status %d: %s", domain.ErrUpstreamFailure, resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", domain.ErrUpstreamFailure, err)
	}
	return nil
}

// toPageContent maps a REST content item onto the domain type.
func (c *Client) toPageContent(item content, spaceKey string) domain.PageContent {
	labels := make([]string, 0, len(item.Metadata.Labels.Results))
	for _, label := range item.Metadata.Labels.Results {
		labels = append(labels, label.Name)
	}

	var lastModified time.Time
	if item.Version.When != "" {
		t, err := time.Parse(time.RFC3339, item.Version.When)
		if err != nil {
			logger.Warn("Unparseable version timestamp %q on page %s", item.Version.When, item.ID)
		} else {
			lastModified = t
		}
	}

	pageURL := ""
	if item.Links.WebUI != "" {
		pageURL = c.baseURL + item.Links.WebUI
	}

	return domain.PageContent{
		ID:           item.ID,
		SpaceKey:     spaceKey,
		Title:        item.Title,
		URL:          pageURL,
		Body:         item.Body.Storage.Value,
		LastModified: lastModified,
		Labels:       labels,
	}
}
