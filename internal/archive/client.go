// Package archive is a client for the Internet Archive search, metadata,
// download and bookmarks endpoints.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"iarchive/internal/cache"
	"iarchive/internal/logger"
)

// DefaultBaseURL is the public archive host.
const DefaultBaseURL = "https://archive.org"

var (
	ErrNotFound = errors.New("not found")
	ErrSearch   = errors.New("search failed")
)

// Client talks to the archive over HTTP. Item documents are cached when a
// store is configured.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      cache.Store
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithCache caches item documents in s.
func WithCache(s cache.Store) Option {
	return func(c *Client) { c.cache = s }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "iarchive/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchParams are the advancedsearch parameters. Zero values are omitted.
type SearchParams struct {
	Query  string
	Fields []string
	Sort   []string
	Rows   int
	Start  int
}

// Search runs an advancedsearch query.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	params := url.Values{}
	params.Set("q", p.Query)
	for _, f := range p.Fields {
		params.Add("fl[]", f)
	}
	for _, s := range p.Sort {
		params.Add("sort[]", s)
	}
	if p.Rows > 0 {
		params.Set("rows", strconv.Itoa(p.Rows))
	}
	if p.Start > 0 {
		params.Set("start", strconv.Itoa(p.Start))
	}
	params.Set("output", "json")

	reqURL := c.baseURL + "/advancedsearch.php?" + params.Encode()
	body, _, err := c.get(ctx, reqURL, "search")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty response for %s", ErrSearch, reqURL)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &SearchResult{
		Query:    string(resp.ResponseHeader.Params.Q),
		NumFound: resp.Response.NumFound,
		Docs:     resp.Response.Docs,
	}, nil
}

// Item fetches the metadata document of identifier.
func (c *Client) Item(ctx context.Context, identifier string) (*Item, error) {
	identifier = strings.TrimLeft(identifier, "/")
	if c.cache != nil {
		if data, ok := c.cache.Get(identifier); ok {
			var item Item
			if err := json.Unmarshal(data, &item); err == nil {
				return &item, nil
			}
		}
	}

	body, _, err := c.get(ctx, c.baseURL+"/metadata/"+url.PathEscape(identifier), "metadata")
	if err != nil {
		return nil, err
	}
	data, err := unwrapMetadata(identifier, body)
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", identifier, err)
	}
	if c.cache != nil {
		if err := c.cache.Set(identifier, data); err != nil {
			logger.Default().Warn("Could not cache item %s: %v", identifier, err)
		}
	}
	return &item, nil
}

func unwrapMetadata(identifier string, body []byte) ([]byte, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("{}")) || bytes.Equal(body, []byte("[]")) {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, identifier)
	}
	var env metadataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", identifier, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, *env.Error)
	}
	if len(env.Result) > 0 {
		return env.Result, nil
	}
	return body, nil
}

// Bookmarks returns the items bookmarked by user.
func (c *Client) Bookmarks(ctx context.Context, user string) ([]Metadata, error) {
	reqURL := c.baseURL + "/bookmarks/" + url.PathEscape(user) + "?output=json"
	body, header, err := c.get(ctx, reqURL, "bookmarks")
	if err != nil {
		return nil, err
	}
	// Unknown users are answered with an XML page.
	mt, _, _ := mime.ParseMediaType(header.Get("Content-Type"))
	if mt != "application/json" {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, user)
	}

	var docs []Metadata
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookmarks: %w", err)
	}
	return docs, nil
}

// URL returns the download location of a file, or of the item directory
// when filename is empty.
func (c *Client) URL(identifier, filename string) string {
	ref := identifier + "/"
	if filename != "" {
		ref += url.PathEscape(filename)
	}
	return c.baseURL + "/download/" + ref
}

// ClearCache drops all cached item documents.
func (c *Client) ClearCache() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Clear()
}

func (c *Client) get(ctx context.Context, reqURL, what string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s request: %w", what, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s request failed: %w", what, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s response: %w", what, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, reqURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%s returned %d: %s", what, resp.StatusCode, body)
	}
	return body, resp.Header, nil
}
