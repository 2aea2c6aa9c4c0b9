package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const CustomSearchBaseURL = "https://www.googleapis.com"

// Query is one web search request.
type Query struct {
	Text        string
	CountryCode string
	Num         int
}

// Item is a single organic result.
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Response holds the parsed items and the raw upstream payload.
type Response struct {
	Items []Item
	Raw   map[string]any
}

// WebSearcher runs a web search.
type WebSearcher interface {
	Search(ctx context.Context, q Query) (*Response, error)
}

type ClientOpts struct {
	APIKey   string
	EngineID string
	BaseURL  string
	Timeout  time.Duration
}

// CustomSearchClient queries the Google Custom Search JSON API.
type CustomSearchClient struct {
	httpClient *resty.Client
	apiKey     string
	engineID   string
}

func NewCustomSearchClient(opts ClientOpts) *CustomSearchClient {
	baseURL := CustomSearchBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	return &CustomSearchClient{
		httpClient: httpClient,
		apiKey:     opts.APIKey,
		engineID:   opts.EngineID,
	}
}

func (c *CustomSearchClient) Search(ctx context.Context, q Query) (*Response, error) {
	params := map[string]string{
		"key": c.apiKey,
		"cx":  c.engineID,
		"q":   q.Text,
	}
	if q.Num > 0 {
		params["num"] = strconv.Itoa(q.Num)
	}
	if q.CountryCode != "" {
		params["gl"] = strings.ToLower(q.CountryCode)
	}

	raw := map[string]any{}
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&raw).
		Get("/customsearch/v1")
	if err != nil {
		return nil, fmt.Errorf("custom search request failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("custom search failed: status %d: %s", res.StatusCode(), res.String())
	}

	return &Response{Items: itemsFromRaw(raw), Raw: raw}, nil
}

func itemsFromRaw(raw map[string]any) []Item {
	list, _ := raw["items"].([]any)
	items := make([]Item, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, Item{
			Title:   stringField(m, "title"),
			Link:    stringField(m, "link"),
			Snippet: stringField(m, "snippet"),
		})
	}
	return items
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
