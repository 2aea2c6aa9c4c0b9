// Package search implements the comparable-listing stage of the scan
// pipeline on top of a web search backend.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/metrics"
	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

const (
	DefaultTimeout = 15 * time.Second

	defaultQuery  = "vintage collectible"
	querySuffix   = " price value"
	maxQueryTexts = 2
	unknownPrice  = "N/A"
)

// Fallback is returned whenever search is unavailable or fails.
func Fallback() scan.SearchResult {
	return scan.SearchResult{
		Query:    "",
		Listings: []scan.Listing{},
		Raw:      map[string]any{},
		Degraded: true,
	}
}

type Searcher struct {
	client  WebSearcher
	timeout time.Duration
}

// NewSearcher creates a searcher. A nil client means search is not
// configured and every call returns Fallback().
func NewSearcher(client WebSearcher, timeout time.Duration) *Searcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Searcher{client: client, timeout: timeout}
}

// BuildQuery joins up to two detected texts and the primary object. An
// empty result becomes a generic collectible query.
func BuildQuery(vision scan.VisionResult) string {
	var terms []string
	for i, text := range vision.Texts {
		if i >= maxQueryTexts {
			break
		}
		if t := strings.TrimSpace(text); t != "" {
			terms = append(terms, t)
		}
	}
	if p := strings.TrimSpace(vision.PrimaryObject); p != "" {
		terms = append(terms, p)
	}

	query := strings.Join(terms, " ")
	if query == "" {
		return defaultQuery
	}
	return query
}

// Search makes a single search attempt. It never returns an error.
func (s *Searcher) Search(ctx context.Context, vision scan.VisionResult, countryCode string) scan.SearchResult {
	if s.client == nil {
		log.Warn().Msg("search API not configured, using fallback")
		metrics.StageFallback(metrics.StageSearch)
		return Fallback()
	}

	query := BuildQuery(vision)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.client.Search(ctx, Query{
		Text:        query + querySuffix,
		CountryCode: countryCode,
		Num:         scan.MaxComparableListings,
	})
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("search API error, using fallback")
		metrics.StageFallback(metrics.StageSearch)
		return Fallback()
	}

	listings := make([]scan.Listing, 0, scan.MaxComparableListings)
	for _, item := range res.Items {
		if len(listings) == scan.MaxComparableListings {
			break
		}
		listings = append(listings, scan.Listing{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Price:   unknownPrice,
		})
	}

	raw := res.Raw
	if raw == nil {
		raw = map[string]any{}
	}

	log.Debug().Str("query", query).Int("results", len(listings)).Msg("search completed")
	return scan.SearchResult{
		Query:    query,
		Listings: listings,
		Raw:      raw,
	}
}
