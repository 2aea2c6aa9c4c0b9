package scan

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/metrics"
)

// ImageAnalyzer is the recognition stage. It never fails; on upstream
// trouble it returns a fixed degraded result.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, image []byte) VisionResult
}

// MarketplaceSearcher is the comparable-listing search stage.
type MarketplaceSearcher interface {
	Search(ctx context.Context, vision VisionResult, countryCode string) SearchResult
}

// Appraiser is the synthesis stage.
type Appraiser interface {
	Appraise(ctx context.Context, vision VisionResult, search SearchResult, countryCode, currencyCode string) Appraisal
}

// Request is one scan submission.
type Request struct {
	Image        []byte
	UserID       string
	CountryCode  string
	CurrencyCode string
}

// Pipeline runs recognition, search and appraisal in sequence and stores
// the assembled record.
type Pipeline struct {
	vision    ImageAnalyzer
	search    MarketplaceSearcher
	appraiser Appraiser
	store     Store
	clock     Clock
	newID     func() string
}

// NewPipeline creates a pipeline over the given stages and store.
func NewPipeline(vision ImageAnalyzer, search MarketplaceSearcher, appraiser Appraiser, store Store) *Pipeline {
	return &Pipeline{
		vision:    vision,
		search:    search,
		appraiser: appraiser,
		store:     store,
		clock:     SystemClock{},
		newID:     func() string { return uuid.New().String() },
	}
}

// Run validates the request, executes the three stages and persists the
// result. Only caller errors and persistence failures are returned; stage
// failures are absorbed by each stage's fallback.
//
// The stages run on a context detached from ctx's cancellation, so a caller
// that goes away does not abort a run that has already started.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Record, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrUserIDRequired
	}
	if len(req.Image) == 0 {
		return nil, ErrImageRequired
	}

	country := NormalizeCode(req.CountryCode, DefaultCountryCode)
	currency := NormalizeCode(req.CurrencyCode, DefaultCurrencyCode)

	ctx = context.WithoutCancel(ctx)
	started := time.Now()

	log.Info().Str("userId", req.UserID).Int("imageBytes", len(req.Image)).Msg("analyzing image")
	visionResult := p.vision.Analyze(ctx, req.Image)

	log.Info().Str("primaryObject", visionResult.PrimaryObject).Msg("searching marketplaces")
	searchResult := p.search.Search(ctx, visionResult, country)

	log.Info().Int("listings", len(searchResult.Listings)).Msg("appraising item")
	appraisal := p.appraiser.Appraise(ctx, visionResult, searchResult, country, currency)

	record := &Record{
		ID:                 p.newID(),
		UserID:             req.UserID,
		CreatedAt:          p.clock.Now(),
		ImageBase64:        base64.StdEncoding.EncodeToString(req.Image),
		ItemName:           appraisal.ItemName,
		EstimatedValue:     appraisal.EstimatedValue,
		ConfidenceScore:    ClampConfidence(appraisal.ConfidenceScore),
		AnalysisText:       appraisal.AnalysisText,
		ListingDraft:       appraisal.ListingDraft,
		ComparableListings: capListings(searchResult.Listings),
		VisionDebug:        &visionResult,
		SearchDebug:        searchResult.Raw,
		CountryCode:        country,
		CurrencyCode:       currency,
	}

	if err := p.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save scan: %w", err)
	}

	metrics.ObserveScan(time.Since(started), visionResult.Degraded || searchResult.Degraded || appraisal.Degraded)
	log.Info().
		Str("scanId", record.ID).
		Str("userId", record.UserID).
		Str("itemName", record.ItemName).
		Int("confidence", record.ConfidenceScore).
		Bool("visionDegraded", visionResult.Degraded).
		Bool("searchDegraded", searchResult.Degraded).
		Bool("appraisalDegraded", appraisal.Degraded).
		Dur("elapsed", time.Since(started)).
		Msg("scan completed")

	return record, nil
}

func capListings(listings []Listing) []Listing {
	if len(listings) > MaxComparableListings {
		listings = listings[:MaxComparableListings]
	}
	out := make([]Listing, len(listings))
	copy(out, listings)
	return out
}

// ClampConfidence forces a confidence score into [0,100].
func ClampConfidence(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// NormalizeCode upper-cases a country or currency code, substituting def
// when it is blank.
func NormalizeCode(code, def string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return def
	}
	return code
}
