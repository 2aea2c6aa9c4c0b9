package scan

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultCountryCode is used when a scan request carries no country.
	DefaultCountryCode = "US"
	// DefaultCurrencyCode is used when a scan request carries no currency.
	DefaultCurrencyCode = "USD"

	// MaxComparableListings caps the comparable listings kept on a record.
	MaxComparableListings = 5

	// HistoryPageSize is the maximum number of records returned by a history listing.
	HistoryPageSize = 50
)

var (
	ErrUserIDRequired = errors.New("userId is required")
	ErrImageRequired  = errors.New("image data is required")
	ErrNotFound       = errors.New("scan not found")
	ErrForbidden      = errors.New("scan belongs to another user")
)

// Listing is a comparable listing found by the search stage.
type Listing struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Price   string `json:"price"`
}

// ListingDraft is a suggested marketplace posting.
type ListingDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// VisionResult is the normalized output of the recognition stage.
type VisionResult struct {
	Objects       []string `json:"objects"`
	Texts         []string `json:"texts"`
	PrimaryObject string   `json:"primary_object"`

	// Degraded is set when the fixed fallback was substituted.
	Degraded bool `json:"-"`
}

// SearchResult is the normalized output of the search stage.
type SearchResult struct {
	Query    string         `json:"query"`
	Listings []Listing      `json:"similar_listings"`
	Raw      map[string]any `json:"raw_response"`

	Degraded bool `json:"-"`
}

// Appraisal is the structured output of the synthesis stage.
type Appraisal struct {
	ItemName        string       `json:"itemName"`
	EstimatedValue  string       `json:"estimatedValue"`
	ConfidenceScore int          `json:"confidenceScore"`
	AnalysisText    string       `json:"aiAnalysis"`
	ListingDraft    ListingDraft `json:"listingDraft"`

	Degraded bool `json:"-"`
}

// Record is a persisted scan. Records are never updated after creation.
type Record struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	CreatedAt          time.Time      `json:"timestamp"`
	ImageBase64        string         `json:"image_base64"`
	ItemName           string         `json:"item_name"`
	EstimatedValue     string         `json:"estimated_value"`
	ConfidenceScore    int            `json:"confidence_score"`
	AnalysisText       string         `json:"ai_analysis"`
	ListingDraft       ListingDraft   `json:"listing_draft"`
	ComparableListings []Listing      `json:"similar_listings"`
	VisionDebug        *VisionResult  `json:"vision_response,omitempty"`
	SearchDebug        map[string]any `json:"search_response,omitempty"`
	CountryCode        string         `json:"country_code"`
	CurrencyCode       string         `json:"currency_code"`
}

// Store persists scan records. Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, r *Record) error
	// Get returns ErrNotFound when no record has the given id.
	Get(ctx context.Context, id string) (*Record, error)
	// ListByUser returns the newest records first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
