// Package appraisal implements the synthesis stage: it asks a text
// generator to appraise an item from recognition and search output and
// parses the reply into a scan.Appraisal.
package appraisal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/llm"
	"github.com/Toverson/Thrifter-s-Eye/internal/metrics"
	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

const (
	DefaultTimeout = 60 * time.Second

	fallbackConfidence  = 25
	fallbackDescription = "Item found at thrift store, good condition. Please see photos for details."
)

type Appraiser struct {
	generator llm.Generator
	timeout   time.Duration
}

// NewAppraiser creates an appraiser. A nil generator means generation is
// not configured and every call returns Fallback.
func NewAppraiser(generator llm.Generator, timeout time.Duration) *Appraiser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Appraiser{generator: generator, timeout: timeout}
}

// Appraise makes a single generation attempt. It never returns an error.
func (a *Appraiser) Appraise(ctx context.Context, vision scan.VisionResult, search scan.SearchResult, countryCode, currencyCode string) scan.Appraisal {
	if a.generator == nil {
		log.Warn().Msg("generation API not configured, using fallback")
		metrics.StageFallback(metrics.StageAppraisal)
		return Fallback(vision, currencyCode)
	}

	prompt, err := BuildPrompt(vision, search, countryCode, currencyCode)
	if err != nil {
		log.Error().Err(err).Msg("failed to build appraisal prompt, using fallback")
		metrics.StageFallback(metrics.StageAppraisal)
		return Fallback(vision, currencyCode)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("generation API error, using fallback")
		metrics.StageFallback(metrics.StageAppraisal)
		return Fallback(vision, currencyCode)
	}

	appraisal, err := ParseReply(reply, currencyCode)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse appraisal reply, using fallback")
		metrics.StageFallback(metrics.StageAppraisal)
		return Fallback(vision, currencyCode)
	}
	return appraisal
}

// Fallback builds the fixed degraded appraisal for a scan.
func Fallback(vision scan.VisionResult, currencyCode string) scan.Appraisal {
	primary := strings.TrimSpace(vision.PrimaryObject)

	itemName := primary
	subject := primary
	draftTitle := primary
	if primary == "" {
		itemName = "Unknown Item"
		subject = "general item"
		draftTitle = "Vintage Item"
	}

	sym := CurrencySymbol(currencyCode)
	return scan.Appraisal{
		ItemName:        itemName,
		EstimatedValue:  fmt.Sprintf("%s10 - %s30 %s", sym, sym, currencyCode),
		ConfidenceScore: fallbackConfidence,
		AnalysisText: fmt.Sprintf("Unable to complete full analysis due to technical issues. "+
			"Basic identification suggests this is a %s. "+
			"For accurate valuation, please try again or consult with local experts.", subject),
		ListingDraft: scan.ListingDraft{
			Title:       draftTitle + " - Good Condition",
			Description: fallbackDescription,
		},
		Degraded: true,
	}
}

type reply struct {
	ItemName        string          `json:"itemName"`
	EstimatedValue  string          `json:"estimatedValue"`
	ConfidenceScore json.RawMessage `json:"confidenceScore"`
	AIAnalysis      string          `json:"aiAnalysis"`
	ListingDraft    struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"listingDraft"`
}

// ParseReply decodes a generator reply. Code fences are stripped and the
// text decoded; if that fails, the outermost JSON object in the reply is
// decoded instead.
func ParseReply(text, currencyCode string) (scan.Appraisal, error) {
	var r reply
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &r); err != nil {
		obj, extractErr := llm.ExtractJSONObject(text)
		if extractErr != nil {
			return scan.Appraisal{}, extractErr
		}
		r = reply{}
		if err := json.Unmarshal([]byte(obj), &r); err != nil {
			return scan.Appraisal{}, fmt.Errorf("failed to parse reply JSON: %w", err)
		}
	}

	itemName := strings.TrimSpace(r.ItemName)
	value := strings.TrimSpace(r.EstimatedValue)
	if itemName == "" {
		return scan.Appraisal{}, errors.New("reply is missing itemName")
	}
	if value == "" {
		return scan.Appraisal{}, errors.New("reply is missing estimatedValue")
	}
	if currencyCode != "" && !strings.Contains(strings.ToUpper(value), strings.ToUpper(currencyCode)) {
		value = value + " " + currencyCode
	}

	score, err := parseScore(r.ConfidenceScore)
	if err != nil {
		return scan.Appraisal{}, err
	}

	return scan.Appraisal{
		ItemName:        itemName,
		EstimatedValue:  value,
		ConfidenceScore: score,
		AnalysisText:    strings.TrimSpace(r.AIAnalysis),
		ListingDraft: scan.ListingDraft{
			Title:       strings.TrimSpace(r.ListingDraft.Title),
			Description: strings.TrimSpace(r.ListingDraft.Description),
		},
	}, nil
}

// parseScore accepts an integer, a float or a numeric string and clamps the
// result to [0,100]. A missing score counts as 0.
func parseScore(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("invalid confidenceScore: %s", raw)
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid confidenceScore: %q", s)
		}
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("invalid confidenceScore: %s", raw)
	}
	return scan.ClampConfidence(int(math.Round(math.Max(-1, math.Min(101, f))))), nil
}
