// Package vision implements the recognition stage of the scan pipeline.
package vision

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/metrics"
	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

const (
	DefaultTimeout = 30 * time.Second

	unknownItem = "unknown item"
)

// Fallback is returned whenever recognition is unavailable or fails.
func Fallback() scan.VisionResult {
	return scan.VisionResult{
		Objects:       []string{"vintage item", "collectible"},
		Texts:         []string{"VINTAGE", "COLLECTIBLE"},
		PrimaryObject: "vintage collectible",
		Degraded:      true,
	}
}

// Analyzer turns an Annotator's output into a scan.VisionResult.
type Analyzer struct {
	annotator Annotator
	timeout   time.Duration
}

// NewAnalyzer creates an analyzer. A nil annotator means recognition is not
// configured and every call returns Fallback().
func NewAnalyzer(annotator Annotator, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Analyzer{annotator: annotator, timeout: timeout}
}

// Analyze makes a single annotation attempt. It never returns an error.
func (a *Analyzer) Analyze(ctx context.Context, image []byte) scan.VisionResult {
	if a.annotator == nil {
		log.Warn().Msg("vision API not configured, using fallback")
		metrics.StageFallback(metrics.StageVision)
		return Fallback()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	annotation, err := a.annotator.Annotate(ctx, image)
	if err != nil {
		log.Error().Err(err).Msg("vision API error, using fallback")
		metrics.StageFallback(metrics.StageVision)
		return Fallback()
	}

	return normalize(annotation)
}

func normalize(annotation *Annotation) scan.VisionResult {
	objects := truncate(annotation.Objects, maxObjects)
	texts := truncate(annotation.Texts, maxTexts)

	primary := unknownItem
	if len(objects) > 0 {
		primary = objects[0]
	}

	return scan.VisionResult{
		Objects:       objects,
		Texts:         texts,
		PrimaryObject: primary,
	}
}

func truncate(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
