// Package app wires the pipeline stages from configuration.
package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/appraisal"
	"github.com/Toverson/Thrifter-s-Eye/internal/config"
	"github.com/Toverson/Thrifter-s-Eye/internal/llm"
	"github.com/Toverson/Thrifter-s-Eye/internal/search"
	"github.com/Toverson/Thrifter-s-Eye/internal/vision"
)

// NewAnalyzer builds the recognition stage. Missing credentials leave it in
// fallback mode.
func NewAnalyzer(cfg *config.Config) *vision.Analyzer {
	if !cfg.VisionEnabled() {
		log.Warn().Msg("GOOGLE_VISION_API_KEY not set, recognition runs in fallback mode")
		return vision.NewAnalyzer(nil, cfg.Vision.Timeout)
	}

	var annotator vision.Annotator = vision.NewCloudVisionClient(vision.ClientOpts{
		APIKey:  cfg.Vision.APIKey,
		Timeout: cfg.Vision.Timeout,
	})
	if cfg.Vision.CacheSize > 0 {
		annotator = vision.NewCachedAnnotator(annotator, cfg.Vision.CacheSize, cfg.Vision.CacheTTL)
		log.Info().Int("size", cfg.Vision.CacheSize).Dur("ttl", cfg.Vision.CacheTTL).Msg("vision caching enabled")
	}
	return vision.NewAnalyzer(annotator, cfg.Vision.Timeout)
}

// NewSearcher builds the search stage.
func NewSearcher(cfg *config.Config) *search.Searcher {
	if !cfg.SearchEnabled() {
		log.Warn().Msg("GOOGLE_SEARCH_API_KEY or GOOGLE_SEARCH_ENGINE_ID not set, search runs in fallback mode")
		return search.NewSearcher(nil, cfg.Search.Timeout)
	}
	return search.NewSearcher(search.NewCustomSearchClient(search.ClientOpts{
		APIKey:   cfg.Search.APIKey,
		EngineID: cfg.Search.EngineID,
		Timeout:  cfg.Search.Timeout,
	}), cfg.Search.Timeout)
}

// NewAppraiser builds the synthesis stage for the configured provider.
func NewAppraiser(ctx context.Context, cfg *config.Config) *appraisal.Appraiser {
	if !cfg.LLMEnabled() {
		log.Warn().Str("provider", cfg.LLM.Provider).Msg("LLM API key not set, appraisal runs in fallback mode")
		return appraisal.NewAppraiser(nil, cfg.LLM.Timeout)
	}

	var generator llm.Generator
	switch cfg.LLM.Provider {
	case "openai":
		generator = llm.NewOpenAIGenerator(llm.OpenAIOpts{
			APIKey: cfg.LLM.OpenAIAPIKey,
			Model:  cfg.LLM.OpenAIModel,
		})
	default:
		gemini, err := llm.NewGeminiGenerator(ctx, llm.GeminiOpts{
			APIKey: cfg.LLM.GeminiAPIKey,
			Model:  cfg.LLM.GeminiModel,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize gemini, appraisal runs in fallback mode")
			return appraisal.NewAppraiser(nil, cfg.LLM.Timeout)
		}
		generator = gemini
	}
	log.Info().Str("provider", cfg.LLM.Provider).Msg("llm generator initialized")
	return appraisal.NewAppraiser(generator, cfg.LLM.Timeout)
}
