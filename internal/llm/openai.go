package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/Toverson/Thrifter-s-Eye/internal/metrics"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"

	openAIMaxTokens = 2048
)

type OpenAIOpts struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIGenerator generates text with an OpenAI-compatible chat completion
// API, requesting a JSON object reply.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(opts OpenAIOpts) *OpenAIGenerator {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg), model: model}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// Reasoning models reject MaxTokens.
	if isReasoningModel(g.model) {
		req.MaxCompletionTokens = openAIMaxTokens
	} else {
		req.MaxTokens = openAIMaxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}

	metrics.LLMTokens(g.model, int64(resp.Usage.PromptTokens), int64(resp.Usage.CompletionTokens))
	log.Info().
		Str("model", g.model).
		Int("inputTokens", resp.Usage.PromptTokens).
		Int("outputTokens", resp.Usage.CompletionTokens).
		Msg("appraisal llm call")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
