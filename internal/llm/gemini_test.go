package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerator_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"itemName\": \"Teapot\"}\n"}]}}],
			"usageMetadata": {"promptTokenCount": 200, "candidatesTokenCount": 40, "totalTokenCount": 240}
		}`))
	}))
	defer ts.Close()

	gen, err := NewGeminiGenerator(context.Background(), GeminiOpts{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), "appraise this")
	require.NoError(t, err)
	assert.Equal(t, `{"itemName": "Teapot"}`, reply)
}

func TestGeminiGenerator_EmptyCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer ts.Close()

	gen, err := NewGeminiGenerator(context.Background(), GeminiOpts{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "appraise this")
	assert.Error(t, err)
}
