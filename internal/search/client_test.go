package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomSearchClient_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "engine", q.Get("cx"))
		assert.Equal(t, "Pyrex bowl price value", q.Get("q"))
		assert.Equal(t, "5", q.Get("num"))
		assert.Equal(t, "ca", q.Get("gl"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"searchInformation": {"totalResults": "2"},
			"items": [
				{"title": "Vintage Pyrex Bowl", "link": "https://example.com/1", "snippet": "Pink Gooseberry"},
				{"title": "Pyrex Mixing Bowl", "link": "https://example.com/2"}
			]
		}`))
	}))
	defer ts.Close()

	client := NewCustomSearchClient(ClientOpts{APIKey: "test-key", EngineID: "engine", BaseURL: ts.URL})
	res, err := client.Search(context.Background(), Query{Text: "Pyrex bowl price value", CountryCode: "CA", Num: 5})
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{Title: "Vintage Pyrex Bowl", Link: "https://example.com/1", Snippet: "Pink Gooseberry"},
		{Title: "Pyrex Mixing Bowl", Link: "https://example.com/2"},
	}, res.Items)
	assert.Contains(t, res.Raw, "searchInformation")
}

func TestCustomSearchClient_NoItems(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"searchInformation": {"totalResults": "0"}}`))
	}))
	defer ts.Close()

	client := NewCustomSearchClient(ClientOpts{APIKey: "k", EngineID: "e", BaseURL: ts.URL})
	res, err := client.Search(context.Background(), Query{Text: "nothing"})
	require.NoError(t, err)

	assert.Empty(t, res.Items)
}

func TestCustomSearchClient_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "Quota exceeded"}}`))
	}))
	defer ts.Close()

	client := NewCustomSearchClient(ClientOpts{APIKey: "k", EngineID: "e", BaseURL: ts.URL})
	_, err := client.Search(context.Background(), Query{Text: "lamp"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
