package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

type mockWebSearcher struct {
	mock.Mock
}

func (m *mockWebSearcher) Search(ctx context.Context, q Query) (*Response, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*Response)
	return res, args.Error(1)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		vision scan.VisionResult
		want   string
	}{
		{
			name:   "texts and primary object",
			vision: scan.VisionResult{Texts: []string{"PYREX", "USA", "1950"}, PrimaryObject: "Bowl"},
			want:   "PYREX USA Bowl",
		},
		{
			name:   "primary object only",
			vision: scan.VisionResult{PrimaryObject: "Lamp"},
			want:   "Lamp",
		},
		{
			name:   "blank entries skipped",
			vision: scan.VisionResult{Texts: []string{"  ", "SONY"}, PrimaryObject: "Radio"},
			want:   "SONY Radio",
		},
		{
			name:   "nothing detected",
			vision: scan.VisionResult{},
			want:   "vintage collectible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.vision))
		})
	}
}

func TestSearch_NormalizesListings(t *testing.T) {
	client := new(mockWebSearcher)
	var items []Item
	for i := 1; i <= 8; i++ {
		items = append(items, Item{
			Title:   fmt.Sprintf("Result %d", i),
			Link:    fmt.Sprintf("https://example.com/%d", i),
			Snippet: "snippet",
		})
	}
	client.On("Search", mock.Anything, Query{Text: "PYREX Bowl price value", CountryCode: "CA", Num: 5}).
		Return(&Response{Items: items, Raw: map[string]any{"kind": "customsearch#search"}}, nil)

	vision := scan.VisionResult{Texts: []string{"PYREX"}, PrimaryObject: "Bowl"}
	result := NewSearcher(client, time.Second).Search(context.Background(), vision, "CA")

	assert.Equal(t, "PYREX Bowl", result.Query)
	assert.Len(t, result.Listings, 5)
	for _, l := range result.Listings {
		assert.Equal(t, "N/A", l.Price)
	}
	assert.Equal(t, "Result 1", result.Listings[0].Title)
	assert.Equal(t, "customsearch#search", result.Raw["kind"])
	assert.False(t, result.Degraded)
	client.AssertExpectations(t)
}

func TestSearch_ErrorReturnsFallback(t *testing.T) {
	client := new(mockWebSearcher)
	client.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded")).Once()

	result := NewSearcher(client, time.Second).Search(context.Background(), scan.VisionResult{PrimaryObject: "Lamp"}, "US")

	assert.Equal(t, "", result.Query)
	assert.Empty(t, result.Listings)
	assert.NotNil(t, result.Listings)
	assert.Empty(t, result.Raw)
	assert.True(t, result.Degraded)
	client.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearch_NotConfiguredReturnsFallback(t *testing.T) {
	result := NewSearcher(nil, 0).Search(context.Background(), scan.VisionResult{PrimaryObject: "Lamp"}, "US")

	assert.Equal(t, Fallback(), result)
}

func TestSearch_NilRawBecomesEmptyMap(t *testing.T) {
	client := new(mockWebSearcher)
	client.On("Search", mock.Anything, mock.Anything).Return(&Response{}, nil)

	result := NewSearcher(client, time.Second).Search(context.Background(), scan.VisionResult{PrimaryObject: "Lamp"}, "US")

	assert.NotNil(t, result.Raw)
	assert.Empty(t, result.Listings)
	assert.False(t, result.Degraded)
}
