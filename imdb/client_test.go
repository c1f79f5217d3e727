package imdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTitlesBuildsQuery(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/titles", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"titles":[{"id":"tt1","type":"movie","primaryTitle":"Dune"}],"nextPageToken":"abc"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.SearchTitles(context.Background(), SearchParams{
		Types:              []TitleType{TypeMovie, TypeTVSeries},
		Genres:             []string{"Sci-Fi"},
		StartYear:          2020,
		MinAggregateRating: 7,
		SortBy:             SortByPopularity,
		SortOrder:          "ASC",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"MOVIE", "TV_SERIES"}, gotQuery["types"])
	assert.Equal(t, []string{"Sci-Fi"}, gotQuery["genres"])
	assert.Equal(t, []string{"2020"}, gotQuery["startYear"])
	assert.Equal(t, []string{"7"}, gotQuery["minAggregateRating"])
	assert.Equal(t, []string{"SORT_BY_POPULARITY"}, gotQuery["sortBy"])
	assert.Equal(t, []string{"ASC"}, gotQuery["sortOrder"])
	assert.NotContains(t, gotQuery, "endYear")
	assert.NotContains(t, gotQuery, "pageToken")

	require.Len(t, resp.Titles, 1)
	assert.Equal(t, "tt1", resp.Titles[0].ID)
	assert.Equal(t, "abc", resp.NextPageToken)
}

func TestSearchTitlesTimeoutIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.HTTPClient.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := client.SearchTitles(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestSearchTitlesUpstreamErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SearchTitles(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSearchByKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/titles", r.URL.Path)
		assert.Equal(t, "stranger", r.URL.Query().Get("query"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"titles":[{"id":"tt4574334","type":"tvSeries","primaryTitle":"Stranger Things"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	// A non-positive limit falls back to the default page size.
	resp, err := client.SearchByKeyword(context.Background(), "stranger", 0)
	require.NoError(t, err)
	require.Len(t, resp.Titles, 1)
	assert.Equal(t, "Stranger Things", resp.Titles[0].PrimaryTitle)
}

func TestSearchByKeywordFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SearchByKeyword(context.Background(), "anything", 20)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetTitleByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/title/tt0903747", r.URL.Path)
		w.Write([]byte(`{
			"id": "tt0903747",
			"type": "tvSeries",
			"primaryTitle": "Breaking Bad",
			"rating": {"aggregateRating": 9.5, "voteCount": 2000000},
			"directors": [{"id": "nm1", "name": "Someone"}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	detail, err := client.GetTitleByID(context.Background(), "tt0903747")
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", detail.PrimaryTitle)
	require.NotNil(t, detail.Rating)
	assert.Equal(t, 9.5, detail.Rating.AggregateRating)
	require.Len(t, detail.Directors, 1)
}

// Detail lookups propagate failure instead of coalescing it.
func TestGetTitleByIDPropagatesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetTitleByID(context.Background(), "tt0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("")
	assert.Equal(t, DefaultBaseURL, client.BaseURL)
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)
}
