// Package imdb wraps the free IMDb metadata API (api.imdbapi.dev).
//
// The two search calls answer ErrUnavailable on timeout or a non-success
// status so callers can decide to degrade to an empty result set. Detail
// lookups propagate their errors unchanged.
package imdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.imdbapi.dev"

// requestTimeout bounds the total wait for any upstream call.
const requestTimeout = 5 * time.Second

// ErrUnavailable marks a search outcome the caller may coalesce into an
// empty result set.
var ErrUnavailable = errors.New("imdb: upstream unavailable")

type TitleType string

const (
	TypeMovie        TitleType = "MOVIE"
	TypeTVSeries     TitleType = "TV_SERIES"
	TypeTVMiniSeries TitleType = "TV_MINI_SERIES"
	TypeTVSpecial    TitleType = "TV_SPECIAL"
	TypeTVMovie      TitleType = "TV_MOVIE"
	TypeShort        TitleType = "SHORT"
	TypeVideo        TitleType = "VIDEO"
	TypeVideoGame    TitleType = "VIDEO_GAME"
)

type SortBy string

const (
	SortByPopularity  SortBy = "SORT_BY_POPULARITY"
	SortByReleaseDate SortBy = "SORT_BY_RELEASE_DATE"
	SortByUserRating  SortBy = "SORT_BY_USER_RATING"
	SortByRatingCount SortBy = "SORT_BY_USER_RATING_COUNT"
	SortByYear        SortBy = "SORT_BY_YEAR"
)

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type RatingSummary struct {
	AggregateRating float64 `json:"aggregateRating"`
	VoteCount       int     `json:"voteCount"`
}

// Title is one search result from the upstream API.
type Title struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	PrimaryTitle   string         `json:"primaryTitle"`
	OriginalTitle  string         `json:"originalTitle,omitempty"`
	PrimaryImage   *Image         `json:"primaryImage,omitempty"`
	StartYear      *int           `json:"startYear,omitempty"`
	EndYear        *int           `json:"endYear,omitempty"`
	RuntimeSeconds *int           `json:"runtimeSeconds,omitempty"`
	Genres         []string       `json:"genres,omitempty"`
	Rating         *RatingSummary `json:"rating,omitempty"`
	Plot           string         `json:"plot,omitempty"`
}

type SearchResponse struct {
	Titles        []Title `json:"titles"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Characters []string `json:"characters,omitempty"`
}

type ReleaseDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// TitleDetail is the full record returned by the by-id lookup.
type TitleDetail struct {
	Title
	ReleaseDate       *ReleaseDate `json:"releaseDate,omitempty"`
	CountriesOfOrigin []string     `json:"countriesOfOrigin,omitempty"`
	SpokenLanguages   []string     `json:"spokenLanguages,omitempty"`
	Directors         []Person     `json:"directors,omitempty"`
	Writers           []Person     `json:"writers,omitempty"`
	Cast              []CastMember `json:"cast,omitempty"`
}

// SearchParams are the structured filters of the /titles endpoint. Zero
// values are omitted from the query string.
type SearchParams struct {
	Types              []TitleType
	Genres             []string
	StartYear          int
	EndYear            int
	MinAggregateRating float64
	SortBy             SortBy
	SortOrder          string // "ASC" or "DESC"
	PageToken          string
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	for _, t := range p.Types {
		v.Add("types", string(t))
	}
	for _, g := range p.Genres {
		v.Add("genres", g)
	}
	if p.StartYear != 0 {
		v.Set("startYear", strconv.Itoa(p.StartYear))
	}
	if p.EndYear != 0 {
		v.Set("endYear", strconv.Itoa(p.EndYear))
	}
	if p.MinAggregateRating != 0 {
		v.Set("minAggregateRating", strconv.FormatFloat(p.MinAggregateRating, 'f', -1, 64))
	}
	if p.SortBy != "" {
		v.Set("sortBy", string(p.SortBy))
	}
	if p.SortOrder != "" {
		v.Set("sortOrder", p.SortOrder)
	}
	if p.PageToken != "" {
		v.Set("pageToken", p.PageToken)
	}
	return v
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SearchTitles runs a filtered title search. Timeouts and upstream failures
// come back as ErrUnavailable.
func (c *Client) SearchTitles(ctx context.Context, params SearchParams) (SearchResponse, error) {
	var out SearchResponse
	if err := c.get(ctx, "/titles", params.values(), &out); err != nil {
		return SearchResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// SearchByKeyword runs the free-text search used by the search box.
func (c *Client) SearchByKeyword(ctx context.Context, keyword string, limit int) (SearchResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	v := url.Values{}
	v.Set("query", keyword)
	v.Set("limit", strconv.Itoa(limit))

	var out SearchResponse
	if err := c.get(ctx, "/search/titles", v, &out); err != nil {
		return SearchResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// GetTitleByID fetches one title's full record. Unlike the search calls this
// propagates failure: an empty fallback would be misleading to its callers.
func (c *Client) GetTitleByID(ctx context.Context, id string) (TitleDetail, error) {
	var out TitleDetail
	if err := c.get(ctx, "/title/"+url.PathEscape(id), nil, &out); err != nil {
		return TitleDetail{}, err
	}
	return out, nil
}
