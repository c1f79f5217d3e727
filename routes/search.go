package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Michillas/Michibox/imdb"
)

const discoverLimit = 12

// handleSearch serves both search paths: free text via ?query=, structured
// filters otherwise. Upstream timeouts degrade to empty results on purpose;
// a flaky metadata service must never break page rendering.
func (api *API) handleSearch(c *gin.Context) {
	if query := c.Query("query"); query != "" {
		resp, err := api.IMDB.SearchByKeyword(c.Request.Context(), query, 20)
		if err != nil && !errors.Is(err, imdb.ErrUnavailable) {
			api.log().Error("Search failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
			return
		}

		results := resp.Titles
		if titleType := c.Query("type"); titleType != "" {
			filtered := make([]imdb.Title, 0, len(results))
			for _, t := range results {
				if t.Type == titleType {
					filtered = append(filtered, t)
				}
			}
			results = filtered
		}
		if results == nil {
			results = []imdb.Title{}
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	params := imdb.SearchParams{
		Genres:    c.QueryArray("genres"),
		SortBy:    imdb.SortBy(c.Query("sortBy")),
		SortOrder: c.Query("sortOrder"),
		PageToken: c.Query("pageToken"),
	}
	for _, t := range c.QueryArray("types") {
		params.Types = append(params.Types, imdb.TitleType(t))
	}
	if v := c.Query("startYear"); v != "" {
		params.StartYear, _ = strconv.Atoi(v)
	}
	if v := c.Query("endYear"); v != "" {
		params.EndYear, _ = strconv.Atoi(v)
	}
	if v := c.Query("minAggregateRating"); v != "" {
		params.MinAggregateRating, _ = strconv.ParseFloat(v, 64)
	}

	resp, err := api.IMDB.SearchTitles(c.Request.Context(), params)
	if errors.Is(err, imdb.ErrUnavailable) {
		resp = imdb.SearchResponse{}
	} else if err != nil {
		api.log().Error("Search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	if resp.Titles == nil {
		resp.Titles = []imdb.Title{}
	}
	c.JSON(http.StatusOK, resp)
}

// handleDiscover maps a category token onto a preset search and truncates
// the answer to a carousel-sized page. Any upstream trouble answers empty.
func (api *API) handleDiscover(c *gin.Context) {
	category := c.DefaultQuery("category", "trending")
	params := imdb.CategoryParams(category, time.Now())

	resp, err := api.IMDB.SearchTitles(c.Request.Context(), params)
	if err != nil {
		if !errors.Is(err, imdb.ErrUnavailable) {
			api.log().Error("Discover failed", zap.Error(err), zap.String("category", category))
		}
		resp = imdb.SearchResponse{}
	}

	results := resp.Titles
	if len(results) > discoverLimit {
		results = results[:discoverLimit]
	}
	if results == nil {
		results = []imdb.Title{}
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleGetTitle is the one metadata path that surfaces upstream failure
// instead of an empty fallback.
func (api *API) handleGetTitle(c *gin.Context) {
	detail, err := api.IMDB.GetTitleByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.log().Error("Error fetching title", zap.Error(err), zap.String("id", c.Param("id")))
		c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
		return
	}
	c.JSON(http.StatusOK, detail)
}
