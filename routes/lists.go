package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Michillas/Michibox/db"
	m "github.com/Michillas/Michibox/models"
)

// List reads answer an empty array on persistence failure so a flaky
// database degrades the page instead of erroring it.

func (api *API) handleGetWatchlist(c *gin.Context) {
	items, err := api.DB.GetWatchlist(currentUserID(c))
	if err != nil {
		api.log().Error("Error getting watchlist", zap.Error(err))
		c.JSON(http.StatusOK, []m.WatchlistItem{})
		return
	}
	if items == nil {
		items = []m.WatchlistItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (api *API) handleAddToWatchlist(c *gin.Context) {
	var item m.WatchlistItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item data"})
		return
	}
	if item.ImdbID == "" || item.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imdb_id and title are required"})
		return
	}

	item, err := api.DB.AddToWatchlist(currentUserID(c), item)
	if err != nil {
		api.log().Error("Error adding to watchlist", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to watchlist"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (api *API) handleRemoveFromWatchlist(c *gin.Context) {
	imdbID := c.Query("imdbId")
	if imdbID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imdbId is required"})
		return
	}

	if err := api.DB.RemoveFromWatchlist(currentUserID(c), imdbID); err != nil {
		api.log().Error("Error removing from watchlist", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove from watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (api *API) handleGetWatched(c *gin.Context) {
	items, err := api.DB.GetWatched(currentUserID(c))
	if err != nil {
		api.log().Error("Error getting watched", zap.Error(err))
		c.JSON(http.StatusOK, []m.WatchedItem{})
		return
	}
	if items == nil {
		items = []m.WatchedItem{}
	}
	c.JSON(http.StatusOK, items)
}

type addWatchedRequest struct {
	m.WatchedItem
	FromWatchlist bool `json:"fromWatchlist"`
}

func (api *API) handleAddToWatched(c *gin.Context) {
	var req addWatchedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item data"})
		return
	}
	if req.ImdbID == "" || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imdb_id and title are required"})
		return
	}

	userID := currentUserID(c)
	if req.FromWatchlist {
		item, err := api.DB.MoveToWatched(userID, req.WatchedItem)
		if errors.Is(err, db.ErrNotInWatchlist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in watchlist"})
			return
		}
		if err != nil {
			api.log().Error("Error moving to watched", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to watched"})
			return
		}
		c.JSON(http.StatusOK, item)
		return
	}

	item, err := api.DB.AddToWatched(userID, req.WatchedItem)
	if err != nil {
		api.log().Error("Error adding to watched", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to watched"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (api *API) handleRemoveFromWatched(c *gin.Context) {
	imdbID := c.Query("imdbId")
	if imdbID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imdbId is required"})
		return
	}

	if err := api.DB.RemoveFromWatched(currentUserID(c), imdbID); err != nil {
		api.log().Error("Error removing from watched", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove from watched"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (api *API) handleGetTopSeries(c *gin.Context) {
	items, err := api.DB.GetTopSeries(currentUserID(c))
	if err != nil {
		api.log().Error("Error getting top series", zap.Error(err))
		c.JSON(http.StatusOK, []m.TopSeriesItem{})
		return
	}
	if items == nil {
		items = []m.TopSeriesItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (api *API) handleAddToTopSeries(c *gin.Context) {
	var item m.TopSeriesItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item data"})
		return
	}
	if item.ImdbID == "" || item.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imdb_id and title are required"})
		return
	}
	if item.Rank < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rank must be a positive integer"})
		return
	}

	item, err := api.DB.AddToTopSeries(currentUserID(c), item)
	if err != nil {
		api.log().Error("Error adding to top series", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to top series"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (api *API) handleRemoveFromTopSeries(c *gin.Context) {
	imdbID := c.Query("imdbId")
	if imdbID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imdbId is required"})
		return
	}

	if err := api.DB.RemoveFromTopSeries(currentUserID(c), imdbID); err != nil {
		api.log().Error("Error removing from top series", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove from top series"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleReorderTopSeries applies a full reorder: the body must carry the
// complete desired ranking, not a delta.
func (api *API) handleReorderTopSeries(c *gin.Context) {
	var body struct {
		Items []m.RankUpdate `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reorder data"})
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items is required"})
		return
	}

	if err := api.DB.ReorderTopSeries(currentUserID(c), body.Items); err != nil {
		api.log().Error("Error updating top series ranks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ranks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (api *API) handleGetStats(c *gin.Context) {
	stats, err := api.DB.GetUserStats(currentUserID(c))
	if err != nil {
		api.log().Error("Error getting stats", zap.Error(err))
		c.JSON(http.StatusOK, m.UserStats{})
		return
	}
	c.JSON(http.StatusOK, stats)
}
