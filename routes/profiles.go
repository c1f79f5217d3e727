package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Michillas/Michibox/db"
	m "github.com/Michillas/Michibox/models"
)

func (api *API) handleGetProfile(c *gin.Context) {
	profile, err := api.DB.GetProfileByUserID(currentUserID(c))
	if errors.Is(err, db.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		api.log().Error("Error fetching user profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type createProfileRequest struct {
	Username    string  `json:"username"`
	Slug        string  `json:"slug"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	IsPublic    *bool   `json:"is_public"`
}

func (api *API) handleCreateProfile(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile data"})
		return
	}
	if req.Username == "" || req.Slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and slug are required"})
		return
	}
	if !m.SlugPattern.MatchString(req.Slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must contain only lowercase letters, numbers, and hyphens"})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	profile, err := api.DB.CreateProfile(currentUserID(c), m.UserProfile{
		Username:    req.Username,
		Slug:        req.Slug,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		IsPublic:    isPublic,
	})
	if errors.Is(err, db.ErrProfileTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or slug already taken"})
		return
	}
	if err != nil {
		api.log().Error("Error creating user profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleUpdateProfile changes the mutable profile fields. Username and slug
// are write-once and not accepted here at all.
func (api *API) handleUpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatar_url"`
		IsPublic    *bool   `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile data"})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	profile, err := api.DB.UpdateProfile(currentUserID(c), req.DisplayName, req.Bio, req.AvatarURL, isPublic)
	if errors.Is(err, db.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		api.log().Error("Error updating user profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// resolvePublicUser maps a slug to its owning user id, applying the
// visibility gate. Missing and private profiles get the same answer so a
// viewer cannot probe whether a slug exists.
func (api *API) resolvePublicUser(c *gin.Context) (string, bool) {
	profile, err := api.DB.GetProfileBySlug(c.Param("slug"))
	if errors.Is(err, db.ErrProfileNotFound) || (err == nil && !profile.IsPublic) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return "", false
	}
	if err != nil {
		api.log().Error("Error fetching profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return "", false
	}
	return profile.UserID, true
}

func (api *API) handlePublicProfile(c *gin.Context) {
	profile, err := api.DB.GetProfileBySlug(c.Param("slug"))
	if errors.Is(err, db.ErrProfileNotFound) || (err == nil && !profile.IsPublic) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		api.log().Error("Error fetching profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}
	c.JSON(http.StatusOK, profile.Public())
}

func (api *API) handlePublicWatchlist(c *gin.Context) {
	userID, ok := api.resolvePublicUser(c)
	if !ok {
		return
	}
	items, err := api.DB.GetWatchlist(userID)
	if err != nil {
		api.log().Error("Error fetching watchlist items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch watchlist items"})
		return
	}
	if items == nil {
		items = []m.WatchlistItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (api *API) handlePublicWatched(c *gin.Context) {
	userID, ok := api.resolvePublicUser(c)
	if !ok {
		return
	}
	items, err := api.DB.GetWatched(userID)
	if err != nil {
		api.log().Error("Error fetching watched items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch watched items"})
		return
	}
	if items == nil {
		items = []m.WatchedItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (api *API) handlePublicTopSeries(c *gin.Context) {
	userID, ok := api.resolvePublicUser(c)
	if !ok {
		return
	}
	items, err := api.DB.GetTopSeries(userID)
	if err != nil {
		api.log().Error("Error fetching top series", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch top series"})
		return
	}
	if items == nil {
		items = []m.TopSeriesItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (api *API) handlePublicStats(c *gin.Context) {
	userID, ok := api.resolvePublicUser(c)
	if !ok {
		return
	}
	stats, err := api.DB.GetUserStats(userID)
	if err != nil {
		api.log().Error("Error fetching stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
