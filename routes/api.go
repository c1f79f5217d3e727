package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Michillas/Michibox/imdb"
	m "github.com/Michillas/Michibox/models"
)

// DBService is everything the handlers need from the persistence layer.
// Every call takes the caller's identity explicitly; handlers resolve it
// from the session token and thread it through.
type DBService interface {
	ValidateUser(username, password string) (m.User, error)
	InsertNewUser(user m.User) (m.User, error)

	GetWatchlist(userID string) ([]m.WatchlistItem, error)
	AddToWatchlist(userID string, item m.WatchlistItem) (m.WatchlistItem, error)
	RemoveFromWatchlist(userID, imdbID string) error
	IsInWatchlist(userID, imdbID string) (bool, error)

	GetWatched(userID string) ([]m.WatchedItem, error)
	AddToWatched(userID string, item m.WatchedItem) (m.WatchedItem, error)
	MoveToWatched(userID string, item m.WatchedItem) (m.WatchedItem, error)
	RemoveFromWatched(userID, imdbID string) error

	GetTopSeries(userID string) ([]m.TopSeriesItem, error)
	AddToTopSeries(userID string, item m.TopSeriesItem) (m.TopSeriesItem, error)
	RemoveFromTopSeries(userID, imdbID string) error
	ReorderTopSeries(userID string, updates []m.RankUpdate) error

	GetProfileByUserID(userID string) (m.UserProfile, error)
	GetProfileBySlug(slug string) (m.UserProfile, error)
	CreateProfile(userID string, profile m.UserProfile) (m.UserProfile, error)
	UpdateProfile(userID string, displayName, bio, avatarURL *string, isPublic bool) (m.UserProfile, error)

	GetUserStats(userID string) (m.UserStats, error)
}

// MetadataService is the external title database.
type MetadataService interface {
	SearchTitles(ctx context.Context, params imdb.SearchParams) (imdb.SearchResponse, error)
	SearchByKeyword(ctx context.Context, keyword string, limit int) (imdb.SearchResponse, error)
	GetTitleByID(ctx context.Context, id string) (imdb.TitleDetail, error)
}

type ConfigService interface {
	GetJWTSecret() string
	GetServerPort() string
	GetAllowedOrigins() []string
}

// API bundles the services behind the HTTP surface.
type API struct {
	DB     DBService
	IMDB   MetadataService
	Config ConfigService
	Logger *zap.Logger
}

func (api *API) log() *zap.Logger {
	if api.Logger == nil {
		return zap.NewNop()
	}
	return api.Logger
}

var limiter = rate.NewLimiter(5, 10)

func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	}
}

func (api *API) setupCORS() cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = api.Config.GetAllowedOrigins()
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"X-CSRF-Token",
		"Authorization",
	}
	config.ExposeHeaders = []string{"Content-Length"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour
	return config
}

func generateToken(userID, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// authMiddleware resolves the caller's identity from the bearer token and
// stores it in the request context for the handlers.
func (api *API) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(api.Config.GetJWTSecret()), nil
		})
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

func (api *API) handleLogin(c *gin.Context) {
	var loginData struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&loginData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login data"})
		return
	}

	user, err := api.DB.ValidateUser(loginData.Username, loginData.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := generateToken(user.ID, api.Config.GetJWTSecret())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

func (api *API) handleRegister(c *gin.Context) {
	var user m.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if user.Username == "" || user.Email == "" || user.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	user, err := api.DB.InsertNewUser(user)
	if err != nil {
		api.log().Error("Error registering user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

func setupLogger() {
	if gin.Mode() == gin.ReleaseMode {
		f, err := os.Create("gin.log")
		if err != nil {
			log.Fatal("Could not create log file", err)
		}
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout) //log to file and terminal
	}
}

// Router wires middleware and routes. Kept separate from ExposeAPI so tests
// can build a router without a listening server.
func (api *API) Router() *gin.Engine {
	router := gin.Default()

	router.Use(securityHeadersMiddleware())
	router.Use(rateLimitMiddleware())
	router.Use(cors.New(api.setupCORS()))

	router.POST("/register", api.handleRegister)
	router.POST("/login", api.handleLogin)

	// Public directory and discovery endpoints, no session required.
	router.GET("/profiles/:slug", api.handlePublicProfile)
	router.GET("/profiles/:slug/watchlist", api.handlePublicWatchlist)
	router.GET("/profiles/:slug/watched", api.handlePublicWatched)
	router.GET("/profiles/:slug/top-series", api.handlePublicTopSeries)
	router.GET("/profiles/:slug/stats", api.handlePublicStats)
	router.GET("/search", api.handleSearch)
	router.GET("/discover", api.handleDiscover)
	router.GET("/title/:id", api.handleGetTitle)

	protected := router.Group("/")
	protected.Use(api.authMiddleware())
	{
		protected.GET("/watchlist", api.handleGetWatchlist)
		protected.POST("/watchlist", api.handleAddToWatchlist)
		protected.DELETE("/watchlist", api.handleRemoveFromWatchlist)

		protected.GET("/watched", api.handleGetWatched)
		protected.POST("/watched", api.handleAddToWatched)
		protected.DELETE("/watched", api.handleRemoveFromWatched)

		protected.GET("/top-series", api.handleGetTopSeries)
		protected.POST("/top-series", api.handleAddToTopSeries)
		protected.DELETE("/top-series", api.handleRemoveFromTopSeries)
		protected.PUT("/top-series", api.handleReorderTopSeries)

		protected.GET("/profile", api.handleGetProfile)
		protected.POST("/profile", api.handleCreateProfile)
		protected.PUT("/profile", api.handleUpdateProfile)

		protected.GET("/stats", api.handleGetStats)
	}
	return router
}

// ExposeAPI serves the API until SIGINT/SIGTERM, then shuts down gracefully.
func (api *API) ExposeAPI() {
	gin.SetMode(gin.ReleaseMode)
	setupLogger()

	srv := &http.Server{
		Addr:         ":" + api.Config.GetServerPort(),
		Handler:      api.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			api.log().Fatal("Failed to initialize server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	api.log().Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		api.log().Fatal("Server forced to shutdown", zap.Error(err))
	}

	api.log().Info("Server exiting")
}
