package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Michillas/Michibox/imdb"
	m "github.com/Michillas/Michibox/models"
)

const testUserID = "user-test-1"

// MockDBService is a testify mock of the DBService interface.
type MockDBService struct {
	mock.Mock
}

func (mk *MockDBService) ValidateUser(username, password string) (m.User, error) {
	args := mk.Called(username, password)
	return args.Get(0).(m.User), args.Error(1)
}

func (mk *MockDBService) InsertNewUser(user m.User) (m.User, error) {
	args := mk.Called(user)
	return args.Get(0).(m.User), args.Error(1)
}

func (mk *MockDBService) GetWatchlist(userID string) ([]m.WatchlistItem, error) {
	args := mk.Called(userID)
	return args.Get(0).([]m.WatchlistItem), args.Error(1)
}

func (mk *MockDBService) AddToWatchlist(userID string, item m.WatchlistItem) (m.WatchlistItem, error) {
	args := mk.Called(userID, item)
	return args.Get(0).(m.WatchlistItem), args.Error(1)
}

func (mk *MockDBService) RemoveFromWatchlist(userID, imdbID string) error {
	args := mk.Called(userID, imdbID)
	return args.Error(0)
}

func (mk *MockDBService) IsInWatchlist(userID, imdbID string) (bool, error) {
	args := mk.Called(userID, imdbID)
	return args.Bool(0), args.Error(1)
}

func (mk *MockDBService) GetWatched(userID string) ([]m.WatchedItem, error) {
	args := mk.Called(userID)
	return args.Get(0).([]m.WatchedItem), args.Error(1)
}

func (mk *MockDBService) AddToWatched(userID string, item m.WatchedItem) (m.WatchedItem, error) {
	args := mk.Called(userID, item)
	return args.Get(0).(m.WatchedItem), args.Error(1)
}

func (mk *MockDBService) MoveToWatched(userID string, item m.WatchedItem) (m.WatchedItem, error) {
	args := mk.Called(userID, item)
	return args.Get(0).(m.WatchedItem), args.Error(1)
}

func (mk *MockDBService) RemoveFromWatched(userID, imdbID string) error {
	args := mk.Called(userID, imdbID)
	return args.Error(0)
}

func (mk *MockDBService) GetTopSeries(userID string) ([]m.TopSeriesItem, error) {
	args := mk.Called(userID)
	return args.Get(0).([]m.TopSeriesItem), args.Error(1)
}

func (mk *MockDBService) AddToTopSeries(userID string, item m.TopSeriesItem) (m.TopSeriesItem, error) {
	args := mk.Called(userID, item)
	return args.Get(0).(m.TopSeriesItem), args.Error(1)
}

func (mk *MockDBService) RemoveFromTopSeries(userID, imdbID string) error {
	args := mk.Called(userID, imdbID)
	return args.Error(0)
}

func (mk *MockDBService) ReorderTopSeries(userID string, updates []m.RankUpdate) error {
	args := mk.Called(userID, updates)
	return args.Error(0)
}

func (mk *MockDBService) GetProfileByUserID(userID string) (m.UserProfile, error) {
	args := mk.Called(userID)
	return args.Get(0).(m.UserProfile), args.Error(1)
}

func (mk *MockDBService) GetProfileBySlug(slug string) (m.UserProfile, error) {
	args := mk.Called(slug)
	return args.Get(0).(m.UserProfile), args.Error(1)
}

func (mk *MockDBService) CreateProfile(userID string, profile m.UserProfile) (m.UserProfile, error) {
	args := mk.Called(userID, profile)
	return args.Get(0).(m.UserProfile), args.Error(1)
}

func (mk *MockDBService) UpdateProfile(userID string, displayName, bio, avatarURL *string, isPublic bool) (m.UserProfile, error) {
	args := mk.Called(userID, displayName, bio, avatarURL, isPublic)
	return args.Get(0).(m.UserProfile), args.Error(1)
}

func (mk *MockDBService) GetUserStats(userID string) (m.UserStats, error) {
	args := mk.Called(userID)
	return args.Get(0).(m.UserStats), args.Error(1)
}

// MockMetadataService is a testify mock of the MetadataService interface.
type MockMetadataService struct {
	mock.Mock
}

func (mk *MockMetadataService) SearchTitles(ctx context.Context, params imdb.SearchParams) (imdb.SearchResponse, error) {
	args := mk.Called(ctx, params)
	return args.Get(0).(imdb.SearchResponse), args.Error(1)
}

func (mk *MockMetadataService) SearchByKeyword(ctx context.Context, keyword string, limit int) (imdb.SearchResponse, error) {
	args := mk.Called(ctx, keyword, limit)
	return args.Get(0).(imdb.SearchResponse), args.Error(1)
}

func (mk *MockMetadataService) GetTitleByID(ctx context.Context, id string) (imdb.TitleDetail, error) {
	args := mk.Called(ctx, id)
	return args.Get(0).(imdb.TitleDetail), args.Error(1)
}

// MockConfigService is a testify mock of the ConfigService interface.
type MockConfigService struct {
	mock.Mock
}

func (mk *MockConfigService) GetJWTSecret() string {
	args := mk.Called()
	return args.String(0)
}

func (mk *MockConfigService) GetServerPort() string {
	args := mk.Called()
	return args.String(0)
}

func (mk *MockConfigService) GetAllowedOrigins() []string {
	args := mk.Called()
	return args.Get(0).([]string)
}

// authedRouter registers the handler behind a stub that injects the caller's
// identity, the same way authMiddleware does for real requests.
func authedRouter(method, path string, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		c.Set("user_id", testUserID)
		handler(c)
	})
	return router
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func rawBody(s string) io.Reader {
	return strings.NewReader(s)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(securityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "test")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupCORS(t *testing.T) {
	mockConfig := new(MockConfigService)
	origins := []string{"http://localhost:8080", "https://example.com"}
	mockConfig.On("GetAllowedOrigins").Return(origins)

	api := &API{Config: mockConfig}
	corsConfig := api.setupCORS()

	assert.Equal(t, origins, corsConfig.AllowOrigins)
	assert.Contains(t, corsConfig.AllowMethods, "GET")
	assert.Contains(t, corsConfig.AllowMethods, "PUT")
	assert.Contains(t, corsConfig.AllowHeaders, "Authorization")
	assert.True(t, corsConfig.AllowCredentials)
	mockConfig.AssertExpectations(t)
}

func TestHandleLogin(t *testing.T) {
	t.Run("Successful login", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockConfig := new(MockConfigService)
		validUser := m.User{ID: testUserID, Username: "testuser", Email: "test@example.com"}
		mockDB.On("ValidateUser", "testuser", "password123").Return(validUser, nil)
		mockConfig.On("GetJWTSecret").Return("test-secret")

		api := &API{DB: mockDB, Config: mockConfig}
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.POST("/login", api.handleLogin)

		req := httptest.NewRequest("POST", "/login", jsonBody(t, map[string]string{
			"username": "testuser",
			"password": "password123",
		}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.NotEmpty(t, body["token"])
		user := body["user"].(map[string]any)
		assert.Equal(t, "testuser", user["username"])
		mockDB.AssertExpectations(t)
	})

	t.Run("Invalid credentials", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("ValidateUser", "testuser", "bad").Return(m.User{}, errors.New("invalid credentials"))

		api := &API{DB: mockDB, Config: new(MockConfigService)}
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.POST("/login", api.handleLogin)

		req := httptest.NewRequest("POST", "/login", jsonBody(t, map[string]string{
			"username": "testuser",
			"password": "bad",
		}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed body", func(t *testing.T) {
		api := &API{DB: new(MockDBService), Config: new(MockConfigService)}
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.POST("/login", api.handleLogin)

		req := httptest.NewRequest("POST", "/login", rawBody("not-json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleRegister(t *testing.T) {
	t.Run("Successful registration", func(t *testing.T) {
		mockDB := new(MockDBService)
		created := m.User{ID: "user-new", Username: "newuser", Email: "new@example.com"}
		mockDB.On("InsertNewUser", mock.MatchedBy(func(u m.User) bool {
			return u.Username == "newuser" && u.Password == "secret"
		})).Return(created, nil)

		api := &API{DB: mockDB}
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.POST("/register", api.handleRegister)

		req := httptest.NewRequest("POST", "/register", jsonBody(t, map[string]string{
			"username": "newuser",
			"email":    "new@example.com",
			"password": "secret",
		}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "user-new", body["id"])
		assert.NotContains(t, body, "password")
	})

	t.Run("Missing fields", func(t *testing.T) {
		api := &API{DB: new(MockDBService)}
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.POST("/register", api.handleRegister)

		req := httptest.NewRequest("POST", "/register", jsonBody(t, map[string]string{"username": "x"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	mockConfig := new(MockConfigService)
	mockConfig.On("GetJWTSecret").Return("test-secret")
	api := &API{Config: mockConfig}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.authMiddleware())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": currentUserID(c)})
	})

	t.Run("Missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Token signed with wrong secret", func(t *testing.T) {
		token, err := generateToken(testUserID, "other-secret")
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid token resolves identity", func(t *testing.T) {
		token, err := generateToken(testUserID, "test-secret")
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, testUserID, body["user_id"])
	})
}
