package models

import (
	"regexp"
	"strings"
	"time"
)

// WatchlistItem is a title saved by a user for later viewing. Optional
// metadata fields mirror what the IMDb API returns and may be absent.
type WatchlistItem struct {
	ID             int       `json:"id"`
	UserID         string    `json:"user_id"`
	ImdbID         string    `json:"imdb_id"`
	Title          string    `json:"title"`
	OriginalTitle  *string   `json:"original_title"`
	Type           string    `json:"type"`
	PosterURL      *string   `json:"poster_url"`
	StartYear      *int      `json:"start_year"`
	EndYear        *int      `json:"end_year"`
	RuntimeSeconds *int      `json:"runtime_seconds"`
	Genres         []string  `json:"genres"`
	Rating         *float64  `json:"rating"`
	VoteCount      *int      `json:"vote_count"`
	Plot           *string   `json:"plot"`
	AddedAt        time.Time `json:"added_at"`
}

// WatchedItem is a WatchlistItem the user has seen, with an optional
// personal rating on a 0-10 scale.
type WatchedItem struct {
	WatchlistItem
	WatchedAt  time.Time `json:"watched_at"`
	UserRating *int      `json:"user_rating"`
}

// TopSeriesItem is an entry in a user's ranked favorites list. Rank is
// 1-based and dense per user.
type TopSeriesItem struct {
	ID            int       `json:"id"`
	UserID        string    `json:"user_id"`
	ImdbID        string    `json:"imdb_id"`
	Title         string    `json:"title"`
	OriginalTitle *string   `json:"original_title"`
	PosterURL     *string   `json:"poster_url"`
	StartYear     *int      `json:"start_year"`
	EndYear       *int      `json:"end_year"`
	Genres        []string  `json:"genres"`
	Rating        *float64  `json:"rating"`
	VoteCount     *int      `json:"vote_count"`
	Plot          *string   `json:"plot"`
	Rank          int       `json:"rank"`
	AddedAt       time.Time `json:"added_at"`
}

// RankUpdate is one (imdb_id, rank) pair of a full reorder request.
type RankUpdate struct {
	ImdbID string `json:"imdb_id"`
	Rank   int    `json:"rank"`
}

// UserProfile is a user's public-facing page. Username and slug are
// write-once; the rest is editable.
type UserProfile struct {
	ID          int       `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Slug        string    `json:"slug"`
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicProfile is the subset of UserProfile exposed to anonymous viewers.
type PublicProfile struct {
	ID          int     `json:"id"`
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	Slug        string  `json:"slug"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	IsPublic    bool    `json:"is_public"`
}

// Public returns the anonymous-viewer subset of the profile.
func (p UserProfile) Public() PublicProfile {
	return PublicProfile{
		ID:          p.ID,
		UserID:      p.UserID,
		Username:    p.Username,
		Slug:        p.Slug,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		IsPublic:    p.IsPublic,
	}
}

// UserStats aggregates a user's list sizes and average personal rating.
type UserStats struct {
	WatchedCount   int     `json:"watchedCount"`
	WatchlistCount int     `json:"watchlistCount"`
	TopSeriesCount int     `json:"topSeriesCount"`
	AverageRating  float64 `json:"averageRating"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// SlugPattern is the only shape a profile slug may take.
var SlugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var slugCleaner = regexp.MustCompile(`[^a-z0-9-]+`)
var slugDashes = regexp.MustCompile(`-+`)

// Slugify derives a URL-safe slug from free text: lowercase, every run of
// disallowed characters becomes a single hyphen.
func Slugify(s string) string {
	slug := strings.ToLower(s)
	slug = slugCleaner.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return slug
}
