package db

import (
	"database/sql"
	"time"

	m "github.com/Michillas/Michibox/models"
)

const watchlistColumns = `id, user_id, imdb_id, title, original_title, type, poster_url,
	start_year, end_year, runtime_seconds, genres, rating, vote_count, plot, added_at`

func scanWatchlistItem(row interface{ Scan(...any) error }) (m.WatchlistItem, error) {
	var item m.WatchlistItem
	var genres sql.NullString
	err := row.Scan(
		&item.ID, &item.UserID, &item.ImdbID, &item.Title, &item.OriginalTitle,
		&item.Type, &item.PosterURL, &item.StartYear, &item.EndYear,
		&item.RuntimeSeconds, &genres, &item.Rating, &item.VoteCount,
		&item.Plot, &item.AddedAt,
	)
	item.Genres = splitGenres(genres)
	return item, err
}

// GetWatchlist returns the user's watchlist, newest first.
func (s *DBService) GetWatchlist(userID string) ([]m.WatchlistItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT ` + watchlistColumns + ` FROM watchlist WHERE user_id = $1 ORDER BY added_at DESC`
	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []m.WatchlistItem
	for rows.Next() {
		item, err := scanWatchlistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddToWatchlist inserts the item for the user. A second add of the same
// title refreshes the stored metadata instead of duplicating the row.
func (s *DBService) AddToWatchlist(userID string, item m.WatchlistItem) (m.WatchlistItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.WatchlistItem{}, err
	}
	defer db.Close()

	item.UserID = userID
	item.AddedAt = time.Now().UTC()

	query := `
		INSERT INTO watchlist (user_id, imdb_id, title, original_title, type, poster_url,
			start_year, end_year, runtime_seconds, genres, rating, vote_count, plot, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, imdb_id) DO UPDATE SET
			title = excluded.title, original_title = excluded.original_title,
			type = excluded.type, poster_url = excluded.poster_url,
			start_year = excluded.start_year, end_year = excluded.end_year,
			runtime_seconds = excluded.runtime_seconds, genres = excluded.genres,
			rating = excluded.rating, vote_count = excluded.vote_count, plot = excluded.plot
		RETURNING id`
	err = db.QueryRow(query,
		item.UserID, item.ImdbID, item.Title, item.OriginalTitle, item.Type,
		item.PosterURL, item.StartYear, item.EndYear, item.RuntimeSeconds,
		joinGenres(item.Genres), item.Rating, item.VoteCount, item.Plot, item.AddedAt,
	).Scan(&item.ID)
	if err != nil {
		return m.WatchlistItem{}, err
	}
	return item, nil
}

// RemoveFromWatchlist deletes the (user, title) pair. Removing an absent
// title is not an error.
func (s *DBService) RemoveFromWatchlist(userID, imdbID string) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`DELETE FROM watchlist WHERE user_id = $1 AND imdb_id = $2`, userID, imdbID)
	return err
}

// IsInWatchlist reports whether the user has the title on their watchlist.
func (s *DBService) IsInWatchlist(userID, imdbID string) (bool, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return false, err
	}
	defer db.Close()

	var one int
	err = db.QueryRow(`SELECT 1 FROM watchlist WHERE user_id = $1 AND imdb_id = $2`, userID, imdbID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const watchedColumns = `id, user_id, imdb_id, title, original_title, type, poster_url,
	start_year, end_year, runtime_seconds, genres, rating, vote_count, plot,
	user_rating, added_at, watched_at`

func scanWatchedItem(row interface{ Scan(...any) error }) (m.WatchedItem, error) {
	var item m.WatchedItem
	var genres sql.NullString
	err := row.Scan(
		&item.ID, &item.UserID, &item.ImdbID, &item.Title, &item.OriginalTitle,
		&item.Type, &item.PosterURL, &item.StartYear, &item.EndYear,
		&item.RuntimeSeconds, &genres, &item.Rating, &item.VoteCount,
		&item.Plot, &item.UserRating, &item.AddedAt, &item.WatchedAt,
	)
	item.Genres = splitGenres(genres)
	return item, err
}

// GetWatched returns the user's watched list, most recently watched first.
func (s *DBService) GetWatched(userID string) ([]m.WatchedItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT ` + watchedColumns + ` FROM watched WHERE user_id = $1 ORDER BY watched_at DESC`
	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []m.WatchedItem
	for rows.Next() {
		item, err := scanWatchedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const insertWatchedQuery = `
	INSERT INTO watched (user_id, imdb_id, title, original_title, type, poster_url,
		start_year, end_year, runtime_seconds, genres, rating, vote_count, plot,
		user_rating, added_at, watched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (user_id, imdb_id) DO UPDATE SET
		title = excluded.title, original_title = excluded.original_title,
		type = excluded.type, poster_url = excluded.poster_url,
		start_year = excluded.start_year, end_year = excluded.end_year,
		runtime_seconds = excluded.runtime_seconds, genres = excluded.genres,
		rating = excluded.rating, vote_count = excluded.vote_count,
		plot = excluded.plot, user_rating = excluded.user_rating,
		watched_at = excluded.watched_at
	RETURNING id`

// AddToWatched marks the title as seen, independent of the watchlist.
func (s *DBService) AddToWatched(userID string, item m.WatchedItem) (m.WatchedItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.WatchedItem{}, err
	}
	defer db.Close()

	item.UserID = userID
	now := time.Now().UTC()
	item.AddedAt = now
	item.WatchedAt = now

	err = db.QueryRow(insertWatchedQuery,
		item.UserID, item.ImdbID, item.Title, item.OriginalTitle, item.Type,
		item.PosterURL, item.StartYear, item.EndYear, item.RuntimeSeconds,
		joinGenres(item.Genres), item.Rating, item.VoteCount, item.Plot,
		item.UserRating, item.AddedAt, item.WatchedAt,
	).Scan(&item.ID)
	if err != nil {
		return m.WatchedItem{}, err
	}
	return item, nil
}

// MoveToWatched atomically takes a title off the watchlist and records it as
// watched. Returns ErrNotInWatchlist when the title is not on the watchlist;
// in that case nothing is written.
func (s *DBService) MoveToWatched(userID string, item m.WatchedItem) (m.WatchedItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.WatchedItem{}, err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return m.WatchedItem{}, err
	}

	var one int
	err = tx.QueryRow(`SELECT 1 FROM watchlist WHERE user_id = $1 AND imdb_id = $2`, userID, item.ImdbID).Scan(&one)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return m.WatchedItem{}, ErrNotInWatchlist
	}
	if err != nil {
		tx.Rollback()
		return m.WatchedItem{}, err
	}

	if _, err := tx.Exec(`DELETE FROM watchlist WHERE user_id = $1 AND imdb_id = $2`, userID, item.ImdbID); err != nil {
		tx.Rollback()
		return m.WatchedItem{}, err
	}

	item.UserID = userID
	now := time.Now().UTC()
	item.AddedAt = now
	item.WatchedAt = now

	err = tx.QueryRow(insertWatchedQuery,
		item.UserID, item.ImdbID, item.Title, item.OriginalTitle, item.Type,
		item.PosterURL, item.StartYear, item.EndYear, item.RuntimeSeconds,
		joinGenres(item.Genres), item.Rating, item.VoteCount, item.Plot,
		item.UserRating, item.AddedAt, item.WatchedAt,
	).Scan(&item.ID)
	if err != nil {
		tx.Rollback()
		return m.WatchedItem{}, err
	}

	if err := tx.Commit(); err != nil {
		return m.WatchedItem{}, err
	}
	return item, nil
}

// RemoveFromWatched deletes the (user, title) pair, idempotently.
func (s *DBService) RemoveFromWatched(userID, imdbID string) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`DELETE FROM watched WHERE user_id = $1 AND imdb_id = $2`, userID, imdbID)
	return err
}

// GetTopSeries returns the user's favorites ordered by rank (1 first).
func (s *DBService) GetTopSeries(userID string) ([]m.TopSeriesItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT id, user_id, imdb_id, title, original_title, poster_url, start_year,
			end_year, genres, rating, vote_count, plot, rank, added_at
		FROM top_series WHERE user_id = $1 ORDER BY rank ASC`
	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []m.TopSeriesItem
	for rows.Next() {
		var item m.TopSeriesItem
		var genres sql.NullString
		err := rows.Scan(
			&item.ID, &item.UserID, &item.ImdbID, &item.Title, &item.OriginalTitle,
			&item.PosterURL, &item.StartYear, &item.EndYear, &genres,
			&item.Rating, &item.VoteCount, &item.Plot, &item.Rank, &item.AddedAt,
		)
		if err != nil {
			return nil, err
		}
		item.Genres = splitGenres(genres)
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddToTopSeries inserts a favorite at the requested rank. The five-entry
// cap is a client concern and is not enforced here.
func (s *DBService) AddToTopSeries(userID string, item m.TopSeriesItem) (m.TopSeriesItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.TopSeriesItem{}, err
	}
	defer db.Close()

	item.UserID = userID
	item.AddedAt = time.Now().UTC()

	query := `
		INSERT INTO top_series (user_id, imdb_id, title, original_title, poster_url,
			start_year, end_year, genres, rating, vote_count, plot, rank, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, imdb_id) DO UPDATE SET
			title = excluded.title, original_title = excluded.original_title,
			poster_url = excluded.poster_url, start_year = excluded.start_year,
			end_year = excluded.end_year, genres = excluded.genres,
			rating = excluded.rating, vote_count = excluded.vote_count,
			plot = excluded.plot, rank = excluded.rank
		RETURNING id`
	err = db.QueryRow(query,
		item.UserID, item.ImdbID, item.Title, item.OriginalTitle, item.PosterURL,
		item.StartYear, item.EndYear, joinGenres(item.Genres), item.Rating,
		item.VoteCount, item.Plot, item.Rank, item.AddedAt,
	).Scan(&item.ID)
	if err != nil {
		return m.TopSeriesItem{}, err
	}
	return item, nil
}

// RemoveFromTopSeries deletes the (user, title) pair, idempotently.
func (s *DBService) RemoveFromTopSeries(userID, imdbID string) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`DELETE FROM top_series WHERE user_id = $1 AND imdb_id = $2`, userID, imdbID)
	return err
}

// ReorderTopSeries applies the complete desired ranking in one transaction,
// one update per (imdb_id, rank) pair. Either the whole new order lands or
// none of it does.
func (s *DBService) ReorderTopSeries(userID string, updates []m.RankUpdate) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, u := range updates {
		if _, err := tx.Exec(`UPDATE top_series SET rank = $1 WHERE user_id = $2 AND imdb_id = $3`,
			u.Rank, userID, u.ImdbID); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetUserStats aggregates list sizes and the average personal rating.
func (s *DBService) GetUserStats(userID string) (m.UserStats, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.UserStats{}, err
	}
	defer db.Close()

	var stats m.UserStats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM watched WHERE user_id = $1`, &stats.WatchedCount},
		{`SELECT COUNT(*) FROM watchlist WHERE user_id = $1`, &stats.WatchlistCount},
		{`SELECT COUNT(*) FROM top_series WHERE user_id = $1`, &stats.TopSeriesCount},
	}
	for _, c := range counts {
		if err := db.QueryRow(c.query, userID).Scan(c.dest); err != nil {
			return m.UserStats{}, err
		}
	}

	err = db.QueryRow(`SELECT COALESCE(AVG(user_rating), 0) FROM watched WHERE user_id = $1 AND user_rating IS NOT NULL`,
		userID).Scan(&stats.AverageRating)
	if err != nil {
		return m.UserStats{}, err
	}
	return stats, nil
}
