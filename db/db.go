package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Sentinel errors the API layer translates into status codes.
var (
	ErrNotInWatchlist  = errors.New("item not found in watchlist")
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileTaken    = errors.New("username or slug already taken")
)

//go:embed schema.sql
var schemaSQL string

// DBService runs every statement against the configured database. Each
// operation opens its own connection; database/sql pools underneath.
type DBService struct {
	driverName string
	dbURL      string
}

func NewDBService() *DBService {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}
	return &DBService{
		driverName: "postgres",
		dbURL:      os.Getenv("DATABASE_URL"),
	}
}

// NewDBServiceWithURL is used by tests to point the service at another
// driver/DSN pair (an in-memory SQLite database).
func NewDBServiceWithURL(driverName, dbURL string) *DBService {
	return &DBService{driverName: driverName, dbURL: dbURL}
}

func (s *DBService) getDBConnection() (*sql.DB, error) {
	return sql.Open(s.driverName, s.dbURL)
}

// InitSchema applies the embedded DDL. Every statement is idempotent.
func (s *DBService) InitSchema() error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// joinGenres flattens an ordered genre list into a single TEXT column.
func joinGenres(genres []string) sql.NullString {
	if len(genres) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.Join(genres, ","), Valid: true}
}

func splitGenres(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	parts := strings.Split(col.String, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}
