package db

import (
	"database/sql"
	"time"

	m "github.com/Michillas/Michibox/models"
)

const profileColumns = `id, user_id, username, slug, display_name, bio, avatar_url,
	is_public, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (m.UserProfile, error) {
	var p m.UserProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Username, &p.Slug, &p.DisplayName,
		&p.Bio, &p.AvatarURL, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetProfileByUserID returns the caller's own profile.
func (s *DBService) GetProfileByUserID(userID string) (m.UserProfile, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.UserProfile{}, err
	}
	defer db.Close()

	row := db.QueryRow(`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return m.UserProfile{}, ErrProfileNotFound
	}
	return p, err
}

// GetProfileBySlug is the unscoped public lookup path. The visibility gate
// is applied by the caller.
func (s *DBService) GetProfileBySlug(slug string) (m.UserProfile, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.UserProfile{}, err
	}
	defer db.Close()

	row := db.QueryRow(`SELECT `+profileColumns+` FROM user_profiles WHERE slug = $1`, slug)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return m.UserProfile{}, ErrProfileNotFound
	}
	return p, err
}

// CreateProfile inserts the user's one profile. Username and slug are
// write-once; a collision on either returns ErrProfileTaken without saying
// which field collided.
func (s *DBService) CreateProfile(userID string, p m.UserProfile) (m.UserProfile, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.UserProfile{}, err
	}
	defer db.Close()

	var one int
	err = db.QueryRow(`SELECT 1 FROM user_profiles WHERE username = $1 OR slug = $2`, p.Username, p.Slug).Scan(&one)
	if err == nil {
		return m.UserProfile{}, ErrProfileTaken
	}
	if err != sql.ErrNoRows {
		return m.UserProfile{}, err
	}

	p.UserID = userID
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO user_profiles (user_id, username, slug, display_name, bio, avatar_url,
			is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err = db.QueryRow(query,
		p.UserID, p.Username, p.Slug, p.DisplayName, p.Bio, p.AvatarURL,
		p.IsPublic, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return m.UserProfile{}, err
	}
	return p, nil
}

// UpdateProfile overwrites the mutable fields of an existing profile.
// There is no upsert: a caller without a profile gets ErrProfileNotFound.
func (s *DBService) UpdateProfile(userID string, displayName, bio, avatarURL *string, isPublic bool) (m.UserProfile, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.UserProfile{}, err
	}
	defer db.Close()

	query := `
		UPDATE user_profiles
		SET display_name = $1, bio = $2, avatar_url = $3, is_public = $4, updated_at = $5
		WHERE user_id = $6
		RETURNING ` + profileColumns
	row := db.QueryRow(query, displayName, bio, avatarURL, isPublic, time.Now().UTC(), userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return m.UserProfile{}, ErrProfileNotFound
	}
	return p, err
}
