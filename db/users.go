package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	m "github.com/Michillas/Michibox/models"
)

// InsertNewUser registers a local account with a bcrypt-hashed password.
func (s *DBService) InsertNewUser(user m.User) (m.User, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.User{}, err
	}
	defer db.Close()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return m.User{}, err
	}

	user.ID = uuid.NewString()
	query := `INSERT INTO users (id, username, email, password, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := db.Exec(query, user.ID, user.Username, user.Email, string(hashedPassword), time.Now().UTC()); err != nil {
		return m.User{}, err
	}

	user.Password = ""
	return user, nil
}

// ValidateUser checks credentials and returns the account without the
// password. Wrong password and unknown username are indistinguishable.
func (s *DBService) ValidateUser(username, password string) (m.User, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.User{}, err
	}
	defer db.Close()

	var user m.User
	query := `SELECT id, username, email, password FROM users WHERE username = $1`
	err = db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.Email, &user.Password)
	if err == sql.ErrNoRows {
		return m.User{}, errors.New("invalid credentials")
	}
	if err != nil {
		return m.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return m.User{}, errors.New("invalid credentials")
	}
	user.Password = ""
	return user, nil
}
