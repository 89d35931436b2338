package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahsanfayaz52/notesservice/internal/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email or nickname already registered")
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a user whose password is already hashed.
func (s *Store) Create(ctx context.Context, email, nickname, passwordHash string) (models.User, error) {
	u := models.User{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Nickname:  strings.TrimSpace(nickname),
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, nickname, password, created_at) VALUES (?, ?, ?, ?)",
		u.Email, u.Nickname, u.Password, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return u, nil
}

func (s *Store) ByEmail(ctx context.Context, email string) (models.User, error) {
	return s.one(ctx, "SELECT id, email, nickname, password, created_at FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) one(ctx context.Context, query string, arg interface{}) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Nickname, &u.Password, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// The mysql and sqlite3 drivers both mention the constraint in the message.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate entry")
}
