package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/pkg/uid"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// CreateUser inserts a new account. Returns domain.ErrUsernameTaken when
// the username is already registered.
func (r *UserRepo) CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	id := uid.NewID()
	query := `
	INSERT INTO users (id, username, password_hash)
	VALUES ($1, $2, $3)
	ON CONFLICT (username) DO NOTHING
	RETURNING created_at;
	`
	var createdAt time.Time
	err := r.DB.QueryRowContext(ctx, query, id, username, passwordHash).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %v", err)
	}

	return &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt.UTC().Format(time.RFC3339),
	}, nil
}

// GetUserByUsername retrieves a user by username. Returns
// domain.ErrUserNotFound when absent.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1;`

	var user domain.User
	var createdAt time.Time
	err := r.DB.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	user.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return &user, nil
}

// SearchUsers returns usernames matching the prefix, excluding the
// searcher, capped at 10.
func (r *UserRepo) SearchUsers(ctx context.Context, searcher, prefix string) ([]string, error) {
	query := `
	SELECT username FROM users
	WHERE username ILIKE $1 AND username <> $2
	ORDER BY username
	LIMIT 10;
	`
	rows, err := r.DB.QueryContext(ctx, query, strings.TrimSpace(prefix)+"%", searcher)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %v", err)
	}
	defer rows.Close()

	usernames := make([]string, 0)
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %v", err)
		}
		usernames = append(usernames, username)
	}
	return usernames, rows.Err()
}
