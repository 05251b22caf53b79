package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spck/arcade-backend/internal/domain"
)

// FriendRepo stores friendships as symmetric row pairs: a request writes
// (a, b, pending_sent) and (b, a, pending_received); accepting flips both
// rows to friends in one transaction so the two views never disagree.
type FriendRepo struct {
	DB *sql.DB
}

func NewFriendRepo(db *sql.DB) *FriendRepo {
	return &FriendRepo{DB: db}
}

// ListFriends returns every relation involving username as that user
// sees it, confirmed and pending alike.
func (r *FriendRepo) ListFriends(ctx context.Context, username string) ([]domain.Friend, error) {
	query := `
	SELECT u.id, f.friend_username, f.status, f.created_at
	FROM friendships f
	JOIN users u ON u.username = f.friend_username
	WHERE f.username = $1
	ORDER BY f.created_at DESC;
	`
	rows, err := r.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %v", err)
	}
	defer rows.Close()

	friends := make([]domain.Friend, 0)
	for rows.Next() {
		var friend domain.Friend
		var since time.Time
		if err := rows.Scan(&friend.ID, &friend.Username, &friend.Status, &since); err != nil {
			return nil, fmt.Errorf("failed to scan friendship row: %v", err)
		}
		friend.Since = since.UTC().Format(time.RFC3339)
		friends = append(friends, friend)
	}
	return friends, rows.Err()
}

// CreateRequest writes the symmetric pending pair. Fails with
// domain.ErrRelationExists if any relation between the two already
// exists, and domain.ErrUserNotFound if the target is not registered.
func (r *FriendRepo) CreateRequest(ctx context.Context, from, to string) error {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1);`, to).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check target user: %v", err)
	}
	if !exists {
		return domain.ErrUserNotFound
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO friendships (username, friend_username, status)
	VALUES ($1, $2, $3)
	ON CONFLICT (username, friend_username) DO NOTHING;
	`, from, to, domain.StatusPendingSent)
	if err != nil {
		return fmt.Errorf("failed to insert friend request: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrRelationExists
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO friendships (username, friend_username, status)
	VALUES ($1, $2, $3)
	ON CONFLICT (username, friend_username) DO NOTHING;
	`, to, from, domain.StatusPendingReceived); err != nil {
		return fmt.Errorf("failed to insert mirrored friend request: %v", err)
	}

	return tx.Commit()
}

// AcceptRequest flips both rows of a pending pair to friends. Only the
// receiving side can accept.
func (r *FriendRepo) AcceptRequest(ctx context.Context, accepter, requester string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	UPDATE friendships SET status = $1
	WHERE username = $2 AND friend_username = $3 AND status = $4;
	`, domain.StatusFriends, accepter, requester, domain.StatusPendingReceived)
	if err != nil {
		return fmt.Errorf("failed to accept friend request: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrRelationNotFound
	}

	if _, err := tx.ExecContext(ctx, `
	UPDATE friendships SET status = $1
	WHERE username = $2 AND friend_username = $3;
	`, domain.StatusFriends, requester, accepter); err != nil {
		return fmt.Errorf("failed to update mirrored friendship: %v", err)
	}

	return tx.Commit()
}

// DeleteRelation removes both rows of a pair. Used for declining a
// request and for unfriending; both are a symmetric delete.
func (r *FriendRepo) DeleteRelation(ctx context.Context, username, other string) error {
	result, err := r.DB.ExecContext(ctx, `
	DELETE FROM friendships
	WHERE (username = $1 AND friend_username = $2)
	   OR (username = $2 AND friend_username = $1);
	`, username, other)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrRelationNotFound
	}
	return nil
}

// GetRelation returns the relation as username sees it.
func (r *FriendRepo) GetRelation(ctx context.Context, username, other string) (domain.FriendStatus, error) {
	var status domain.FriendStatus
	err := r.DB.QueryRowContext(ctx, `
	SELECT status FROM friendships WHERE username = $1 AND friend_username = $2;
	`, username, other).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrRelationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get friendship: %v", err)
	}
	return status, nil
}
