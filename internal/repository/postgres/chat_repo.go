package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/pkg/uid"
)

const conversationLimit = 50

type ChatRepo struct {
	DB *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{DB: db}
}

// SaveDirectMessage persists one DM so it survives the recipient being
// offline.
func (r *ChatRepo) SaveDirectMessage(ctx context.Context, sender, recipient, message string) error {
	query := `
	INSERT INTO direct_messages (id, sender, recipient, message)
	VALUES ($1, $2, $3, $4);
	`
	_, err := r.DB.ExecContext(ctx, query, uid.NewID(), sender, recipient, message)
	if err != nil {
		return fmt.Errorf("failed to save direct message: %v", err)
	}
	return nil
}

// ListConversation returns the newest messages between two users in
// chronological order, capped at 50.
func (r *ChatRepo) ListConversation(ctx context.Context, username, other string) ([]domain.DirectMessage, error) {
	query := `
	SELECT id, sender, recipient, message, created_at FROM (
		SELECT id, sender, recipient, message, created_at
		FROM direct_messages
		WHERE (sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1)
		ORDER BY created_at DESC
		LIMIT $3
	) latest
	ORDER BY created_at ASC;
	`
	rows, err := r.DB.QueryContext(ctx, query, username, other, conversationLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %v", err)
	}
	defer rows.Close()

	messages := make([]domain.DirectMessage, 0)
	for rows.Next() {
		var msg domain.DirectMessage
		var createdAt time.Time
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Recipient, &msg.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %v", err)
		}
		msg.Timestamp = createdAt.UTC().Format(time.RFC3339)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
