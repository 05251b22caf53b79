package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spck/arcade-backend/internal/domain"
)

const historyLimit = 20

type HistoryRepo struct {
	DB *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{DB: db}
}

// AppendHistory stores one finished-game record for username.
func (r *HistoryRepo) AppendHistory(ctx context.Context, username string, record domain.HistoryRecord) error {
	query := `
	INSERT INTO game_history (id, username, game_name, difficulty, result, image_src)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.DB.ExecContext(ctx, query, record.ID, username, record.GameName, record.Difficulty, record.Result, record.ImageSrc)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %v", err)
	}
	return nil
}

// ListHistory returns the newest records for username, capped at 20.
func (r *HistoryRepo) ListHistory(ctx context.Context, username string) ([]domain.HistoryRecord, error) {
	query := `
	SELECT id, game_name, difficulty, result, image_src, created_at
	FROM game_history
	WHERE username = $1
	ORDER BY created_at DESC
	LIMIT $2;
	`
	rows, err := r.DB.QueryContext(ctx, query, username, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %v", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0, historyLimit)
	for rows.Next() {
		var record domain.HistoryRecord
		var createdAt time.Time
		if err := rows.Scan(&record.ID, &record.GameName, &record.Difficulty, &record.Result, &record.ImageSrc, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %v", err)
		}
		record.Date = createdAt.UTC().Format(time.RFC3339)
		records = append(records, record)
	}
	return records, rows.Err()
}

// ClearHistory deletes all of username's records.
func (r *HistoryRepo) ClearHistory(ctx context.Context, username string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM game_history WHERE username = $1;`, username)
	if err != nil {
		return fmt.Errorf("failed to clear history: %v", err)
	}
	return nil
}
