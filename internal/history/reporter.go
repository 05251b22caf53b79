// Package history turns finished games into per-player history records
// and tells both participants to refetch.
package history

import (
	"context"
	"log"
	"time"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
	"github.com/spck/arcade-backend/pkg/uid"
)

// Appender is the persistence collaborator for history records.
type Appender interface {
	AppendHistory(ctx context.Context, username string, record domain.HistoryRecord) error
}

// Sender pushes events to connected identities.
type Sender interface {
	Send(username string, event domain.Event) error
}

// Reporter writes one record per participant per completed game. Writes
// happen in the background so game_over delivery is never blocked; a
// failed write is logged and the game outcome stands regardless.
type Reporter struct {
	store  Appender
	sender Sender
}

func NewReporter(store Appender, sender Sender) *Reporter {
	return &Reporter{store: store, sender: sender}
}

// ReportResult records the outcome pair for a finished game and pushes
// "history:updated" to both participants.
func (rp *Reporter) ReportResult(eng engine.Engine, winner, loser string, draw bool) {
	now := time.Now().UTC().Format(time.RFC3339)

	records := map[string]domain.HistoryRecord{
		winner: {
			ID:         uid.NewID(),
			GameName:   eng.GameName(),
			Difficulty: "Online vs " + loser,
			Result:     domain.ResultWin,
			ImageSrc:   eng.ImageSrc(),
			Date:       now,
		},
		loser: {
			ID:         uid.NewID(),
			GameName:   eng.GameName(),
			Difficulty: "Online vs " + winner,
			Result:     domain.ResultLoss,
			ImageSrc:   eng.ImageSrc(),
			Date:       now,
		},
	}
	if draw {
		for username, record := range records {
			record.Result = domain.ResultDraw
			records[username] = record
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		for username, record := range records {
			if err := rp.store.AppendHistory(ctx, username, record); err != nil {
				log.Printf("[HISTORY] Failed to save record for %s: %v", username, err)
			}
			_ = rp.sender.Send(username, domain.NewEvent("history:updated", nil))
		}
	}()
}
