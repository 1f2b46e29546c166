package study

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/store"
)

// QueueConfig carries the per-subscription settings the selector works from.
type QueueConfig struct {
	ChunkSize     int
	NewRatio      float64
	DailyNewLimit int
	NewToday      int
}

// SelectQueue builds the ordered card queue for one study session. Due cards
// come first, earliest due_at leading, capped at the chunk size; when they
// do not fill the chunk, never-studied cards ordered by frequency rank top
// it up, limited by the new-card ratio and the remaining daily new budget.
// The result is deterministic given the store contents and config; no
// shuffling happens anywhere.
func SelectQueue(
	ctx context.Context,
	cards store.CardStore,
	userID, deckID uuid.UUID,
	cfg QueueConfig,
	now time.Time,
) ([]uuid.UUID, error) {
	dueIDs, err := cards.DueCardIDs(ctx, userID, deckID, now, cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due cards: %w", err)
	}

	// Due cards are strictly prioritized: a full chunk of them means no new
	// cards, whatever the ratio says.
	if len(dueIDs) >= cfg.ChunkSize {
		return dueIDs, nil
	}

	remaining := cfg.ChunkSize - len(dueIDs)

	newTarget := int(math.Round(float64(cfg.ChunkSize) * cfg.NewRatio))
	if newTarget > remaining {
		newTarget = remaining
	}

	remainingNewToday := cfg.DailyNewLimit - cfg.NewToday
	if remainingNewToday < 0 {
		remainingNewToday = 0
	}
	if newTarget > remainingNewToday {
		newTarget = remainingNewToday
	}

	if newTarget <= 0 {
		return dueIDs, nil
	}

	newIDs, err := cards.NewCardIDs(ctx, userID, deckID, newTarget)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new cards: %w", err)
	}

	return append(dueIDs, newIDs...), nil
}
