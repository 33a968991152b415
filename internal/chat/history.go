package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/platewise/platewise/internal/log"
)

// historyTimeout bounds each history load/save call.
const historyTimeout = 5 * time.Second

// HistoryPool is the subset of pgxpool.Pool the history store uses.
type HistoryPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// History persists one bounded conversation document per user in the
// chat_histories table.
//
// History is safe for concurrent use by multiple goroutines.
type History struct {
	pool   HistoryPool
	limit  int
	logger log.Logger
}

// NewHistory creates a History store. limit is the message retention cap
// enforced before every save.
func NewHistory(pool HistoryPool, limit int, logger log.Logger) (*History, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if limit < 2 {
		return nil, fmt.Errorf("history limit must be at least 2, got %d", limit)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &History{pool: pool, limit: limit, logger: logger}, nil
}

// Load returns the stored messages for a user.
//
// A missing document yields an empty slice. Entries missing role or content
// are filtered out, not repaired; a missing timestamp defaults to now.
// Store errors degrade to empty history and are never surfaced: a turn must
// proceed even when the document store is down.
func (h *History) Load(ctx context.Context, userID string) []Message {
	if userID == "" {
		h.logger.Warn("history load without user id")
		return nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	var raw []byte
	err := h.pool.QueryRow(loadCtx,
		`SELECT messages FROM chat_histories WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		h.logger.Warn("loading chat history, degrading to empty", "user_id", userID, "error", err)
		return nil
	}

	var stored []Message
	if err := json.Unmarshal(raw, &stored); err != nil {
		h.logger.Warn("malformed chat history document, degrading to empty", "user_id", userID, "error", err)
		return nil
	}

	valid := make([]Message, 0, len(stored))
	for _, msg := range stored {
		if msg.Role == "" || msg.Content == "" {
			continue
		}
		if msg.Timestamp == "" {
			msg.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
		}
		valid = append(valid, msg)
	}

	h.logger.Debug("loaded chat history", "user_id", userID, "messages", len(valid))
	return valid
}

// Save persists the conversation document, trimming to the last limit
// messages first (even if the caller passes more) and stamping updated_at
// server-side.
//
// The returned error is advisory: callers log it and continue, because a
// failed save must not fail a turn whose answer was already computed.
func (h *History) Save(ctx context.Context, userID string, messages []Message) error {
	if userID == "" {
		return errors.New("user id is required")
	}

	if len(messages) > h.limit {
		messages = messages[len(messages)-h.limit:]
	}

	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	saveCtx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	_, err = h.pool.Exec(saveCtx,
		`INSERT INTO chat_histories (user_id, messages, updated_at, message_count)
		 VALUES ($1, $2, now(), $3)
		 ON CONFLICT (user_id) DO UPDATE SET
		   messages = EXCLUDED.messages,
		   updated_at = now(),
		   message_count = EXCLUDED.message_count`,
		userID, raw, len(messages),
	)
	if err != nil {
		return fmt.Errorf("saving chat history for %s: %w", userID, err)
	}

	h.logger.Debug("saved chat history", "user_id", userID, "messages", len(messages))
	return nil
}
