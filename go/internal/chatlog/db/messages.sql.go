package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const insertChatMessage = `-- name: InsertChatMessage :one
INSERT INTO chat_messages (id, match_id, sender_id, message, cumulative_seconds, sent_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, match_id, sender_id, message, cumulative_seconds, sent_at
`

type InsertChatMessageParams struct {
	ID                uuid.UUID `json:"id"`
	MatchID           uuid.UUID `json:"match_id"`
	SenderID          uuid.UUID `json:"sender_id"`
	Message           string    `json:"message"`
	CumulativeSeconds int32     `json:"cumulative_seconds"`
	SentAt            time.Time `json:"sent_at"`
}

type ChatMessage struct {
	ID                uuid.UUID `json:"id"`
	MatchID           uuid.UUID `json:"match_id"`
	SenderID          uuid.UUID `json:"sender_id"`
	Message           string    `json:"message"`
	CumulativeSeconds int32     `json:"cumulative_seconds"`
	SentAt            time.Time `json:"sent_at"`
}

func (q *Queries) InsertChatMessage(ctx context.Context, arg InsertChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRowContext(ctx, insertChatMessage,
		arg.ID,
		arg.MatchID,
		arg.SenderID,
		arg.Message,
		arg.CumulativeSeconds,
		arg.SentAt,
	)
	var i ChatMessage
	err := row.Scan(
		&i.ID,
		&i.MatchID,
		&i.SenderID,
		&i.Message,
		&i.CumulativeSeconds,
		&i.SentAt,
	)
	return i, err
}

const listPendingUnlocks = `-- name: ListPendingUnlocks :many
SELECT m.id, m.unlocked_step, max(c.cumulative_seconds)::int AS cumulative_seconds
FROM matches m
JOIN chat_messages c ON c.match_id = m.id
WHERE m.unlocked_step < $1
GROUP BY m.id, m.unlocked_step
HAVING max(c.cumulative_seconds) >= $2 * (m.unlocked_step + 1)
ORDER BY m.id
LIMIT $3
`

type ListPendingUnlocksParams struct {
	MaxStep         int32 `json:"max_step"`
	IntervalSeconds int32 `json:"interval_seconds"`
	Limit           int32 `json:"limit"`
}

type ListPendingUnlocksRow struct {
	ID                uuid.UUID `json:"id"`
	UnlockedStep      int32     `json:"unlocked_step"`
	CumulativeSeconds int32     `json:"cumulative_seconds"`
}

func (q *Queries) ListPendingUnlocks(ctx context.Context, arg ListPendingUnlocksParams) ([]ListPendingUnlocksRow, error) {
	rows, err := q.db.QueryContext(ctx, listPendingUnlocks, arg.MaxStep, arg.IntervalSeconds, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPendingUnlocksRow
	for rows.Next() {
		var i ListPendingUnlocksRow
		if err := rows.Scan(&i.ID, &i.UnlockedStep, &i.CumulativeSeconds); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
