package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getMatch = `-- name: GetMatch :one
SELECT id, user1_id, user2_id, user1_alias, user2_alias, unlocked_step, created_at
FROM matches
WHERE id = $1
`

func (q *Queries) GetMatch(ctx context.Context, id uuid.UUID) (Match, error) {
	row := q.db.QueryRowContext(ctx, getMatch, id)
	var i Match
	err := row.Scan(
		&i.ID,
		&i.User1ID,
		&i.User2ID,
		&i.User1Alias,
		&i.User2Alias,
		&i.UnlockedStep,
		&i.CreatedAt,
	)
	return i, err
}

const advanceMatchStep = `-- name: AdvanceMatchStep :one
UPDATE matches
SET unlocked_step = $3
WHERE id = $1 AND unlocked_step = $2
RETURNING id, user1_id, user2_id, user1_alias, user2_alias, unlocked_step, created_at
`

type AdvanceMatchStepParams struct {
	ID           uuid.UUID `json:"id"`
	ExpectedStep int32     `json:"expected_step"`
	NextStep     int32     `json:"next_step"`
}

func (q *Queries) AdvanceMatchStep(ctx context.Context, arg AdvanceMatchStepParams) (Match, error) {
	row := q.db.QueryRowContext(ctx, advanceMatchStep, arg.ID, arg.ExpectedStep, arg.NextStep)
	var i Match
	err := row.Scan(
		&i.ID,
		&i.User1ID,
		&i.User2ID,
		&i.User1Alias,
		&i.User2Alias,
		&i.UnlockedStep,
		&i.CreatedAt,
	)
	return i, err
}

const matchExists = `-- name: MatchExists :one
SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)
`

func (q *Queries) MatchExists(ctx context.Context, id uuid.UUID) (bool, error) {
	row := q.db.QueryRowContext(ctx, matchExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertUnlockedFantasy = `-- name: InsertUnlockedFantasy :exec
INSERT INTO unlocked_fantasies (id, match_id, fantasy_id, source_user_id, unlock_step, unlocked_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertUnlockedFantasyParams struct {
	ID           uuid.UUID `json:"id"`
	MatchID      uuid.UUID `json:"match_id"`
	FantasyID    uuid.UUID `json:"fantasy_id"`
	SourceUserID uuid.UUID `json:"source_user_id"`
	UnlockStep   int32     `json:"unlock_step"`
	UnlockedAt   time.Time `json:"unlocked_at"`
}

func (q *Queries) InsertUnlockedFantasy(ctx context.Context, arg InsertUnlockedFantasyParams) error {
	_, err := q.db.ExecContext(ctx, insertUnlockedFantasy,
		arg.ID,
		arg.MatchID,
		arg.FantasyID,
		arg.SourceUserID,
		arg.UnlockStep,
		arg.UnlockedAt,
	)
	return err
}

const listUnlocksSince = `-- name: ListUnlocksSince :many
SELECT uf.match_id, uf.fantasy_id, uf.source_user_id, uf.unlock_step, uf.unlocked_at,
       fq.question, f.answer, f.intensity
FROM unlocked_fantasies uf
JOIN user_fantasies f ON f.id = uf.fantasy_id
JOIN fantasy_questions fq ON fq.id = f.question_id
WHERE uf.match_id = $1 AND uf.unlock_step > $2
ORDER BY uf.unlock_step, uf.unlocked_at, uf.source_user_id
`

type ListUnlocksSinceParams struct {
	MatchID   uuid.UUID `json:"match_id"`
	SinceStep int32     `json:"since_step"`
}

type ListUnlocksSinceRow struct {
	MatchID      uuid.UUID `json:"match_id"`
	FantasyID    uuid.UUID `json:"fantasy_id"`
	SourceUserID uuid.UUID `json:"source_user_id"`
	UnlockStep   int32     `json:"unlock_step"`
	UnlockedAt   time.Time `json:"unlocked_at"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Intensity    int32     `json:"intensity"`
}

func (q *Queries) ListUnlocksSince(ctx context.Context, arg ListUnlocksSinceParams) ([]ListUnlocksSinceRow, error) {
	rows, err := q.db.QueryContext(ctx, listUnlocksSince, arg.MatchID, arg.SinceStep)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListUnlocksSinceRow
	for rows.Next() {
		var i ListUnlocksSinceRow
		if err := rows.Scan(
			&i.MatchID,
			&i.FantasyID,
			&i.SourceUserID,
			&i.UnlockStep,
			&i.UnlockedAt,
			&i.Question,
			&i.Answer,
			&i.Intensity,
		); err != nil {
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
