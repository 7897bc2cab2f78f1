package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const countAnswersByUser = `-- name: CountAnswersByUser :one
SELECT count(*) FROM user_fantasies WHERE user_id = $1
`

func (q *Queries) CountAnswersByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAnswersByUser, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const lockProfile = `-- name: LockProfile :one
SELECT id FROM profiles WHERE id = $1 FOR UPDATE
`

func (q *Queries) LockProfile(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRowContext(ctx, lockProfile, id)
	var locked uuid.UUID
	err := row.Scan(&locked)
	return locked, err
}

const findMatchForUser = `-- name: FindMatchForUser :one
SELECT id, user1_id, user2_id, user1_alias, user2_alias, unlocked_step, created_at
FROM matches
WHERE user1_id = $1 OR user2_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) FindMatchForUser(ctx context.Context, userID uuid.UUID) (Match, error) {
	row := q.db.QueryRowContext(ctx, findMatchForUser, userID)
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

const claimCounterpart = `-- name: ClaimCounterpart :one
SELECT p.id
FROM profiles p
WHERE p.id <> $1
  AND EXISTS (SELECT 1 FROM user_fantasies f WHERE f.user_id = p.id)
  AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.user1_id = p.id OR m.user2_id = p.id)
ORDER BY p.created_at, p.id
LIMIT 1
FOR UPDATE OF p SKIP LOCKED
`

func (q *Queries) ClaimCounterpart(ctx context.Context, candidateID uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRowContext(ctx, claimCounterpart, candidateID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const createMatch = `-- name: CreateMatch :one
INSERT INTO matches (id, user1_id, user2_id, user1_alias, user2_alias, unlocked_step, created_at)
VALUES ($1, $2, $3, $4, $5, 0, $6)
RETURNING id, user1_id, user2_id, user1_alias, user2_alias, unlocked_step, created_at
`

type CreateMatchParams struct {
	ID         uuid.UUID `json:"id"`
	User1ID    uuid.UUID `json:"user1_id"`
	User2ID    uuid.UUID `json:"user2_id"`
	User1Alias string    `json:"user1_alias"`
	User2Alias string    `json:"user2_alias"`
	CreatedAt  time.Time `json:"created_at"`
}

func (q *Queries) CreateMatch(ctx context.Context, arg CreateMatchParams) (Match, error) {
	row := q.db.QueryRowContext(ctx, createMatch,
		arg.ID,
		arg.User1ID,
		arg.User2ID,
		arg.User1Alias,
		arg.User2Alias,
		arg.CreatedAt,
	)
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
