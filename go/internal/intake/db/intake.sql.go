package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getProfile = `-- name: GetProfile :one
SELECT id, gender, fantasy_intensity_prefs, created_at
FROM profiles
WHERE id = $1
`

func (q *Queries) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfile, id)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Gender,
		&i.FantasyIntensityPrefs,
		&i.CreatedAt,
	)
	return i, err
}

const listFantasiesByUser = `-- name: ListFantasiesByUser :many
SELECT f.id, f.user_id, f.question_id, fq.question, f.answer, f.intensity, f.created_at
FROM user_fantasies f
JOIN fantasy_questions fq ON fq.id = f.question_id
WHERE f.user_id = $1
ORDER BY f.created_at, f.question_id
`

type ListFantasiesByUserRow struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	QuestionID int32     `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Intensity  int32     `json:"intensity"`
	CreatedAt  time.Time `json:"created_at"`
}

func (q *Queries) ListFantasiesByUser(ctx context.Context, userID uuid.UUID) ([]ListFantasiesByUserRow, error) {
	rows, err := q.db.QueryContext(ctx, listFantasiesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListFantasiesByUserRow
	for rows.Next() {
		var i ListFantasiesByUserRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.QuestionID,
			&i.Question,
			&i.Answer,
			&i.Intensity,
			&i.CreatedAt,
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
