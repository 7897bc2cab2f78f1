package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/fantasymatch/go/internal/dbconfig"
)

type Question struct {
	ID             int    `json:"id"`
	Question       string `json:"question"`
	Theme          string `json:"theme"`
	IntensityLevel int    `json:"intensity_level"`
}

type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID int       `json:"question_id"`
	Answer     string    `json:"answer"`
	Intensity  int       `json:"intensity"`
}

// Profile with no answers models a user who never finished intake
type Profile struct {
	ID      uuid.UUID `json:"id"`
	Gender  string    `json:"gender"`
	Answers []Answer  `json:"answers"`
}

type Seed struct {
	Questions []Question `json:"questions"`
	Profiles  []Profile  `json:"profiles"`
}

func main() {
	ctx := context.Background()

	// 1) Load intake_seed.json
	path := "go/internal/assets/intake_seed.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal seed: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Seed questions
	total, inserted, skipped, errs := len(seed.Questions), 0, 0, 0
	for _, q := range seed.Questions {
		tag, err := pool.Exec(ctx, `
            INSERT INTO fantasy_questions (id, question, theme, intensity_level)
            VALUES ($1,$2,$3,$4)
            ON CONFLICT (id) DO NOTHING
        `, q.ID, q.Question, q.Theme, q.IntensityLevel)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}
	// explicit ids leave the serial behind
	if _, err := pool.Exec(ctx, `
        SELECT setval(pg_get_serial_sequence('fantasy_questions', 'id'),
                      GREATEST((SELECT MAX(id) FROM fantasy_questions), 1))
    `); err != nil {
		errs++
	}
	fmt.Printf(
		"Questions seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)

	// 4) Seed profiles and answers
	total, inserted, skipped, errs = len(seed.Profiles), 0, 0, 0
	answersInserted := 0
	for _, p := range seed.Profiles {
		tag, err := pool.Exec(ctx, `
            INSERT INTO profiles (id, gender)
            VALUES ($1,$2)
            ON CONFLICT (id) DO NOTHING
        `, p.ID, p.Gender)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}

		for _, a := range p.Answers {
			tag, err := pool.Exec(ctx, `
                INSERT INTO user_fantasies (id, user_id, question_id, answer, intensity)
                VALUES ($1,$2,$3,$4,$5)
                ON CONFLICT (id) DO NOTHING
            `, a.ID, p.ID, a.QuestionID, a.Answer, a.Intensity)
			if err != nil {
				errs++
				continue
			}
			answersInserted += int(tag.RowsAffected())
		}
	}
	fmt.Printf(
		"Profiles seed: total=%d inserted=%d skipped=%d answers=%d errors=%d\n",
		total, inserted, skipped, answersInserted, errs,
	)
}
