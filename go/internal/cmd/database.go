package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/fantasymatch/go/internal/dbconfig"
	"github.com/mcdev12/fantasymatch/go/internal/migrations"
)

func setupDatabase(ctx context.Context) (*sql.DB, error) {
	database, err := dbconfig.Open(ctx, dbconfig.NewConfigFromEnv())
	if err != nil {
		return nil, err
	}

	if err := migrations.Apply(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}
