// Package database opens the configured user store.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/wichananm65/signup-wizard/internal/config"
	"github.com/wichananm65/signup-wizard/internal/user"
)

// Store is a user repository plus whatever must be released on shutdown.
type Store struct {
	Repo user.Repository
	Kind string
	db   *sql.DB
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Open connects to the driver named in cfg and makes sure the users table
// exists.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return &Store{Repo: user.NewInMemoryRepository(nil), Kind: cfg.Driver}, nil

	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo := user.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return &Store{Repo: repo, db: db, Kind: cfg.Driver}, nil

	case config.DriverSQLite:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
		repo := user.NewSQLiteRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return &Store{Repo: repo, db: db, Kind: cfg.Driver}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
