package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteRepository is a Repository backed by SQLite.
//
// It expects an *sql.DB that uses the "modernc.org/sqlite" driver. The
// caller is responsible for importing it:
//
//	import _ "modernc.org/sqlite"
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

const (
	createUsersTableSQLite = `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			email TEXT,
			age INTEGER,
			address TEXT,
			step INTEGER NOT NULL DEFAULT 1 CHECK (step BETWEEN 1 AND 3),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`
	sqliteGetUserQuery = `
		SELECT id, name, email, age, address, step, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	sqliteInsertUserQuery = `
		INSERT INTO users (name, email, age, address, step, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	sqliteUpdateUserQuery = `
		UPDATE users
		SET name = ?, email = ?, age = ?, address = ?, step = ?, updated_at = ?
		WHERE id = ?
	`
)

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTableSQLite); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, sqliteGetUserQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, user User) (User, error) {
	if !user.Step.Valid() {
		return User{}, ErrInvalidStep
	}

	now := r.now()
	res, err := r.db.ExecContext(ctx,
		sqliteInsertUserQuery,
		user.Name,
		user.Email,
		nullableAge(user.Age),
		user.Address,
		int(user.Step),
		now,
		now,
	)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, user User) (User, error) {
	if !user.Step.Valid() {
		return User{}, ErrInvalidStep
	}

	res, err := r.db.ExecContext(ctx,
		sqliteUpdateUserQuery,
		user.Name,
		user.Email,
		nullableAge(user.Age),
		user.Address,
		int(user.Step),
		r.now(),
		user.ID,
	)
	if err != nil {
		return User{}, fmt.Errorf("update user %d: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if n == 0 {
		return User{}, ErrNotFound
	}

	return r.GetByID(ctx, user.ID)
}
