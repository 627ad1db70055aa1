package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*PostgresRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	createUsersTablePostgres = `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT,
			email TEXT,
			age INTEGER,
			address TEXT,
			step INTEGER NOT NULL DEFAULT 1 CHECK (step BETWEEN 1 AND 3),
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	getUserByIDQuery = `
		SELECT id, name, email, age, address, step, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	insertUserQuery = `
		INSERT INTO users (name, email, age, address, step, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	updateUserQuery = `
		UPDATE users
		SET name = $1,
			email = $2,
			age = $3,
			address = $4,
			step = $5,
			updated_at = $6
		WHERE id = $7
	`
)

// NewPostgresRepository expects a *sql.DB opened with the pgx stdlib driver.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the users table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTablePostgres); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (User, error) {
	row := r.db.QueryRowContext(ctx, getUserByIDQuery, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	if !user.Step.Valid() {
		return User{}, ErrInvalidStep
	}

	now := r.now()
	var id int64
	err := r.db.QueryRowContext(ctx,
		insertUserQuery,
		user.Name,
		user.Email,
		nullableAge(user.Age),
		user.Address,
		int(user.Step),
		now,
		now,
	).Scan(&id)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user User) (User, error) {
	if !user.Step.Valid() {
		return User{}, ErrInvalidStep
	}

	result, err := r.db.ExecContext(ctx,
		updateUserQuery,
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

	affected, err := result.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}

	return r.GetByID(ctx, user.ID)
}

func scanUser(scanner rowScanner) (User, error) {
	user := User{}
	var name, email, address sql.NullString
	var age sql.NullInt64
	var step int

	if err := scanner.Scan(
		&user.ID,
		&name,
		&email,
		&age,
		&address,
		&step,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}

	user.Name = name.String
	user.Email = email.String
	user.Address = address.String
	user.Step = Step(step)
	if age.Valid {
		v := int(age.Int64)
		user.Age = &v
	}
	return user, nil
}

// nullableAge sends SQL NULL for a missing age.
func nullableAge(age *int) any {
	if age == nil {
		return nil
	}
	return int64(*age)
}
