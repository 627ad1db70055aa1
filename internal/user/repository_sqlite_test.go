package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	// every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	repo := NewSQLiteRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return repo
}

func TestSQLiteRepository_CreateGetUpdate(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Name: "Ann", Email: "a@x.com", Step: Step1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected generated id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Ann" || got.Age != nil || got.Step != Step1 {
		t.Fatalf("unexpected user %+v", got)
	}

	age := 30
	got.Age = &age
	got.Step = Step2
	updated, err := repo.Update(ctx, got)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Age == nil || *updated.Age != 30 || updated.Step != Step2 {
		t.Fatalf("unexpected updated user %+v", updated)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("updated_at %v before created_at %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestSQLiteRepository_NotFound(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from GetByID, got %v", err)
	}
	if _, err := repo.Update(ctx, User{ID: 404, Step: Step1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Update, got %v", err)
	}
}

func TestSQLiteRepository_RejectsInvalidStep(t *testing.T) {
	repo := newTestSQLiteRepo(t)

	if _, err := repo.Create(context.Background(), User{Step: 0}); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
}

func TestInMemoryRepository_SeedAndTimestamps(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 4, Name: "Seed", Step: Step2}})
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Name: "Next", Step: Step1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != 5 {
		t.Fatalf("expected id after seed, got %d", created.ID)
	}

	created.Step = Step3
	updated, err := repo.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed on update")
	}
	if _, err := repo.Update(ctx, User{ID: 77, Step: Step1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
