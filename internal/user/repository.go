package user

import (
	"context"
	"sync"
	"time"
)

// Repository persists wizard records. Implementations own the timestamps.
type Repository interface {
	GetByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]User
	nextID int64
	now    func() time.Time
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make(map[int64]User, len(seed)),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}

	var maxID int64
	for _, user := range seed {
		repo.users[user.ID] = user
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	if !user.Step.Valid() {
		return User{}, ErrInvalidStep
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = r.nextID
	r.nextID++
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *InMemoryRepository) Update(_ context.Context, user User) (User, error) {
	if !user.Step.Valid() {
		return User{}, ErrInvalidStep
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.now()
	r.users[user.ID] = user
	return user, nil
}
