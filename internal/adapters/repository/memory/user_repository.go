package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
	clock ports.Clock
}

func NewUserRepository(clock ports.Clock) *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]domain.User), clock: clock}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = r.clock.Now()
	r.users[user.ID] = *user
	return nil
}
