package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

type AuthRepository struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]domain.RefreshToken
	clock  ports.Clock
}

func NewAuthRepository(clock ports.Clock) *AuthRepository {
	return &AuthRepository{tokens: make(map[uuid.UUID]domain.RefreshToken), clock: clock}
}

var _ ports.AuthRepository = (*AuthRepository)(nil)

func (r *AuthRepository) StoreRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.New()
	token.CreatedAt = r.clock.Now()
	r.tokens[token.ID] = *token
	return nil
}

func (r *AuthRepository) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *AuthRepository) RevokeRefreshToken(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[id]; ok {
		t.Revoked = true
		r.tokens[id] = t
	}
	return nil
}
