package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
)

type AuthRepository interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) error
}

type TokenPayload struct {
	Email string
	Name  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

// AuthObserver receives authentication events. ip is the client address.
type AuthObserver interface {
	LoggedIn(ctx context.Context, user *domain.User, ip string)
	LoggedOut(ctx context.Context, userID uuid.UUID, ip string)
	LoginFailed(ctx context.Context, reason string, ip string)
}

type AuthService interface {
	LoginWithGoogle(ctx context.Context, googleToken, ip string) (string, string, error) // returns access_token, refresh_token, error
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken, ip string) error
	// ParseAccessToken returns the user id carried by a valid access token.
	ParseAccessToken(token string) (uuid.UUID, error)
}
