// Package observer logs authentication events.
package observer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
)

type AuthLogger struct {
	logger *slog.Logger
}

func NewAuthLogger(logger *slog.Logger) *AuthLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthLogger{logger: logger}
}

func (o *AuthLogger) LoggedIn(ctx context.Context, user *domain.User, ip string) {
	o.logger.InfoContext(ctx, "login user",
		"event", "user_logged_in",
		"user_id", user.ID,
		"email", user.Email,
		"ip", ip,
	)
}

func (o *AuthLogger) LoggedOut(ctx context.Context, userID uuid.UUID, ip string) {
	o.logger.InfoContext(ctx, "logout user",
		"event", "user_logged_out",
		"user_id", userID,
		"ip", ip,
	)
}

func (o *AuthLogger) LoginFailed(ctx context.Context, reason string, ip string) {
	o.logger.WarnContext(ctx, "login failed",
		"event", "user_login_failed",
		"reason", reason,
		"ip", ip,
	)
}
