package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// TokenParser resolves an access token to the user it was issued for.
type TokenParser interface {
	ParseAccessToken(token string) (uuid.UUID, error)
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				http.Error(w, "Unauthorized: missing access token", http.StatusUnauthorized)
				return
			}
			userID, err := parser.ParseAccessToken(token)
			if err != nil {
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, userID)))
		})
	}
}

// OptionalAuth attaches the user id when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := accessToken(r); token != "" {
				if userID, err := parser.ParseAccessToken(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userIDFrom(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// clientIP expects chi's RealIP middleware to have resolved forwarded headers.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterPruneAbove = 10000
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// VoteRateLimiter applies a token bucket per authenticated user.
type VoteRateLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*userLimiter
	limit    rate.Limit
	burst    int
}

func NewVoteRateLimiter(perSecond float64, burst int) *VoteRateLimiter {
	return &VoteRateLimiter{
		limiters: make(map[uuid.UUID]*userLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *VoteRateLimiter) allow(userID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if len(l.limiters) > limiterPruneAbove {
		for id, ul := range l.limiters {
			if now.Sub(ul.lastSeen) > limiterIdleTTL {
				delete(l.limiters, id)
			}
		}
	}

	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.Allow()
}

// Middleware must run after RequireAuth.
func (l *VoteRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFrom(r)
		if ok && !l.allow(userID) {
			http.Error(w, "too many vote requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
