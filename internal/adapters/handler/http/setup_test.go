package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/lock/local"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
	"github.com/vncsmyrnk/timedpoll/internal/core/services"
)

var (
	testSecret = []byte("test-secret")
	baseTime   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string, _ string) (*ports.TokenPayload, error) {
	if token != "good-google-token" {
		return nil, fmt.Errorf("bad token")
	}
	return &ports.TokenPayload{Email: "ada@example.com", Name: "Ada"}, nil
}

type nopObserver struct{}

func (nopObserver) LoggedIn(context.Context, *domain.User, string) {}
func (nopObserver) LoggedOut(context.Context, uuid.UUID, string) {}
func (nopObserver) LoginFailed(context.Context, string, string) {}

type testApp struct {
	Server    *httptest.Server
	Clock     *testClock
	Questions *memory.QuestionRepository
	Users     *memory.UserRepository
}

func setupTestApp(t *testing.T, voteLimiter *VoteRateLimiter) *testApp {
	t.Helper()

	clock := &testClock{t: baseTime}
	questions := memory.NewQuestionRepository()
	ledger := memory.NewVoteLedger(clock)
	users := memory.NewUserRepository(clock)

	authService := services.NewAuthService(users, memory.NewAuthRepository(clock), stubVerifier{}, nopObserver{}, clock,
		services.AuthConfig{JWTSecret: testSecret, GoogleClientID: "client"})
	questionService := services.NewQuestionService(questions, ledger, clock)

	handler := NewHandler(Handlers{
		Question: NewQuestionHandler(questionService, services.NewTallyService(questions, ledger)),
		Vote:     NewVoteHandler(services.NewVoteService(questions, ledger, local.NewKeyedMutex(), clock, nil)),
		Auth:     NewAuthHandler(authService, "/", "", http.SameSiteLaxMode),
		User:     NewUserHandler(services.NewUserService(users)),
	}, authService, voteLimiter)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testApp{Server: server, Clock: clock, Questions: questions, Users: users}
}

func (a *testApp) createUserAndToken(t *testing.T) (uuid.UUID, string) {
	t.Helper()

	user := &domain.User{Email: fmt.Sprintf("user-%s@example.com", uuid.NewString()), Name: "Voter"}
	require.NoError(t, a.Users.Create(context.Background(), user))

	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": baseTime.Add(15 * time.Minute).Unix(),
		"iat": baseTime.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return user.ID, token
}

func (a *testApp) addQuestion(t *testing.T, publishAt time.Time, closeAt *time.Time) *domain.Question {
	t.Helper()
	q := &domain.Question{
		ID:        uuid.New(),
		Text:      "Best season?",
		PublishAt: publishAt,
		CloseAt:   closeAt,
		CreatedAt: publishAt,
	}
	for _, text := range []string{"spring", "autumn"} {
		q.Choices = append(q.Choices, domain.Choice{ID: uuid.New(), QuestionID: q.ID, Text: text})
	}
	require.NoError(t, a.Questions.Save(context.Background(), q))
	return q
}

// do sends a request with an optional JSON body and access token cookie and
// returns the response with its body already read.
func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}

	resp, err := a.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func ptr[T any](v T) *T { return &v }
