package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

func TestCastAndReplaceVote(t *testing.T) {
	app := setupTestApp(t, nil)
	q := app.addQuestion(t, baseTime.Add(-time.Hour), nil)
	_, token := app.createUserAndToken(t)
	votesPath := fmt.Sprintf("/api/questions/%s/votes", q.ID)

	// 1. No vote yet
	resp, _ := app.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%s/my-vote", q.ID), token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// 2. First vote is created
	resp, body := app.do(t, http.MethodPost, votesPath, token, map[string]any{"choice_id": q.Choices[0].ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	// 3. Second vote replaces the first
	resp, body = app.do(t, http.MethodPost, votesPath, token, map[string]any{"choice_id": q.Choices[1].ID})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result ports.CastVoteResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Created)
	require.NotNil(t, result.PreviousChoiceID)
	assert.Equal(t, q.Choices[0].ID, *result.PreviousChoiceID)

	// 4. Current vote and results reflect the replacement
	resp, body = app.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%s/my-vote", q.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var vote domain.Vote
	require.NoError(t, json.Unmarshal(body, &vote))
	assert.Equal(t, q.Choices[1].ID, vote.ChoiceID)

	resp, body = app.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%s/results", q.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tally domain.Tally
	require.NoError(t, json.Unmarshal(body, &tally))
	assert.Equal(t, int64(1), tally.TotalVotes)
	assert.Equal(t, map[uuid.UUID]int64{q.Choices[0].ID: 0, q.Choices[1].ID: 1}, tally.Counts())
}

func TestCastVoteErrors(t *testing.T) {
	app := setupTestApp(t, nil)
	open := app.addQuestion(t, baseTime.Add(-time.Hour), nil)
	other := app.addQuestion(t, baseTime.Add(-time.Hour), nil)
	closed := app.addQuestion(t, baseTime.Add(-48*time.Hour), ptr(baseTime.Add(-time.Minute)))
	_, token := app.createUserAndToken(t)

	cases := []struct {
		name  string
		path  string
		token string
		body  any
		want  int
	}{
		{"missing token", "/api/questions/" + open.ID.String() + "/votes", "", map[string]any{"choice_id": open.Choices[0].ID}, http.StatusUnauthorized},
		{"invalid token", "/api/questions/" + open.ID.String() + "/votes", "garbage", map[string]any{"choice_id": open.Choices[0].ID}, http.StatusUnauthorized},
		{"malformed question id", "/api/questions/not-a-uuid/votes", token, map[string]any{"choice_id": open.Choices[0].ID}, http.StatusBadRequest},
		{"unknown question", "/api/questions/" + uuid.NewString() + "/votes", token, map[string]any{"choice_id": open.Choices[0].ID}, http.StatusNotFound},
		{"choice from another question", "/api/questions/" + open.ID.String() + "/votes", token, map[string]any{"choice_id": other.Choices[0].ID}, http.StatusBadRequest},
		{"bad body", "/api/questions/" + open.ID.String() + "/votes", token, "choice", http.StatusBadRequest},
		{"closed question", "/api/questions/" + closed.ID.String() + "/votes", token, map[string]any{"choice_id": closed.Choices[0].ID}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := app.do(t, http.MethodPost, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, resp.StatusCode, string(body))
		})
	}

	resp, body := app.do(t, http.MethodGet, "/api/questions/"+open.ID.String()+"/results", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tally domain.Tally
	require.NoError(t, json.Unmarshal(body, &tally))
	assert.Zero(t, tally.TotalVotes)
}

func TestClearVote(t *testing.T) {
	app := setupTestApp(t, nil)
	q := app.addQuestion(t, baseTime.Add(-time.Hour), nil)
	_, token := app.createUserAndToken(t)
	votesPath := fmt.Sprintf("/api/questions/%s/votes", q.ID)

	resp, _ := app.do(t, http.MethodDelete, votesPath, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, votesPath, token, map[string]any{"choice_id": q.Choices[0].ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = app.do(t, http.MethodDelete, votesPath, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = app.do(t, http.MethodDelete, votesPath, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// a cleared vote can be cast again as a new one
	resp, _ = app.do(t, http.MethodPost, votesPath, token, map[string]any{"choice_id": q.Choices[1].ID})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUnpublishedQuestionIsHidden(t *testing.T) {
	app := setupTestApp(t, nil)
	q := app.addQuestion(t, baseTime.Add(time.Hour), nil)

	resp, _ := app.do(t, http.MethodGet, "/api/questions/"+q.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.do(t, http.MethodGet, "/api/questions/"+q.ID.String()+"/results", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := app.do(t, http.MethodGet, "/api/questions/"+q.ID.String()+"/eligibility", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var eligibility domain.Eligibility
	require.NoError(t, json.Unmarshal(body, &eligibility))
	assert.Equal(t, domain.Eligibility{}, eligibility)

	// once the clock passes publication the question shows up
	app.Clock.Set(baseTime.Add(2 * time.Hour))
	resp, body = app.do(t, http.MethodGet, "/api/questions/"+q.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary ports.QuestionSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.True(t, summary.Eligibility.CanVote)
}

func TestListQuestions(t *testing.T) {
	app := setupTestApp(t, nil)
	voted := app.addQuestion(t, baseTime.Add(-2*time.Hour), nil)
	fresh := app.addQuestion(t, baseTime.Add(-time.Hour), nil)
	app.addQuestion(t, baseTime.Add(time.Hour), nil)
	_, token := app.createUserAndToken(t)

	resp, _ := app.do(t, http.MethodPost, "/api/questions/"+voted.ID.String()+"/votes", token, map[string]any{"choice_id": voted.Choices[1].ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := app.do(t, http.MethodGet, "/api/questions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []ports.QuestionSummary
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, fresh.ID, list[0].Question.ID)
	assert.Nil(t, list[0].UserChoice)
	require.NotNil(t, list[1].UserChoice)
	assert.Equal(t, voted.Choices[1].ID, *list[1].UserChoice)

	resp, body = app.do(t, http.MethodGet, "/api/questions", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = nil
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Nil(t, list[1].UserChoice)

	resp, _ = app.do(t, http.MethodGet, "/api/questions?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateQuestion(t *testing.T) {
	app := setupTestApp(t, nil)
	_, token := app.createUserAndToken(t)
	payload := map[string]any{
		"text":     "Coffee or tea?",
		"close_at": baseTime.Add(time.Hour),
		"choices":  []string{"coffee", "tea"},
	}

	resp, _ := app.do(t, http.MethodPost, "/api/questions", "", payload)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := app.do(t, http.MethodPost, "/api/questions", token, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var q domain.Question
	require.NoError(t, json.Unmarshal(body, &q))
	assert.Len(t, q.Choices, 2)
	assert.True(t, q.PublishAt.Equal(baseTime))

	resp, _ = app.do(t, http.MethodPost, "/api/questions", token, map[string]any{
		"text":       "Backwards",
		"publish_at": baseTime,
		"close_at":   baseTime.Add(-time.Hour),
		"choices":    []string{"a", "b"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoteRateLimit(t *testing.T) {
	app := setupTestApp(t, NewVoteRateLimiter(0.001, 2))
	q := app.addQuestion(t, baseTime.Add(-time.Hour), nil)
	_, token := app.createUserAndToken(t)
	_, otherToken := app.createUserAndToken(t)
	path := "/api/questions/" + q.ID.String() + "/votes"
	body := map[string]any{"choice_id": q.Choices[0].ID}

	resp, _ := app.do(t, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = app.do(t, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = app.do(t, http.MethodPost, path, token, body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, path, otherToken, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestGoogleLoginFlow(t *testing.T) {
	app := setupTestApp(t, nil)
	client := app.Server.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	// 1. Rejected credential
	resp, err := client.PostForm(app.Server.URL+"/auth/google/callback", url.Values{"credential": {"forged"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 2. Accepted credential sets both cookies
	resp, err = client.PostForm(app.Server.URL+"/auth/google/callback", url.Values{"credential": {"good-google-token"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	cookies := map[string]string{}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c.Value
	}
	require.NotEmpty(t, cookies["access_token"])
	require.NotEmpty(t, cookies["refresh_token"])

	// 3. The access token identifies the user
	resp2, body := app.do(t, http.MethodGet, "/api/users/me", cookies["access_token"], nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var me domain.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "ada@example.com", me.Email)

	// 4. Logout expires the cookies
	req, err := http.NewRequest(http.MethodPost, app.Server.URL+"/auth/logout", strings.NewReader(""))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookies["refresh_token"]})
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 5. The revoked refresh token no longer works
	req, err = http.NewRequest(http.MethodPost, app.Server.URL+"/auth/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookies["refresh_token"]})
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
