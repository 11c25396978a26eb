package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/lock/local"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
	"github.com/vncsmyrnk/timedpoll/internal/core/services"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

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

type env struct {
	clock     *testClock
	questions *memory.QuestionRepository
	ledger    *memory.VoteLedger
	votes     ports.VoteService
	tally     ports.TallyService
	polls     ports.QuestionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := &testClock{t: baseTime}
	questions := memory.NewQuestionRepository()
	ledger := memory.NewVoteLedger(clock)
	return newEnvWithLedger(clock, questions, ledger, ledger)
}

func newEnvWithLedger(clock *testClock, questions *memory.QuestionRepository, ledger *memory.VoteLedger, serviceLedger ports.VoteLedger) *env {
	return &env{
		clock:     clock,
		questions: questions,
		ledger:    ledger,
		votes:     services.NewVoteService(questions, serviceLedger, local.NewKeyedMutex(), clock, nil),
		tally:     services.NewTallyService(questions, serviceLedger),
		polls:     services.NewQuestionService(questions, serviceLedger, clock),
	}
}

// addQuestion stores a question published at publishAt with the given choices.
func (e *env) addQuestion(t *testing.T, publishAt time.Time, closeAt *time.Time, choices ...string) *domain.Question {
	t.Helper()
	q := &domain.Question{
		ID:        uuid.New(),
		Text:      "Favourite colour?",
		PublishAt: publishAt,
		CloseAt:   closeAt,
		CreatedAt: publishAt,
	}
	for _, text := range choices {
		q.Choices = append(q.Choices, domain.Choice{ID: uuid.New(), QuestionID: q.ID, Text: text})
	}
	require.NoError(t, e.questions.Save(context.Background(), q))
	return q
}

// voteCount is the number of votes the ledger holds for the question.
func (e *env) voteCount(t *testing.T, questionID uuid.UUID) int64 {
	t.Helper()
	counts, err := e.ledger.CountByQuestion(context.Background(), questionID)
	require.NoError(t, err)
	var n int64
	for _, c := range counts {
		n += c
	}
	return n
}

func ptr[T any](v T) *T { return &v }
