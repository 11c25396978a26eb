// Package memory keeps every repository in process memory. It backs the
// STORE=memory development mode and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[uuid.UUID]domain.Question
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{questions: make(map[uuid.UUID]domain.Question)}
}

var _ ports.QuestionRepository = (*QuestionRepository)(nil)

func (r *QuestionRepository) Save(_ context.Context, question *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (r *QuestionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	out := cloneQuestion(q)
	return &out, nil
}

func (r *QuestionRepository) ListPublished(_ context.Context, now time.Time, limit, offset int) ([]*domain.Question, error) {
	r.mu.RLock()
	var published []domain.Question
	for _, q := range r.questions {
		if q.IsPublished(now) {
			published = append(published, q)
		}
	}
	r.mu.RUnlock()

	sort.Slice(published, func(i, j int) bool {
		return published[i].PublishAt.After(published[j].PublishAt)
	})

	if offset >= len(published) {
		return nil, nil
	}
	published = published[offset:]
	if limit > 0 && len(published) > limit {
		published = published[:limit]
	}

	out := make([]*domain.Question, 0, len(published))
	for _, q := range published {
		c := cloneQuestion(q)
		out = append(out, &c)
	}
	return out, nil
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Choices = append([]domain.Choice(nil), q.Choices...)
	if q.CloseAt != nil {
		closeAt := *q.CloseAt
		q.CloseAt = &closeAt
	}
	return q
}
