package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
)

type QuestionRepository interface {
	Save(ctx context.Context, question *domain.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	// ListPublished returns questions with publish_at <= now, newest first.
	ListPublished(ctx context.Context, now time.Time, limit, offset int) ([]*domain.Question, error)
}

type CreateQuestionInput struct {
	Text      string
	PublishAt *time.Time
	CloseAt   *time.Time
	Choices   []string
}

type ListQuestionsInput struct {
	Page int
	// UserID, when set, annotates each item with that user's current choice.
	UserID *uuid.UUID
}

type QuestionSummary struct {
	Question    *domain.Question   `json:"question"`
	Eligibility domain.Eligibility `json:"eligibility"`
	UserChoice  *uuid.UUID         `json:"user_choice_id,omitempty"`
}

type QuestionService interface {
	Create(ctx context.Context, input CreateQuestionInput) (*domain.Question, error)
	GetPublished(ctx context.Context, id uuid.UUID) (*QuestionSummary, error)
	ListPublished(ctx context.Context, input ListQuestionsInput) ([]*QuestionSummary, error)
	Eligibility(ctx context.Context, id uuid.UUID) (domain.Eligibility, error)
}
