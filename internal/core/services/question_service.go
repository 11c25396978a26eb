package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

const questionsPerPage = 20

type questionService struct {
	repo   ports.QuestionRepository
	ledger ports.VoteLedger
	clock  ports.Clock
}

func NewQuestionService(repo ports.QuestionRepository, ledger ports.VoteLedger, clock ports.Clock) ports.QuestionService {
	return &questionService{
		repo:   repo,
		ledger: ledger,
		clock:  clock,
	}
}

func (s *questionService) Create(ctx context.Context, input ports.CreateQuestionInput) (*domain.Question, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidQuestion)
	}

	questionID := uuid.New()
	now := s.clock.Now()

	question := &domain.Question{
		ID:        questionID,
		Text:      text,
		PublishAt: now,
		CloseAt:   input.CloseAt,
		CreatedAt: now,
	}
	if input.PublishAt != nil {
		question.PublishAt = *input.PublishAt
	}
	if err := question.ValidateWindow(); err != nil {
		return nil, err
	}

	for _, choiceText := range input.Choices {
		choiceText = strings.TrimSpace(choiceText)
		if choiceText == "" {
			continue
		}
		question.Choices = append(question.Choices, domain.Choice{
			ID:         uuid.New(),
			QuestionID: questionID,
			Text:       choiceText,
			CreatedAt:  now,
		})
	}

	if len(question.Choices) < 2 {
		return nil, fmt.Errorf("%w: at least two valid choices are required", domain.ErrInvalidQuestion)
	}

	if err := s.repo.Save(ctx, question); err != nil {
		return nil, err
	}

	return question, nil
}

// GetPublished hides questions that are not published yet.
func (s *questionService) GetPublished(ctx context.Context, id uuid.UUID) (*ports.QuestionSummary, error) {
	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !question.IsPublished(now) {
		return nil, domain.ErrQuestionNotFound
	}

	return &ports.QuestionSummary{
		Question:    question,
		Eligibility: question.Eligibility(now),
	}, nil
}

func (s *questionService) ListPublished(ctx context.Context, input ports.ListQuestionsInput) ([]*ports.QuestionSummary, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}

	now := s.clock.Now()
	questions, err := s.repo.ListPublished(ctx, now, questionsPerPage, (page-1)*questionsPerPage)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ports.QuestionSummary, 0, len(questions))
	for _, q := range questions {
		summary := &ports.QuestionSummary{
			Question:    q,
			Eligibility: q.Eligibility(now),
		}

		if input.UserID != nil {
			vote, err := s.ledger.Find(ctx, *input.UserID, q.ID)
			if err != nil {
				return nil, err
			}
			if vote != nil {
				choiceID := vote.ChoiceID
				summary.UserChoice = &choiceID
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// Eligibility is evaluated against the clock on every call.
func (s *questionService) Eligibility(ctx context.Context, id uuid.UUID) (domain.Eligibility, error) {
	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Eligibility{}, err
	}
	return question.Eligibility(s.clock.Now()), nil
}
