package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

type tallyService struct {
	questionRepo ports.QuestionRepository
	ledger       ports.VoteLedger
}

func NewTallyService(questionRepo ports.QuestionRepository, ledger ports.VoteLedger) ports.TallyService {
	return &tallyService{
		questionRepo: questionRepo,
		ledger:       ledger,
	}
}

func (s *tallyService) Tally(ctx context.Context, questionID uuid.UUID) (domain.Tally, error) {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return domain.Tally{}, err
	}

	counts, err := s.ledger.CountByQuestion(ctx, question.ID)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("failed to count votes: %w", err)
	}

	return domain.NewTally(question, counts), nil
}
