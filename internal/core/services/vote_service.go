package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

type voteService struct {
	questionRepo ports.QuestionRepository
	ledger       ports.VoteLedger
	locker       ports.KeyLocker
	clock        ports.Clock
	logger       *slog.Logger
}

func NewVoteService(
	questionRepo ports.QuestionRepository,
	ledger ports.VoteLedger,
	locker ports.KeyLocker,
	clock ports.Clock,
	logger *slog.Logger,
) ports.VoteService {
	return &voteService{
		questionRepo: questionRepo,
		ledger:       ledger,
		locker:       locker,
		clock:        clock,
		logger:       resolveLogger(logger),
	}
}

// CastVote records input.ChoiceID as the user's only vote on the question,
// replacing any earlier choice. The eligibility check and the ledger write run
// under the (user, question) lock. A ledger conflict is retried once with a
// fresh eligibility check.
func (s *voteService) CastVote(ctx context.Context, input ports.CastVoteInput) (*ports.CastVoteResult, error) {
	question, err := s.questionRepo.GetByID(ctx, input.QuestionID)
	if err != nil {
		return nil, err
	}

	choice, ok := question.Choice(input.ChoiceID)
	if !ok {
		return nil, domain.ErrInvalidChoice
	}

	unlock, err := s.locker.Lock(ctx, voteLockKey(input.UserID, question.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire vote lock: %w", err)
	}
	defer unlock()

	result, err := s.upsertIfOpen(ctx, question, input.UserID, choice)
	if errors.Is(err, domain.ErrLedgerConflict) {
		s.logger.Warn("vote ledger conflict, retrying",
			"event", "ledger_conflict_retry",
			"user_id", input.UserID,
			"question_id", question.ID,
		)
		result, err = s.upsertIfOpen(ctx, question, input.UserID, choice)
	}
	if err != nil {
		return nil, err
	}

	event := "vote_cast"
	if !result.Created {
		event = "vote_changed"
	}
	s.logger.Info("vote recorded",
		"event", event,
		"user_id", input.UserID,
		"question_id", question.ID,
		"choice_id", choice.ID,
	)

	return &ports.CastVoteResult{
		Vote:             result.Vote,
		Created:          result.Created,
		PreviousChoiceID: result.PreviousChoiceID,
	}, nil
}

func (s *voteService) upsertIfOpen(ctx context.Context, question *domain.Question, userID uuid.UUID, choice domain.Choice) (*ports.UpsertResult, error) {
	if !question.CanVote(s.clock.Now()) {
		s.logger.Info("vote rejected",
			"event", "vote_rejected_closed",
			"user_id", userID,
			"question_id", question.ID,
		)
		return nil, domain.ErrVotingClosed
	}
	return s.ledger.Upsert(ctx, userID, choice)
}

// ClearVote removes the user's vote. Clearing is allowed regardless of the
// voting window.
func (s *voteService) ClearVote(ctx context.Context, userID, questionID uuid.UUID) error {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, voteLockKey(userID, question.ID))
	if err != nil {
		return fmt.Errorf("failed to acquire vote lock: %w", err)
	}
	defer unlock()

	existed, err := s.ledger.Delete(ctx, userID, question.ID)
	if err != nil {
		return err
	}
	if !existed {
		return domain.ErrNothingToClear
	}

	s.logger.Info("vote cleared",
		"event", "vote_cleared",
		"user_id", userID,
		"question_id", question.ID,
	)
	return nil
}

func (s *voteService) CurrentVote(ctx context.Context, userID, questionID uuid.UUID) (*domain.Vote, error) {
	if _, err := s.questionRepo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}

	vote, err := s.ledger.Find(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	if vote == nil {
		return nil, domain.ErrVoteNotFound
	}
	return vote, nil
}

func voteLockKey(userID, questionID uuid.UUID) string {
	return "vote:" + userID.String() + ":" + questionID.String()
}
