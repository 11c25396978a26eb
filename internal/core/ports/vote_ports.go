package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
)

// VoteLedger holds at most one vote per (user, question).
type VoteLedger interface {
	// Find returns nil when the user has not voted on the question and
	// domain.ErrCorruptedLedger when more than one vote is recorded.
	Find(ctx context.Context, userID, questionID uuid.UUID) (*domain.Vote, error)
	// Upsert creates the user's vote for choice.QuestionID or reassigns the
	// existing one. Conflicting concurrent writes fail with domain.ErrLedgerConflict.
	Upsert(ctx context.Context, userID uuid.UUID, choice domain.Choice) (*UpsertResult, error)
	// Delete reports whether a vote existed.
	Delete(ctx context.Context, userID, questionID uuid.UUID) (bool, error)
	Count(ctx context.Context, choiceID uuid.UUID) (int64, error)
	// CountByQuestion counts votes per choice of the question in one read.
	CountByQuestion(ctx context.Context, questionID uuid.UUID) (map[uuid.UUID]int64, error)
}

type UpsertResult struct {
	Vote             domain.Vote
	Created          bool
	PreviousChoiceID *uuid.UUID
}

type CastVoteInput struct {
	UserID     uuid.UUID
	QuestionID uuid.UUID
	ChoiceID   uuid.UUID
}

type CastVoteResult struct {
	Vote             domain.Vote `json:"vote"`
	Created          bool        `json:"created"`
	PreviousChoiceID *uuid.UUID  `json:"previous_choice_id,omitempty"`
}

type VoteService interface {
	CastVote(ctx context.Context, input CastVoteInput) (*CastVoteResult, error)
	ClearVote(ctx context.Context, userID, questionID uuid.UUID) error
	CurrentVote(ctx context.Context, userID, questionID uuid.UUID) (*domain.Vote, error)
}
