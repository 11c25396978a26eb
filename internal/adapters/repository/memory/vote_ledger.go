package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

type ledgerKey struct {
	userID     uuid.UUID
	questionID uuid.UUID
}

// VoteLedger indexes votes by (user, question), so a second vote for the
// same key can only replace the first.
type VoteLedger struct {
	mu    sync.RWMutex
	votes map[ledgerKey]domain.Vote
	clock ports.Clock
}

func NewVoteLedger(clock ports.Clock) *VoteLedger {
	return &VoteLedger{
		votes: make(map[ledgerKey]domain.Vote),
		clock: clock,
	}
}

var _ ports.VoteLedger = (*VoteLedger)(nil)

func (l *VoteLedger) Find(_ context.Context, userID, questionID uuid.UUID) (*domain.Vote, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.votes[ledgerKey{userID, questionID}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (l *VoteLedger) Upsert(_ context.Context, userID uuid.UUID, choice domain.Choice) (*ports.UpsertResult, error) {
	now := l.clock.Now()
	key := ledgerKey{userID, choice.QuestionID}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.votes[key]; ok {
		previous := existing.ChoiceID
		existing.ChoiceID = choice.ID
		existing.UpdatedAt = now
		l.votes[key] = existing
		return &ports.UpsertResult{Vote: existing, PreviousChoiceID: &previous}, nil
	}

	vote := domain.Vote{
		ID:         uuid.New(),
		QuestionID: choice.QuestionID,
		ChoiceID:   choice.ID,
		UserID:     userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.votes[key] = vote
	return &ports.UpsertResult{Vote: vote, Created: true}, nil
}

func (l *VoteLedger) Delete(_ context.Context, userID, questionID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{userID, questionID}
	if _, ok := l.votes[key]; !ok {
		return false, nil
	}
	delete(l.votes, key)
	return true, nil
}

func (l *VoteLedger) Count(_ context.Context, choiceID uuid.UUID) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var n int64
	for _, v := range l.votes {
		if v.ChoiceID == choiceID {
			n++
		}
	}
	return n, nil
}

func (l *VoteLedger) CountByQuestion(_ context.Context, questionID uuid.UUID) (map[uuid.UUID]int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := make(map[uuid.UUID]int64)
	for k, v := range l.votes {
		if k.questionID == questionID {
			counts[v.ChoiceID]++
		}
	}
	return counts, nil
}
