package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecentWindow is how long after publication a question counts as recent.
const RecentWindow = 24 * time.Hour

type Question struct {
	ID        uuid.UUID  `json:"id"`
	Text      string     `json:"text"`
	PublishAt time.Time  `json:"publish_at"`
	CloseAt   *time.Time `json:"close_at,omitempty"`
	Choices   []Choice   `json:"choices"`
	CreatedAt time.Time  `json:"created_at"`
}

type Choice struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Eligibility is the voting state of a question at a given instant.
type Eligibility struct {
	IsPublished          bool `json:"is_published"`
	WasRecentlyPublished bool `json:"was_recently_published"`
	CanVote              bool `json:"can_vote"`
}

func (q *Question) IsPublished(now time.Time) bool {
	return !now.Before(q.PublishAt)
}

// WasRecentlyPublished reports whether PublishAt lies in [now-1d, now].
func (q *Question) WasRecentlyPublished(now time.Time) bool {
	return !q.PublishAt.Before(now.Add(-RecentWindow)) && !q.PublishAt.After(now)
}

// CanVote is true from PublishAt until CloseAt, both inclusive. A question
// without CloseAt stays open forever once published.
func (q *Question) CanVote(now time.Time) bool {
	if q.CloseAt != nil {
		return q.IsPublished(now) && !now.After(*q.CloseAt)
	}
	return q.IsPublished(now)
}

func (q *Question) Eligibility(now time.Time) Eligibility {
	return Eligibility{
		IsPublished:          q.IsPublished(now),
		WasRecentlyPublished: q.WasRecentlyPublished(now),
		CanVote:              q.CanVote(now),
	}
}

// ValidateWindow rejects a voting window that closes before it opens.
func (q *Question) ValidateWindow() error {
	if q.CloseAt != nil && q.CloseAt.Before(q.PublishAt) {
		return ErrInvalidVotingWindow
	}
	return nil
}

// Choice returns the choice with the given id if it belongs to q.
func (q *Question) Choice(id uuid.UUID) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}
