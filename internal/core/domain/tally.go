package domain

import "github.com/google/uuid"

type ChoiceResult struct {
	ChoiceID   uuid.UUID `json:"choice_id"`
	Text       string    `json:"text"`
	VoteCount  int64     `json:"vote_count"`
	Percentage float64   `json:"percentage"`
}

// Tally is computed from the vote ledger on every read and never stored.
type Tally struct {
	QuestionID uuid.UUID      `json:"question_id"`
	Results    []ChoiceResult `json:"results"`
	TotalVotes int64          `json:"total_votes"`
}

// NewTally builds a tally in the question's choice order. Choices missing
// from counts have zero votes.
func NewTally(q *Question, counts map[uuid.UUID]int64) Tally {
	t := Tally{QuestionID: q.ID, Results: make([]ChoiceResult, 0, len(q.Choices))}
	for _, c := range q.Choices {
		t.TotalVotes += counts[c.ID]
	}
	for _, c := range q.Choices {
		n := counts[c.ID]
		percentage := 0.0
		if t.TotalVotes > 0 {
			percentage = (float64(n) / float64(t.TotalVotes)) * 100
		}
		t.Results = append(t.Results, ChoiceResult{
			ChoiceID:   c.ID,
			Text:       c.Text,
			VoteCount:  n,
			Percentage: percentage,
		})
	}
	return t
}

// Counts returns the tally as a choice id to vote count mapping.
func (t Tally) Counts() map[uuid.UUID]int64 {
	m := make(map[uuid.UUID]int64, len(t.Results))
	for _, r := range t.Results {
		m[r.ChoiceID] = r.VoteCount
	}
	return m
}
