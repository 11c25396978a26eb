package memory

import "github.com/google/uuid"

// Len returns the number of votes recorded for the question.
func (l *VoteLedger) Len(questionID uuid.UUID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for k := range l.votes {
		if k.questionID == questionID {
			n++
		}
	}
	return n
}
