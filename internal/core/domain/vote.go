package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one user's current selection for one question. At most one Vote
// exists per (UserID, QuestionID).
type Vote struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	ChoiceID   uuid.UUID `json:"choice_id"`
	UserID     uuid.UUID `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
