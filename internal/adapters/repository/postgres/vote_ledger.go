package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

type voteLedger struct {
	db *sql.DB
}

func NewVoteLedger(db *sql.DB) ports.VoteLedger {
	return &voteLedger{
		db: db,
	}
}

func (r *voteLedger) Find(ctx context.Context, userID, questionID uuid.UUID) (*domain.Vote, error) {
	query := `
		SELECT id, question_id, choice_id, user_id, created_at, updated_at
		FROM votes
		WHERE user_id = $1 AND question_id = $2
		LIMIT 2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.ID, &v.QuestionID, &v.ChoiceID, &v.UserID, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}

	switch len(votes) {
	case 0:
		return nil, nil
	case 1:
		return &votes[0], nil
	default:
		return nil, domain.ErrCorruptedLedger
	}
}

// Upsert relies on the votes_user_question_key constraint. A first vote that
// loses an insert race to a concurrent commit falls back to updating the
// winner's row, so the previous choice is always read from a locked row.
func (r *voteLedger) Upsert(ctx context.Context, userID uuid.UUID, choice domain.Choice) (*ports.UpsertResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := upsertVote(ctx, tx, userID, choice)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapLedgerError("failed to commit vote", err)
	}
	return result, nil
}

func upsertVote(ctx context.Context, tx *sql.Tx, userID uuid.UUID, choice domain.Choice) (*ports.UpsertResult, error) {
	created, err := insertVote(ctx, tx, userID, choice)
	if err != nil {
		return nil, err
	}
	if created != nil {
		return &ports.UpsertResult{Vote: *created, Created: true}, nil
	}

	previous, err := lockVote(ctx, tx, userID, choice.QuestionID)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		// The conflicting row was deleted before it could be locked.
		return nil, fmt.Errorf("vote for user %s vanished during upsert: %w", userID, domain.ErrLedgerConflict)
	}

	query := `
		UPDATE votes
		SET choice_id = $1, updated_at = NOW()
		WHERE user_id = $2 AND question_id = $3
		RETURNING id, question_id, choice_id, user_id, created_at, updated_at
	`
	result := &ports.UpsertResult{PreviousChoiceID: previous}
	v := &result.Vote
	err = tx.QueryRowContext(ctx, query, choice.ID, userID, choice.QuestionID).Scan(
		&v.ID, &v.QuestionID, &v.ChoiceID, &v.UserID, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, mapLedgerError("failed to update vote", err)
	}
	return result, nil
}

// insertVote returns nil without error when a vote for the key already exists.
func insertVote(ctx context.Context, tx *sql.Tx, userID uuid.UUID, choice domain.Choice) (*domain.Vote, error) {
	query := `
		INSERT INTO votes (id, question_id, choice_id, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, question_id) DO NOTHING
		RETURNING id, question_id, choice_id, user_id, created_at, updated_at
	`
	var v domain.Vote
	err := tx.QueryRowContext(ctx, query, uuid.New(), choice.QuestionID, choice.ID, userID).Scan(
		&v.ID, &v.QuestionID, &v.ChoiceID, &v.UserID, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapLedgerError("failed to insert vote", err)
	}
	return &v, nil
}

func lockVote(ctx context.Context, tx *sql.Tx, userID, questionID uuid.UUID) (*uuid.UUID, error) {
	var previous uuid.UUID
	err := tx.QueryRowContext(ctx,
		`SELECT choice_id FROM votes WHERE user_id = $1 AND question_id = $2 FOR UPDATE`,
		userID, questionID,
	).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapLedgerError("failed to lock current vote", err)
	}
	return &previous, nil
}

func (r *voteLedger) Delete(ctx context.Context, userID, questionID uuid.UUID) (bool, error) {
	query := `DELETE FROM votes WHERE user_id = $1 AND question_id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, questionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete vote: %w", err)
	}
	return n > 0, nil
}

func (r *voteLedger) Count(ctx context.Context, choiceID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE choice_id = $1`, choiceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

func (r *voteLedger) CountByQuestion(ctx context.Context, questionID uuid.UUID) (map[uuid.UUID]int64, error) {
	query := `
		SELECT c.id, COUNT(v.id)
		FROM choices c
		LEFT JOIN votes v ON v.choice_id = c.id
		WHERE c.question_id = $1
		GROUP BY c.id
	`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var id uuid.UUID
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vote counts: %w", err)
	}
	return counts, nil
}

func mapLedgerError(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%s: %w", msg, domain.ErrLedgerConflict)
		case pqForeignKeyViolation:
			if pqErr.Constraint == "votes_choice_question_fkey" {
				return fmt.Errorf("%s: %w", msg, domain.ErrInvalidChoice)
			}
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
