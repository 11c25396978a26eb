package domain

import "errors"

var (
	ErrQuestionNotFound    = errors.New("question not found")
	ErrInvalidQuestionID   = errors.New("invalid question id")
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrInvalidVotingWindow = errors.New("voting window closes before it opens")
	ErrInvalidChoice       = errors.New("invalid choice for this question")
	ErrVotingClosed        = errors.New("voting is not available for this question")
	ErrVoteNotFound        = errors.New("user has no vote on this question")
	ErrNothingToClear      = errors.New("user did not vote on this question")
	ErrLedgerConflict      = errors.New("concurrent vote conflict, try again")
	ErrCorruptedLedger     = errors.New("more than one vote recorded for user and question")
	ErrUserNotFound        = errors.New("user not found")
	ErrInternal            = errors.New("internal server error")
)
