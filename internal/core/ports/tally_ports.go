package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
)

type TallyService interface {
	Tally(ctx context.Context, questionID uuid.UUID) (domain.Tally, error)
}
