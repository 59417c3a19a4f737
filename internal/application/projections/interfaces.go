package projections

import (
	"context"

	"logem/internal/adapters/storage/contribution"
	domain "logem/internal/domain/contribution"
)

// ContributionReadStore interface for contribution queries.
type ContributionReadStore interface {
	ListRecentByLogger(ctx context.Context, loggedBy string, limit int) ([]domain.Contribution, error)
	AggregateByDateTeamBucket(ctx context.Context, date string, team string, bucket string) (contribution.Aggregate, error)
}
