package contribution

import (
	"context"

	domain "logem/internal/domain/contribution"
)

// Store persists Contribution state.
type Store interface {
	Insert(ctx context.Context, value domain.Contribution) error
	DeleteByKey(ctx context.Context, key domain.Key) error
	ListRecentByLogger(ctx context.Context, loggedBy string, limit int) ([]domain.Contribution, error)
	AggregateByDateTeamBucket(ctx context.Context, date string, team string, bucket string) (Aggregate, error)
	CountByKey(ctx context.Context, key domain.Key) (int, error)
}

// Aggregate carries count results for a (date, team, bucket) triple.
// It intentionally holds counts only: the aggregate query backs an
// unauthenticated route and must not carry emails or other identity fields.
type Aggregate struct {
	Contributions int // matching rows
	Contributors  int // distinct contributor ids among them
}
