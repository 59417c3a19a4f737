package orchestrators

import (
	"context"
	"log/slog"

	"logem/internal/domain/contribution"
)

// ContributionStoreForDeletion defines the store interface needed to delete an entry.
type ContributionStoreForDeletion interface {
	DeleteByKey(ctx context.Context, key contribution.Key) error
}

// DeleteContributionDeps holds dependencies for DeleteContribution.
type DeleteContributionDeps struct {
	ContributionStore ContributionStoreForDeletion
}

// ExecuteDeleteContribution deletes at most one entry matching the composite
// key. The session email is the logged_by filter, which scopes deletion to
// the caller's own entries. A key that matches nothing is not an error.
// PRE: key.LoggedBy is the verified session email
// POST: at most one matching entry removed
func ExecuteDeleteContribution(ctx context.Context, key contribution.Key, deps DeleteContributionDeps) error {
	if err := deps.ContributionStore.DeleteByKey(ctx, key); err != nil {
		return err
	}

	slog.Info("contribution_event", "event", "deleted",
		"logged_by", key.LoggedBy,
		"contributor_id", key.ContributorID,
	)
	return nil
}
