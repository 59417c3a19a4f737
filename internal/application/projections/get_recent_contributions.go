package projections

import (
	"context"

	"logem/internal/application/sanitize"
)

// RecentLimit bounds the recency window shown on the logging page.
const RecentLimit = 10

// GetRecentContributionsQuery carries input for the recent-contributions read.
type GetRecentContributionsQuery struct {
	LoggedBy string
}

// GetRecentContributionsDeps holds dependencies for the read.
type GetRecentContributionsDeps struct {
	ContributionStore ContributionReadStore
}

// GetRecentContributionsResult carries display-ready entries, newest first.
type GetRecentContributionsResult struct {
	Recent []sanitize.DisplayEntry
}

// QueryGetRecentContributions returns the caller's newest logged entries in a
// presentation-safe shape: bounded, newest first, every field cleaned, no
// internal ids or owner email.
// PRE: query.LoggedBy is the authenticated session email
// POST: at most RecentLimit entries
func QueryGetRecentContributions(ctx context.Context, query GetRecentContributionsQuery, deps GetRecentContributionsDeps) (GetRecentContributionsResult, error) {
	raw, err := deps.ContributionStore.ListRecentByLogger(ctx, query.LoggedBy, RecentLimit)
	if err != nil {
		return GetRecentContributionsResult{}, err
	}
	return GetRecentContributionsResult{Recent: sanitize.RecentForDisplay(raw)}, nil
}
