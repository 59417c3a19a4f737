package projections

import (
	"context"
)

// GetContributorCountsQuery carries a validated (date, team, bucket) triple.
type GetContributorCountsQuery struct {
	Date   string // YYYY-MM-DD, already validated by the caller
	Team   string
	Bucket string
}

// GetContributorCountsDeps holds dependencies for the read.
type GetContributorCountsDeps struct {
	ContributionStore ContributionReadStore
}

// GetContributorCountsResult is the public aggregate payload. It carries
// counts only: this projection backs an unauthenticated route and must not
// expose emails or any other identity data.
type GetContributorCountsResult struct {
	Date          string `json:"date"`
	Team          string `json:"team"`
	Bucket        string `json:"bucket"`
	Contributions int    `json:"contributions"`
	Contributors  int    `json:"contributors"`
}

// QueryGetContributorCounts computes the aggregate for a triple.
// PRE: query fields are validated
// POST: zero counts for a triple nobody logged against
func QueryGetContributorCounts(ctx context.Context, query GetContributorCountsQuery, deps GetContributorCountsDeps) (GetContributorCountsResult, error) {
	agg, err := deps.ContributionStore.AggregateByDateTeamBucket(ctx, query.Date, query.Team, query.Bucket)
	if err != nil {
		return GetContributorCountsResult{}, err
	}
	return GetContributorCountsResult{
		Date:          query.Date,
		Team:          query.Team,
		Bucket:        query.Bucket,
		Contributions: agg.Contributions,
		Contributors:  agg.Contributors,
	}, nil
}
