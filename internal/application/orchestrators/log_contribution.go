package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"logem/internal/domain/contribution"
)

// ContributionStoreForLogging defines the store interface needed to log an entry.
type ContributionStoreForLogging interface {
	Insert(ctx context.Context, value contribution.Contribution) error
}

// LogContributionInput carries the raw submitted form fields.
type LogContributionInput struct {
	ContributorID    string
	ContributionDate string
	MofoTeam         string
	DataBucket       string
	Description      string
	Type             string
}

// LogContributionDeps holds dependencies for LogContribution.
type LogContributionDeps struct {
	ContributionStore ContributionStoreForLogging
}

// ExecuteLogContribution builds a contribution from the submitted fields and
// the authenticated identity and persists it. LoggedBy comes from the session
// email only; a logged_by field in the form body is ignored by construction.
// PRE: loggedBy is the verified session email
// POST: entry persisted on nil error; the caller decides how to surface failure
func ExecuteLogContribution(ctx context.Context, input LogContributionInput, loggedBy string, deps LogContributionDeps) error {
	entry := contribution.Contribution{
		LoggedBy:         loggedBy,
		ContributorID:    strings.TrimSpace(input.ContributorID),
		ContributionDate: strings.TrimSpace(input.ContributionDate),
		MofoTeam:         strings.TrimSpace(input.MofoTeam),
		DataBucket:       strings.TrimSpace(input.DataBucket),
		Description:      strings.TrimSpace(input.Description),
		Type:             strings.TrimSpace(input.Type),
	}

	if err := entry.Validate(); err != nil {
		slog.Info("contribution_event", "event", "rejected", "logged_by", loggedBy, "reason", err.Error())
		return err
	}

	if err := deps.ContributionStore.Insert(ctx, entry); err != nil {
		return err
	}

	slog.Info("contribution_event", "event", "logged",
		"logged_by", loggedBy,
		"contributor_id", entry.ContributorID,
		"mofo_team", entry.MofoTeam,
		"data_bucket", entry.DataBucket,
	)
	return nil
}
