package contribution

import (
	"errors"
	"time"
)

// DateFormat is the wire and storage format for contribution dates.
const DateFormat = "2006-01-02"

// Contribution is a single logged unit of contributor activity.
// MofoTeam and DataBucket are open string sets: known values exist
// (webmaker, openbadges, code, events, ...) but the set is not enforced.
// INVARIANT: LoggedBy always comes from the authenticated session, never from form input.
type Contribution struct {
	ID               string // internal row id, never exposed on the API surface
	LoggedBy         string
	ContributorID    string
	ContributionDate string // YYYY-MM-DD
	MofoTeam         string
	DataBucket       string
	Description      string
	Type             string
	CreatedAt        time.Time
}

// Key identifies a contribution for deletion. Entries are never updated in
// place; edits are delete + re-create by the caller. External links encode
// exactly these five fields, so the key must not change shape.
type Key struct {
	LoggedBy         string
	ContributorID    string
	ContributionDate string
	MofoTeam         string
	DataBucket       string
}

// Key returns the composite deletion key for this entry.
func (c Contribution) Key() Key {
	return Key{
		LoggedBy:         c.LoggedBy,
		ContributorID:    c.ContributorID,
		ContributionDate: c.ContributionDate,
		MofoTeam:         c.MofoTeam,
		DataBucket:       c.DataBucket,
	}
}

// Validate checks that the required fields are present and the date is well-formed.
// PRE: none
// POST: returns nil only if the entry can be persisted
func (c *Contribution) Validate() error {
	if c.LoggedBy == "" {
		return errors.New("logged_by is required")
	}
	if c.ContributorID == "" {
		return errors.New("contributor_id is required")
	}
	if _, err := ParseDate(c.ContributionDate); err != nil {
		return err
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD string, rejecting impossible calendar dates
// (time.Parse refuses e.g. 2024-02-30).
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("contribution_date is required")
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, errors.New("contribution_date must be in this format: YYYY-MM-DD")
	}
	return t, nil
}
