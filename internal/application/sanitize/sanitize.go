// Package sanitize holds the pure string helpers shared by the form page and
// the identity gate: cleaning untrusted query-string input and shaping stored
// rows for display.
package sanitize

import (
	"strings"

	"logem/internal/domain/contribution"
)

// htmlSignificant are the characters stripped by Clean. Values pass through
// html/template on render as well; stripping here keeps stored data inert too.
const htmlSignificant = "<>&\"'`"

// Clean strips characters that could render as markup when a value is
// interpolated into a page, and trims surrounding whitespace.
// POST: the result contains no angle brackets, ampersands, quotes, or backticks
func Clean(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(htmlSignificant, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}

// EndsWith reports whether s ends with exactly suffix. The check is anchored
// at the end of the string, so "user@mozillafoundation.org.evil.com" does not
// match the suffix "mozillafoundation.org".
func EndsWith(s, suffix string) bool {
	return strings.HasSuffix(s, suffix)
}

// DisplayEntry is a presentation-safe view of a logged contribution: no
// internal id, no owner email, no timestamps.
type DisplayEntry struct {
	ContributorID    string `json:"contributor_id"`
	ContributionDate string `json:"contribution_date"`
	MofoTeam         string `json:"mofo_team"`
	DataBucket       string `json:"data_bucket"`
	Description      string `json:"description"`
	Type             string `json:"type"`
}

// RecentForDisplay maps raw store rows into display-ready entries, preserving
// order and cleaning every field.
func RecentForDisplay(raw []contribution.Contribution) []DisplayEntry {
	entries := make([]DisplayEntry, 0, len(raw))
	for _, c := range raw {
		entries = append(entries, DisplayEntry{
			ContributorID:    Clean(c.ContributorID),
			ContributionDate: Clean(c.ContributionDate),
			MofoTeam:         Clean(c.MofoTeam),
			DataBucket:       Clean(c.DataBucket),
			Description:      Clean(c.Description),
			Type:             Clean(c.Type),
		})
	}
	return entries
}
