package contribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"logem/internal/adapters/storage"
	domain "logem/internal/domain/contribution"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new contribution store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Insert appends a contribution. Duplicate composite keys are allowed; each
// submission is its own row with a fresh internal id.
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Insert(ctx context.Context, entity domain.Contribution) error {
	if entity.ID == "" {
		entity.ID = uuid.New().String()
	}
	createdAt := entity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contribution
			(id, logged_by, contributor_id, contribution_date, mofo_team, data_bucket, description, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.ID,
		entity.LoggedBy,
		entity.ContributorID,
		entity.ContributionDate,
		entity.MofoTeam,
		entity.DataBucket,
		entity.Description,
		entity.Type,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

// DeleteByKey removes at most one row matching the composite key.
// Deleting a key that was never inserted is not an error.
// PRE: key fields are as supplied by the caller (may be empty strings)
// POST: at most one matching row is gone
func (s *SQLiteStore) DeleteByKey(ctx context.Context, key domain.Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM contribution WHERE rowid IN (
			SELECT rowid FROM contribution
			WHERE logged_by = ? AND contributor_id = ? AND contribution_date = ?
				AND mofo_team = ? AND data_bucket = ?
			LIMIT 1
		)`,
		key.LoggedBy, key.ContributorID, key.ContributionDate, key.MofoTeam, key.DataBucket,
	)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	return nil
}

// ListRecentByLogger returns the newest entries logged by the given email,
// ordered by created_at descending, bounded by limit.
// PRE: loggedBy is non-empty, limit > 0
// POST: returns at most limit rows, newest first
func (s *SQLiteStore) ListRecentByLogger(ctx context.Context, loggedBy string, limit int) ([]domain.Contribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, logged_by, contributor_id, contribution_date, mofo_team, data_bucket, description, type, created_at
		FROM contribution
		WHERE logged_by = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		loggedBy, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent contributions: %w", err)
	}
	defer rows.Close()

	var results []domain.Contribution
	for rows.Next() {
		var entity domain.Contribution
		var createdStr string
		if err := rows.Scan(
			&entity.ID,
			&entity.LoggedBy,
			&entity.ContributorID,
			&entity.ContributionDate,
			&entity.MofoTeam,
			&entity.DataBucket,
			&entity.Description,
			&entity.Type,
			&createdStr,
		); err != nil {
			return nil, err
		}
		entity.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// AggregateByDateTeamBucket counts rows and distinct contributors for the
// triple. The query selects no identity columns; it is safe to expose on the
// unauthenticated read API.
// PRE: date is YYYY-MM-DD; team and bucket are non-empty
// POST: returns zero counts when nothing matches
func (s *SQLiteStore) AggregateByDateTeamBucket(ctx context.Context, date, team, bucket string) (Aggregate, error) {
	var agg Aggregate
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT contributor_id)
		FROM contribution
		WHERE contribution_date = ? AND mofo_team = ? AND data_bucket = ?`,
		date, team, bucket,
	).Scan(&agg.Contributions, &agg.Contributors)
	if err != nil {
		return Aggregate{}, fmt.Errorf("aggregate contributions: %w", err)
	}
	return agg, nil
}

// CountByKey returns how many rows match a composite key.
// PRE: none
// POST: returns a count >= 0
func (s *SQLiteStore) CountByKey(ctx context.Context, key domain.Key) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contribution
		WHERE logged_by = ? AND contributor_id = ? AND contribution_date = ?
			AND mofo_team = ? AND data_bucket = ?`,
		key.LoggedBy, key.ContributorID, key.ContributionDate, key.MofoTeam, key.DataBucket,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by key: %w", err)
	}
	return n, nil
}
