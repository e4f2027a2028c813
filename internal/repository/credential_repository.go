package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

type PostgresCredentialRepository struct {
	db DBTX
}

func NewCredentialRepository(db DBTX) CredentialRepository {
	return &PostgresCredentialRepository{db: db}
}

func (r *PostgresCredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, meeting_id, lookup_key, hash, issued_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.MeetingID, c.LookupKey, c.Hash, c.IssuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return quorum_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresCredentialRepository) GetByLookupKey(ctx context.Context, meetingID uuid.UUID, lookupKey string) (domain.Credential, error) {
	var c domain.Credential
	err := r.db.QueryRowContext(ctx,
		`SELECT id, meeting_id, lookup_key, hash, issued_at
		 FROM credentials WHERE meeting_id = $1 AND lookup_key = $2`,
		meetingID, lookupKey).
		Scan(&c.ID, &c.MeetingID, &c.LookupKey, &c.Hash, &c.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credential{}, quorum_errors.ErrNotFound
		}
		return domain.Credential{}, err
	}
	return c, nil
}

func (r *PostgresCredentialRepository) CountByMeeting(ctx context.Context, meetingID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credentials WHERE meeting_id = $1`, meetingID).
		Scan(&count)
	return count, err
}

func (r *PostgresCredentialRepository) CountByMeetings(ctx context.Context, meetingIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(meetingIDs))
	if len(meetingIDs) == 0 {
		return counts, nil
	}

	args := make([]interface{}, len(meetingIDs))
	for i, id := range meetingIDs {
		args[i] = id
	}
	query := `SELECT meeting_id, COUNT(*) FROM credentials
		 WHERE meeting_id IN (` + buildPlaceholders(1, len(meetingIDs)) + `)
		 GROUP BY meeting_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}
