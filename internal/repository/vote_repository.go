package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

type PostgresVoteRepository struct {
	db DBTX
}

func NewVoteRepository(db DBTX) VoteRepository {
	return &PostgresVoteRepository{db: db}
}

// Create inserts the vote and lets the (poll_id, credential_id) unique index
// arbitrate duplicates. No prior existence check: two concurrent submissions
// from the same credential race on the index and exactly one wins.
func (r *PostgresVoteRepository) Create(ctx context.Context, v *domain.Vote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO votes (id, poll_id, credential_id, choice, voted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.PollID, v.CredentialID, v.Choice, v.VotedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return quorum_errors.ErrAlreadyVoted
		}
		return err
	}
	return nil
}

func (r *PostgresVoteRepository) CountByChoice(ctx context.Context, pollID uuid.UUID) (map[string]int, error) {
	bulk, err := r.CountByChoiceBulk(ctx, []uuid.UUID{pollID})
	if err != nil {
		return nil, err
	}
	if counts, ok := bulk[pollID]; ok {
		return counts, nil
	}
	return domain.ZeroCounts(), nil
}

func (r *PostgresVoteRepository) CountByChoiceBulk(ctx context.Context, pollIDs []uuid.UUID) (map[uuid.UUID]map[string]int, error) {
	result := make(map[uuid.UUID]map[string]int, len(pollIDs))
	if len(pollIDs) == 0 {
		return result, nil
	}

	args := make([]interface{}, len(pollIDs))
	for i, id := range pollIDs {
		args[i] = id
	}
	query := `SELECT poll_id, choice, COUNT(*) FROM votes
		 WHERE poll_id IN (` + buildPlaceholders(1, len(pollIDs)) + `)
		 GROUP BY poll_id, choice`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pollID uuid.UUID
		var choice string
		var count int
		if err := rows.Scan(&pollID, &choice, &count); err != nil {
			return nil, err
		}
		counts, ok := result[pollID]
		if !ok {
			counts = domain.ZeroCounts()
			result[pollID] = counts
		}
		counts[choice] = count
	}
	return result, rows.Err()
}

func (r *PostgresVoteRepository) ChoicesByCredential(ctx context.Context, meetingID, credentialID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.poll_id, v.choice
		 FROM votes v
		 JOIN polls p ON p.id = v.poll_id
		 WHERE p.meeting_id = $1 AND v.credential_id = $2`,
		meetingID, credentialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	choices := make(map[uuid.UUID]string)
	for rows.Next() {
		var pollID uuid.UUID
		var choice string
		if err := rows.Scan(&pollID, &choice); err != nil {
			return nil, err
		}
		choices[pollID] = choice
	}
	return choices, rows.Err()
}
