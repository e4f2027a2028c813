package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

type PostgresPollRepository struct {
	db DBTX
}

func NewPollRepository(db DBTX) PollRepository {
	return &PostgresPollRepository{db: db}
}

func (r *PostgresPollRepository) Create(ctx context.Context, p *domain.Poll) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO polls (id, meeting_id, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		p.ID, p.MeetingID, p.Name, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return quorum_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresPollRepository) GetByID(ctx context.Context, meetingID, pollID uuid.UUID) (domain.Poll, error) {
	var p domain.Poll
	err := r.db.QueryRowContext(ctx,
		`SELECT id, meeting_id, name, created_at
		 FROM polls WHERE id = $1 AND meeting_id = $2`, pollID, meetingID).
		Scan(&p.ID, &p.MeetingID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Poll{}, quorum_errors.ErrNotFound
		}
		return domain.Poll{}, err
	}
	return p, nil
}

func (r *PostgresPollRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]domain.Poll, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, meeting_id, name, created_at
		 FROM polls WHERE meeting_id = $1 ORDER BY created_at`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []domain.Poll
	for rows.Next() {
		var p domain.Poll
		if err := rows.Scan(&p.ID, &p.MeetingID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

func (r *PostgresPollRepository) Delete(ctx context.Context, meetingID, pollID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM polls WHERE id = $1 AND meeting_id = $2`, pollID, meetingID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return quorum_errors.ErrNotFound
	}
	return nil
}
