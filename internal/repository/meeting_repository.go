package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

type PostgresMeetingRepository struct {
	db DBTX
}

func NewMeetingRepository(db DBTX) MeetingRepository {
	return &PostgresMeetingRepository{db: db}
}

func (r *PostgresMeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meetings (id, meeting_code, start_time, end_time, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Code, m.StartTime, m.EndTime, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return quorum_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresMeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Meeting, error) {
	var m domain.Meeting
	err := r.db.QueryRowContext(ctx,
		`SELECT id, meeting_code, start_time, end_time, created_at
		 FROM meetings WHERE id = $1`, id).
		Scan(&m.ID, &m.Code, &m.StartTime, &m.EndTime, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Meeting{}, quorum_errors.ErrNotFound
		}
		return domain.Meeting{}, err
	}
	return m, nil
}

func (r *PostgresMeetingRepository) List(ctx context.Context) ([]domain.Meeting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, meeting_code, start_time, end_time, created_at
		 FROM meetings ORDER BY start_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		var m domain.Meeting
		if err := rows.Scan(&m.ID, &m.Code, &m.StartTime, &m.EndTime, &m.CreatedAt); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func (r *PostgresMeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
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
