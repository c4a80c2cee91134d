package predictlog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS prediction_log (
		ts TIMESTAMP NOT NULL,
		doctor_id TEXT NOT NULL,
		appointment_hour_12 TEXT NOT NULL,
		appointment_day_of_week TEXT NOT NULL,
		delay_mins INTEGER NOT NULL,
		appointment_type TEXT NOT NULL,
		no_show_probability DOUBLE PRECISION NOT NULL,
		suggestion TEXT NOT NULL
	)
`

// PostgresSink mirrors the CSV log into the prediction_log table.
type PostgresSink struct {
	db Execer
}

func NewPostgresSink(ctx context.Context, db Execer) (*PostgresSink, error) {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create prediction_log table: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Append(ctx context.Context, rec Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO prediction_log (ts, doctor_id, appointment_hour_12, appointment_day_of_week, delay_mins, appointment_type, no_show_probability, suggestion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.Timestamp, rec.Doctor, rec.Hour12, rec.DayOfWeek, rec.DelayMins, rec.AppointmentType, rec.Probability, rec.Suggestion)
	if err != nil {
		return fmt.Errorf("insert prediction_log: %w", err)
	}
	return nil
}
