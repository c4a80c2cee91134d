package predictlog

import (
	"context"
	"math"
	"strconv"
	"time"
)

const TimestampLayout = "2006-01-02 15:04:05"

// Header is the column order of the CSV log.
var Header = []string{
	"timestamp",
	"doctor_id",
	"appointment_hour_12",
	"appointment_day_of_week",
	"delay_mins",
	"appointment_type",
	"no_show_probability",
	"suggestion",
}

// Record is one logged prediction. Records have no identity and are never
// deduplicated.
type Record struct {
	Timestamp       time.Time `json:"timestamp"`
	Doctor          string    `json:"doctor_id"`
	Hour12          string    `json:"appointment_hour_12"`
	DayOfWeek       string    `json:"appointment_day_of_week"`
	DelayMins       int       `json:"delay_mins"`
	AppointmentType string    `json:"appointment_type"`
	Probability     float64   `json:"no_show_probability"`
	Suggestion      string    `json:"suggestion"`
}

// Sink persists prediction records.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

func Round2(p float64) float64 {
	return math.Round(p*100) / 100
}

func (r Record) Row() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		r.Doctor,
		r.Hour12,
		r.DayOfWeek,
		strconv.Itoa(r.DelayMins),
		r.AppointmentType,
		strconv.FormatFloat(r.Probability, 'f', -1, 64),
		r.Suggestion,
	}
}
