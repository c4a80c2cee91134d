package appointment

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid input")

var dayAbbrev = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Input is one submission of the prediction form.
type Input struct {
	Doctor          string `json:"doctor"`
	Hour            int    `json:"hour"`
	DayOfWeek       int    `json:"day_of_week"`
	DelayMins       int    `json:"delay_mins"`
	AppointmentType string `json:"appointment_type"`
}

// Validate enforces the ranges the form widgets allow. Category labels are
// checked later by the encoders.
func (in Input) Validate() error {
	if in.Hour < 0 || in.Hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23, got %d", ErrInvalidInput, in.Hour)
	}
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be between 0 and 6, got %d", ErrInvalidInput, in.DayOfWeek)
	}
	if in.DelayMins < 0 {
		return fmt.Errorf("%w: delay_mins must not be negative, got %d", ErrInvalidInput, in.DelayMins)
	}
	return nil
}

// FormatHour renders an hour of day (0-23) as "h:00 AM|PM".
func FormatHour(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:00 %s", h, suffix)
}

// DayAbbrev renders a day index (0 = Monday) as a three-letter abbreviation.
func DayAbbrev(day int) string {
	if day < 0 || day >= len(dayAbbrev) {
		return ""
	}
	return dayAbbrev[day]
}

type Choice struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

type Options struct {
	Doctors          []string `json:"doctors"`
	Hours            []Choice `json:"hours"`
	Days             []Choice `json:"days"`
	AppointmentTypes []string `json:"appointment_types"`
	Defaults         Input    `json:"defaults"`
	LogAvailable     bool     `json:"log_available"`
}

// NewOptions builds the selectable values for the form. Defaults pick the
// first entry of every list so the form can always be submitted.
func NewOptions(doctors, appointmentTypes []string) Options {
	hours := make([]Choice, 0, 24)
	for h := 0; h < 24; h++ {
		hours = append(hours, Choice{Value: h, Label: FormatHour(h)})
	}

	days := make([]Choice, 0, len(dayAbbrev))
	for d, name := range dayAbbrev {
		days = append(days, Choice{Value: d, Label: name})
	}

	opts := Options{
		Doctors:          doctors,
		Hours:            hours,
		Days:             days,
		AppointmentTypes: appointmentTypes,
	}
	if len(doctors) > 0 {
		opts.Defaults.Doctor = doctors[0]
	}
	if len(appointmentTypes) > 0 {
		opts.Defaults.AppointmentType = appointmentTypes[0]
	}
	return opts
}
