package predictor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Skufu/apptrisk/internal/appointment"
	"github.com/Skufu/apptrisk/internal/artifact"
	"github.com/Skufu/apptrisk/internal/predictlog"
	"github.com/Skufu/apptrisk/internal/risk"

	"go.uber.org/zap"
)

// Result is the display payload for one prediction.
type Result struct {
	risk.Assessment
	Probability  float64           `json:"probability"`
	Attendance   float64           `json:"attendance"`
	ModelVersion string            `json:"model_version"`
	Record       predictlog.Record `json:"record"`
}

type mirror struct {
	name string
	sink predictlog.Sink
}

type Service struct {
	bundle  *artifact.Bundle
	log     predictlog.Sink
	mirrors []mirror
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Service)

// WithMirror adds a best-effort sink. Its failures are logged and counted but
// never fail the request.
func WithMirror(name string, sink predictlog.Sink) Option {
	return func(s *Service) {
		s.mirrors = append(s.mirrors, mirror{name: name, sink: sink})
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(bundle *artifact.Bundle, log predictlog.Sink, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		bundle: bundle,
		log:    log,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Options() appointment.Options {
	return appointment.NewOptions(s.bundle.Doctors.Classes(), s.bundle.AppointmentTypes.Classes())
}

// Predict encodes the form input, queries the classifier, classifies the
// probability and appends the record to the log. A log append failure fails
// the request.
func (s *Service) Predict(ctx context.Context, in appointment.Input) (Result, error) {
	start := time.Now()
	defer func() {
		predictDuration.Observe(time.Since(start).Seconds())
	}()

	if err := in.Validate(); err != nil {
		predictionsFailed.WithLabelValues("invalid_input").Inc()
		return Result{}, err
	}

	doctorCode, err := s.bundle.Doctors.Encode(in.Doctor)
	if err != nil {
		predictionsFailed.WithLabelValues("unknown_label").Inc()
		return Result{}, err
	}
	typeCode, err := s.bundle.AppointmentTypes.Encode(in.AppointmentType)
	if err != nil {
		predictionsFailed.WithLabelValues("unknown_label").Inc()
		return Result{}, err
	}

	features := artifact.Features{
		DoctorCode:          doctorCode,
		Hour:                in.Hour,
		DayOfWeek:           in.DayOfWeek,
		DelayMins:           in.DelayMins,
		AppointmentTypeCode: typeCode,
	}

	p, err := s.bundle.Model.PredictProba(features)
	if err != nil {
		predictionsFailed.WithLabelValues("classifier").Inc()
		return Result{}, fmt.Errorf("predict proba: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		predictionsFailed.WithLabelValues("classifier").Inc()
		return Result{}, fmt.Errorf("classifier returned probability %v outside [0, 1]", p)
	}

	assessment := risk.Classify(p)
	rec := predictlog.Record{
		Timestamp:       s.now(),
		Doctor:          in.Doctor,
		Hour12:          appointment.FormatHour(in.Hour),
		DayOfWeek:       appointment.DayAbbrev(in.DayOfWeek),
		DelayMins:       in.DelayMins,
		AppointmentType: in.AppointmentType,
		Probability:     predictlog.Round2(p),
		Suggestion:      assessment.Suggestion,
	}

	if err := s.log.Append(ctx, rec); err != nil {
		predictionsFailed.WithLabelValues("log_append").Inc()
		return Result{}, fmt.Errorf("append prediction log: %w", err)
	}
	s.mirror(ctx, rec)

	predictionsTotal.WithLabelValues(string(assessment.Tier)).Inc()
	s.logger.Info("prediction logged",
		zap.String("doctor", in.Doctor),
		zap.String("appointment_type", in.AppointmentType),
		zap.Float64("probability", rec.Probability),
		zap.String("tier", string(assessment.Tier)),
	)

	return Result{
		Assessment:   assessment,
		Probability:  rec.Probability,
		Attendance:   1 - p,
		ModelVersion: s.bundle.ModelVersion,
		Record:       rec,
	}, nil
}

func (s *Service) mirror(ctx context.Context, rec predictlog.Record) {
	for _, m := range s.mirrors {
		if err := m.sink.Append(ctx, rec); err != nil {
			mirrorFailed.WithLabelValues(m.name).Inc()
			s.logger.Warn("mirror sink failed", zap.String("sink", m.name), zap.Error(err))
		}
	}
}
