package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/metrics"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientUnknown      = errors.New("patient not found")
	ErrDoctorUnknown       = errors.New("doctor not found")
	ErrDoctorUnavailable   = errors.New("doctor is not available")
	ErrDateInPast          = errors.New("appointment date must be in the future")
	ErrInvalidType         = errors.New("invalid appointment type")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrConflict            = errors.New("doctor has conflicting appointments at this time")
	ErrTerminalState       = errors.New("cannot modify completed or cancelled appointment")
)

// WorkingWindow is one recurring availability window of a doctor.
type WorkingWindow struct {
	DayOfWeek   string
	StartTime   string
	EndTime     string
	IsAvailable bool
}

// DoctorAvailability is the scheduling view of a doctor profile.
type DoctorAvailability struct {
	IsAvailable bool
	Schedule    []WorkingWindow
}

// DoctorDirectory supplies doctor availability to the scheduler without
// coupling it to the staff package.
type DoctorDirectory interface {
	DoctorAvailability(ctx context.Context, id uuid.UUID) (*DoctorAvailability, error)
}

// PatientDirectory answers whether a patient record exists and is active.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     AppointmentRepository
	doctors  DoctorDirectory
	patients PatientDirectory
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo AppointmentRepository, doctors DoctorDirectory, patients PatientDirectory, logger zerolog.Logger) *Service {
	return &Service{repo: repo, doctors: doctors, patients: patients, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	if !appointmentTypes[req.Type] {
		return nil, ErrInvalidType
	}
	if !req.AppointmentDate.After(s.now()) {
		return nil, ErrDateInPast
	}

	exists, err := s.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPatientUnknown
	}

	avail, err := s.doctors.DoctorAvailability(ctx, req.DoctorID)
	if err != nil {
		return nil, ErrDoctorUnknown
	}
	if !avail.IsAvailable {
		return nil, ErrDoctorUnavailable
	}

	end := req.AppointmentDate.Add(time.Duration(req.Duration) * time.Minute)
	conflicts, err := s.repo.FindConflicts(ctx, req.DoctorID, req.AppointmentDate, end, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, ErrConflict
	}

	a := &Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.Duration,
		Type:            req.Type,
		Status:          StatusScheduled,
		Reason:          req.Reason,
		Notes:           req.Notes,
		RoomNumber:      req.RoomNumber,
		IsUrgent:        req.IsUrgent,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	metrics.AppointmentsBookedTotal.WithLabelValues(a.Status).Inc()
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Time("at", a.AppointmentDate).
		Msg("appointment booked")
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateAppointmentRequest) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCompleted || a.Status == StatusCancelled {
		return nil, ErrTerminalState
	}
	if req.Type != nil && !appointmentTypes[*req.Type] {
		return nil, ErrInvalidType
	}

	if req.AppointmentDate != nil {
		a.AppointmentDate = *req.AppointmentDate
	}
	if req.Duration != nil {
		a.DurationMinutes = *req.Duration
	}
	if req.AppointmentDate != nil || req.Duration != nil {
		conflicts, err := s.repo.FindConflicts(ctx, a.DoctorID, a.AppointmentDate, a.End(), a.ID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, ErrConflict
		}
	}
	if req.Type != nil {
		a.Type = *req.Type
	}
	if req.Reason != nil {
		a.Reason = *req.Reason
	}
	if req.Notes != nil {
		a.Notes = req.Notes
	}
	if req.RoomNumber != nil {
		a.RoomNumber = req.RoomNumber
	}
	if req.IsUrgent != nil {
		a.IsUrgent = *req.IsUrgent
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetStatus moves the appointment along its lifecycle. Transitions outside
// the lifecycle map are rejected, including anything out of a terminal state.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, req SetStatusRequest) (*Appointment, error) {
	if _, ok := statusTransitions[req.Status]; !ok {
		return nil, ErrInvalidStatus
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(a.Status, req.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, req.Status)
	}

	a.Status = req.Status
	if req.Notes != nil {
		a.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	metrics.AppointmentsBookedTotal.WithLabelValues(a.Status).Inc()
	return a, nil
}

// Reschedule moves the appointment to a new slot. The record keeps its
// identity and is marked RESCHEDULED.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req RescheduleRequest) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCompleted || a.Status == StatusCancelled {
		return nil, ErrTerminalState
	}
	if !req.AppointmentDate.After(s.now()) {
		return nil, ErrDateInPast
	}

	end := req.AppointmentDate.Add(time.Duration(a.DurationMinutes) * time.Minute)
	conflicts, err := s.repo.FindConflicts(ctx, a.DoctorID, req.AppointmentDate, end, a.ID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, ErrConflict
	}

	a.AppointmentDate = req.AppointmentDate
	a.Status = StatusRescheduled
	if req.Reason != nil {
		a.Notes = req.Reason
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	metrics.AppointmentsBookedTotal.WithLabelValues(a.Status).Inc()
	return a, nil
}

// Cancel is the delete surface; appointment records are never destroyed.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.SetStatus(ctx, id, SetStatusRequest{Status: StatusCancelled})
}

func (s *Service) List(ctx context.Context, filter ListAppointmentsFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// AvailableSlots generates the doctor's bookable windows for a day at the
// given slot length, marking windows that collide with booked appointments.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day time.Time, slotMinutes int) ([]Slot, error) {
	if slotMinutes < 15 || slotMinutes > 480 {
		slotMinutes = 30
	}
	avail, err := s.doctors.DoctorAvailability(ctx, doctorID)
	if err != nil {
		return nil, ErrDoctorUnknown
	}
	if !avail.IsAvailable {
		return nil, ErrDoctorUnavailable
	}

	booked, err := s.repo.ListForDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}

	weekday := day.Weekday().String()
	var slots []Slot
	for _, w := range avail.Schedule {
		if !w.IsAvailable || !strings.EqualFold(w.DayOfWeek, weekday) {
			continue
		}
		start, err1 := atClock(day, w.StartTime)
		end, err2 := atClock(day, w.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		for t := start; t.Add(time.Duration(slotMinutes) * time.Minute).Before(end.Add(time.Second)); t = t.Add(time.Duration(slotMinutes) * time.Minute) {
			slotEnd := t.Add(time.Duration(slotMinutes) * time.Minute)
			slots = append(slots, Slot{
				StartTime: t,
				EndTime:   slotEnd,
				Available: !overlapsAny(t, slotEnd, booked),
			})
		}
	}
	return slots, nil
}

func overlapsAny(start, end time.Time, booked []*Appointment) bool {
	for _, b := range booked {
		if start.Before(b.End()) && end.After(b.AppointmentDate) {
			return true
		}
	}
	return false
}

// atClock anchors an "HH:MM" clock time onto the given day.
func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
