package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) List(_ context.Context, filter ListAppointmentsFilter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockRepo) FindConflicts(_ context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID != doctorID || a.ID == exclude {
			continue
		}
		active := false
		for _, s := range activeStatuses {
			if a.Status == s {
				active = true
			}
		}
		if !active {
			continue
		}
		if start.Before(a.End()) && end.After(a.AppointmentDate) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListForDoctorDay(_ context.Context, doctorID uuid.UUID, day time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.AppointmentDate.YearDay() == day.YearDay() && a.AppointmentDate.Year() == day.Year() {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockDirectory struct {
	doctors  map[uuid.UUID]*DoctorAvailability
	patients map[uuid.UUID]bool
}

func (m *mockDirectory) DoctorAvailability(_ context.Context, id uuid.UUID) (*DoctorAvailability, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, errors.New("no such doctor")
	}
	return d, nil
}

func (m *mockDirectory) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.patients[id], nil
}

func testService() (*Service, *mockRepo, *mockDirectory) {
	repo := newMockRepo()
	dir := &mockDirectory{
		doctors:  make(map[uuid.UUID]*DoctorAvailability),
		patients: make(map[uuid.UUID]bool),
	}
	return NewService(repo, dir, dir, zerolog.Nop()), repo, dir
}

func seedActors(dir *mockDirectory) (doctorID, patientID uuid.UUID) {
	doctorID = uuid.New()
	patientID = uuid.New()
	dir.doctors[doctorID] = &DoctorAvailability{
		IsAvailable: true,
		Schedule: []WorkingWindow{
			{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: "Tuesday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: "Wednesday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: "Thursday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: "Friday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: "Saturday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: "Sunday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
		},
	}
	dir.patients[patientID] = true
	return doctorID, patientID
}

func bookingRequest(doctorID, patientID uuid.UUID, at time.Time) CreateAppointmentRequest {
	return CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: at,
		Duration:        30,
		Type:            "CONSULTATION",
		Reason:          "annual checkup",
	}
}

func TestCreate(t *testing.T) {
	svc, _, dir := testService()
	doctorID, patientID := seedActors(dir)
	at := time.Now().Add(48 * time.Hour)

	a, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, at))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Fatalf("status = %q", a.Status)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, dir := testService()
	doctorID, patientID := seedActors(dir)
	future := time.Now().Add(48 * time.Hour)

	// Past date.
	if _, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, time.Now().Add(-time.Hour))); !errors.Is(err, ErrDateInPast) {
		t.Fatalf("past date err = %v", err)
	}

	// Unknown patient.
	if _, err := svc.Create(context.Background(), bookingRequest(doctorID, uuid.New(), future)); !errors.Is(err, ErrPatientUnknown) {
		t.Fatalf("unknown patient err = %v", err)
	}

	// Unknown doctor.
	if _, err := svc.Create(context.Background(), bookingRequest(uuid.New(), patientID, future)); !errors.Is(err, ErrDoctorUnknown) {
		t.Fatalf("unknown doctor err = %v", err)
	}

	// Unavailable doctor.
	dir.doctors[doctorID].IsAvailable = false
	if _, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, future)); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("unavailable doctor err = %v", err)
	}
	dir.doctors[doctorID].IsAvailable = true

	// Bad type.
	req := bookingRequest(doctorID, patientID, future)
	req.Type = "HOUSE_CALL"
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("bad type err = %v", err)
	}
}

func TestCreate_Conflict(t *testing.T) {
	svc, _, dir := testService()
	doctorID, patientID := seedActors(dir)
	at := time.Now().Add(48 * time.Hour)

	if _, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, at)); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Overlapping by 15 minutes.
	if _, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, at.Add(15*time.Minute))); !errors.Is(err, ErrConflict) {
		t.Fatalf("overlap err = %v", err)
	}

	// Back to back is fine.
	if _, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, at.Add(30*time.Minute))); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

func TestSetStatus_Lifecycle(t *testing.T) {
	svc, _, dir := testService()
	doctorID, patientID := seedActors(dir)
	a, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, time.Now().Add(48*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, next := range []string{StatusConfirmed, StatusInProgress, StatusCompleted} {
		if a, err = svc.SetStatus(context.Background(), a.ID, SetStatusRequest{Status: next}); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	// Terminal: nothing moves out of COMPLETED.
	if _, err := svc.SetStatus(context.Background(), a.ID, SetStatusRequest{Status: StatusScheduled}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("out of terminal err = %v", err)
	}
}

func TestSetStatus_SkippingAheadRejected(t *testing.T) {
	svc, _, dir := testService()
	doctorID, patientID := seedActors(dir)
	a, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, time.Now().Add(48*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// SCHEDULED cannot jump straight to COMPLETED.
	if _, err := svc.SetStatus(context.Background(), a.ID, SetStatusRequest{Status: StatusCompleted}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.SetStatus(context.Background(), a.ID, SetStatusRequest{Status: "PENDING"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("unknown status err = %v", err)
	}
}

func TestReschedule(t *testing.T) {
	svc, _, dir := testService()
	doctorID, patientID := seedActors(dir)
	a, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, time.Now().Add(48*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newAt := time.Now().Add(96 * time.Hour)
	moved, err := svc.Reschedule(context.Background(), a.ID, RescheduleRequest{AppointmentDate: newAt})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.Status != StatusRescheduled || !moved.AppointmentDate.Equal(newAt) {
		t.Fatalf("status=%q at=%v", moved.Status, moved.AppointmentDate)
	}

	// A rescheduled appointment still moves through the lifecycle.
	if _, err := svc.SetStatus(context.Background(), a.ID, SetStatusRequest{Status: StatusConfirmed}); err != nil {
		t.Fatalf("confirm after reschedule: %v", err)
	}
}

func TestCancel_IsSoft(t *testing.T) {
	svc, repo, dir := testService()
	doctorID, patientID := seedActors(dir)
	a, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, time.Now().Add(48*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), a.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, err := repo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("record destroyed: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %q", got.Status)
	}

	// Cancelled slots free the calendar.
	if _, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, a.AppointmentDate)); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}

func TestAvailableSlots(t *testing.T) {
	svc, _, dir := testService()
	doctorID, patientID := seedActors(dir)

	day := time.Now().Add(72 * time.Hour)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	// Book 09:00-09:30 on that day.
	at := day.Add(9 * time.Hour)
	if at.After(time.Now()) {
		if _, err := svc.Create(context.Background(), bookingRequest(doctorID, patientID, at)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	slots, err := svc.AvailableSlots(context.Background(), doctorID, day, 30)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 6 {
		t.Fatalf("slot count = %d, want 6 (09:00 to 12:00 in 30m steps)", len(slots))
	}
	if slots[0].Available {
		t.Fatal("booked 09:00 slot reported available")
	}
	for _, s := range slots[1:] {
		if !s.Available {
			t.Fatalf("slot %v should be free", s.StartTime)
		}
	}
}
