package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. RESCHEDULED behaves like SCHEDULED for transition
// purposes; COMPLETED, CANCELLED and NO_SHOW are terminal.
const (
	StatusScheduled   = "SCHEDULED"
	StatusConfirmed   = "CONFIRMED"
	StatusInProgress  = "IN_PROGRESS"
	StatusCompleted   = "COMPLETED"
	StatusCancelled   = "CANCELLED"
	StatusNoShow      = "NO_SHOW"
	StatusRescheduled = "RESCHEDULED"
)

// activeStatuses occupy the doctor's calendar for conflict checks.
var activeStatuses = []string{StatusScheduled, StatusConfirmed, StatusInProgress, StatusRescheduled}

// statusTransitions is the allowed lifecycle. Absent target means the
// transition is rejected.
var statusTransitions = map[string][]string{
	StatusScheduled:   {StatusConfirmed, StatusInProgress, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusRescheduled: {StatusConfirmed, StatusInProgress, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusConfirmed:   {StatusInProgress, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusInProgress:  {StatusCompleted, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusNoShow:      {},
}

func canTransition(from, to string) bool {
	for _, t := range statusTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

var appointmentTypes = map[string]bool{
	"CONSULTATION": true, "FOLLOW_UP": true, "PROCEDURE": true,
	"SURGERY": true, "EMERGENCY": true, "TELEMEDICINE": true,
}

type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patientId"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctorId"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointmentDate"`
	DurationMinutes int       `db:"duration_minutes" json:"duration"`
	Type            string    `db:"type" json:"type"`
	Status          string    `db:"status" json:"status"`
	Reason          string    `db:"reason" json:"reason"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	RoomNumber      *string   `db:"room_number" json:"roomNumber,omitempty"`
	IsUrgent        bool      `db:"is_urgent" json:"isUrgent"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// End is the instant the appointment's calendar slot closes.
func (a *Appointment) End() time.Time {
	return a.AppointmentDate.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// -- Request DTOs --

type CreateAppointmentRequest struct {
	PatientID       uuid.UUID `json:"patientId" validate:"required"`
	DoctorID        uuid.UUID `json:"doctorId" validate:"required"`
	AppointmentDate time.Time `json:"appointmentDate" validate:"required"`
	Duration        int       `json:"duration" validate:"required,min=15,max=480"`
	Type            string    `json:"type" validate:"required"`
	Reason          string    `json:"reason" validate:"required,min=1"`
	Notes           *string   `json:"notes"`
	RoomNumber      *string   `json:"roomNumber"`
	IsUrgent        bool      `json:"isUrgent"`
}

type UpdateAppointmentRequest struct {
	AppointmentDate *time.Time `json:"appointmentDate"`
	Duration        *int       `json:"duration" validate:"omitempty,min=15,max=480"`
	Type            *string    `json:"type"`
	Reason          *string    `json:"reason" validate:"omitempty,min=1"`
	Notes           *string    `json:"notes"`
	RoomNumber      *string    `json:"roomNumber"`
	IsUrgent        *bool      `json:"isUrgent"`
}

type SetStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

type RescheduleRequest struct {
	AppointmentDate time.Time `json:"appointmentDate" validate:"required"`
	Reason          *string   `json:"reason"`
}

// ListAppointmentsFilter narrows the appointment listing.
type ListAppointmentsFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
}

// Slot is one bookable window in a doctor's day.
type Slot struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}
