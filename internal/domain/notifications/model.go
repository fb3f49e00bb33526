package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	TypeAppointmentReminder = "APPOINTMENT_REMINDER"
	TypeLabResult           = "LAB_RESULT"
	TypePrescriptionReady   = "PRESCRIPTION_READY"
	TypeBillDue             = "BILL_DUE"
	TypeSystemAlert         = "SYSTEM_ALERT"
	TypeGeneral             = "GENERAL"
)

var notificationTypes = map[string]bool{
	TypeAppointmentReminder: true, TypeLabResult: true, TypePrescriptionReady: true,
	TypeBillDue: true, TypeSystemAlert: true, TypeGeneral: true,
}

// Notification priorities.
const (
	PriorityLow      = "LOW"
	PriorityNormal   = "NORMAL"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

var priorities = map[string]bool{
	PriorityLow: true, PriorityNormal: true, PriorityHigh: true, PriorityCritical: true,
}

// Notification is one entry in a user's in-app feed.
type Notification struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	UserID    uuid.UUID      `db:"user_id" json:"userId"`
	Title     string         `db:"title" json:"title"`
	Message   string         `db:"message" json:"message"`
	Type      string         `db:"type" json:"type"`
	Priority  string         `db:"priority" json:"priority"`
	Data      map[string]any `db:"data" json:"data,omitempty"`
	IsRead    bool           `db:"is_read" json:"isRead"`
	ReadAt    *time.Time     `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

type CreateNotificationRequest struct {
	UserID   uuid.UUID      `json:"userId" validate:"required"`
	Title    string         `json:"title" validate:"required,min=1"`
	Message  string         `json:"message" validate:"required,min=1"`
	Type     string         `json:"type" validate:"required"`
	Priority string         `json:"priority"`
	Data     map[string]any `json:"data"`
}

// BroadcastRequest fans the same notification out to several users.
type BroadcastRequest struct {
	UserIDs  []uuid.UUID    `json:"userIds" validate:"required,min=1"`
	Title    string         `json:"title" validate:"required,min=1"`
	Message  string         `json:"message" validate:"required,min=1"`
	Type     string         `json:"type" validate:"required"`
	Priority string         `json:"priority"`
	Data     map[string]any `json:"data"`
}

type ListFilter struct {
	UnreadOnly bool
	Type       string
	Priority   string
}

// AppointmentReminderCandidate is an upcoming appointment whose patient has
// a user account to notify.
type AppointmentReminderCandidate struct {
	UserID        uuid.UUID
	AppointmentID uuid.UUID
	StartsAt      time.Time
	DoctorName    string
	Department    string
}

// DueBillCandidate is an open bill approaching or past its due date.
type DueBillCandidate struct {
	UserID     uuid.UUID
	BillID     uuid.UUID
	BillNumber string
	Remaining  float64
	DueDate    time.Time
}

// LabOrderSummary is what a results-available notice needs to know about an
// order. UserID is nil when the patient has no user account.
type LabOrderSummary struct {
	UserID        *uuid.UUID
	OrderID       uuid.UUID
	OrderNumber   string
	CriticalCount int
	TotalResults  int
}

// NotificationStats is the admin delivery overview.
type NotificationStats struct {
	Total      int            `json:"total"`
	Today      int            `json:"today"`
	Week       int            `json:"week"`
	Unread     int            `json:"unread"`
	ByType     map[string]int `json:"byType"`
	ByPriority map[string]int `json:"byPriority"`
}
