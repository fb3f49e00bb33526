package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationRepository stores the per-user feed. Reminder candidate
// queries live here too so the reminder jobs can scan the clinical tables
// without the service reaching into other domains.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	CreateMany(ctx context.Context, ns []*Notification) (int, error)
	// GetForUser scopes the lookup to the owner; other users' entries are
	// indistinguishable from missing ones.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*Notification, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter, limit, offset int) ([]*Notification, int, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (*Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)
	// Delete removes one entry. A nil userID skips the ownership scope.
	Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error

	UsersExist(ctx context.Context, ids []uuid.UUID) (bool, error)
	AppointmentReminderCandidates(ctx context.Context, from, to time.Time) ([]AppointmentReminderCandidate, error)
	DueBillCandidates(ctx context.Context, by time.Time) ([]DueBillCandidate, error)
	LabOrderSummary(ctx context.Context, orderID uuid.UUID) (*LabOrderSummary, error)

	Stats(ctx context.Context) (*NotificationStats, error)
}
