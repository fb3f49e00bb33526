package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/metrics"
)

var (
	ErrNotFound        = errors.New("notification not found")
	ErrInvalidType     = errors.New("invalid notification type")
	ErrInvalidPriority = errors.New("invalid notification priority")
	ErrUserUnknown     = errors.New("target user not found")
	ErrOrderUnknown    = errors.New("lab order not found")
	ErrNoUserAccount   = errors.New("patient has no user account")
)

// How far ahead of the due date bill reminders go out.
const billReminderDays = 3

type Service struct {
	repo NotificationRepository

	now func() time.Time
}

func NewService(repo NotificationRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) validate(typ string, priority *string) error {
	if !notificationTypes[typ] {
		return fmt.Errorf("%w: %s", ErrInvalidType, typ)
	}
	if *priority == "" {
		*priority = PriorityNormal
	}
	if !priorities[*priority] {
		return fmt.Errorf("%w: %s", ErrInvalidPriority, *priority)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreateNotificationRequest) (*Notification, error) {
	if err := s.validate(req.Type, &req.Priority); err != nil {
		return nil, err
	}
	exists, err := s.repo.UsersExist(ctx, []uuid.UUID{req.UserID})
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserUnknown
	}

	n := &Notification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Priority: req.Priority,
		Data:     req.Data,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(n.Type).Inc()
	return n, nil
}

// Broadcast sends the same notification to every listed user. All targets
// must exist; a partial fan-out is never committed.
func (s *Service) Broadcast(ctx context.Context, req BroadcastRequest) (int, error) {
	if err := s.validate(req.Type, &req.Priority); err != nil {
		return 0, err
	}
	exists, err := s.repo.UsersExist(ctx, req.UserIDs)
	if err != nil {
		return 0, fmt.Errorf("check users: %w", err)
	}
	if !exists {
		return 0, ErrUserUnknown
	}

	ns := make([]*Notification, 0, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		ns = append(ns, &Notification{
			UserID:   userID,
			Title:    req.Title,
			Message:  req.Message,
			Type:     req.Type,
			Priority: req.Priority,
			Data:     req.Data,
		})
	}
	count, err := s.repo.CreateMany(ctx, ns)
	if err != nil {
		return 0, fmt.Errorf("broadcast notifications: %w", err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(req.Type).Add(float64(count))
	return count, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	n, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter, limit, offset int) ([]*Notification, int, error) {
	if filter.Type != "" && !notificationTypes[filter.Type] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidType, filter.Type)
	}
	if filter.Priority != "" && !priorities[filter.Priority] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidPriority, filter.Priority)
	}
	return s.repo.List(ctx, userID, filter, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, userID, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}

// Delete removes an entry from the caller's feed. Administrators may pass a
// nil owner to delete any entry.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	err := s.repo.Delete(ctx, id, owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// SendAppointmentReminders notifies every patient with a SCHEDULED or
// CONFIRMED appointment tomorrow.
func (s *Service) SendAppointmentReminders(ctx context.Context) (int, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)

	candidates, err := s.repo.AppointmentReminderCandidates(ctx, from, to)
	if err != nil {
		return 0, err
	}
	ns := make([]*Notification, 0, len(candidates))
	for _, c := range candidates {
		ns = append(ns, &Notification{
			UserID:   c.UserID,
			Title:    "Appointment Reminder",
			Message: fmt.Sprintf("You have an appointment tomorrow at %s with Dr. %s in %s",
				c.StartsAt.Format("3:04 PM"), c.DoctorName, c.Department),
			Type:     TypeAppointmentReminder,
			Priority: PriorityNormal,
			Data: map[string]any{
				"appointmentId":   c.AppointmentID,
				"appointmentDate": c.StartsAt,
				"doctorName":      c.DoctorName,
				"department":      c.Department,
			},
		})
	}
	if len(ns) == 0 {
		return 0, nil
	}
	count, err := s.repo.CreateMany(ctx, ns)
	if err != nil {
		return 0, fmt.Errorf("send appointment reminders: %w", err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(TypeAppointmentReminder).Add(float64(count))
	return count, nil
}

// SendBillReminders notifies patients whose open bills come due within the
// next three days. Overdue bills get a HIGH priority notice.
func (s *Service) SendBillReminders(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.repo.DueBillCandidates(ctx, now.AddDate(0, 0, billReminderDays))
	if err != nil {
		return 0, err
	}
	ns := make([]*Notification, 0, len(candidates))
	for _, c := range candidates {
		overdue := c.DueDate.Before(now)
		title := "Bill Due Soon"
		priority := PriorityNormal
		message := fmt.Sprintf("Your bill #%s of $%.2f is due on %s.",
			c.BillNumber, c.Remaining, c.DueDate.Format("Jan 2, 2006"))
		if overdue {
			title = "Overdue Bill"
			priority = PriorityHigh
			message = fmt.Sprintf("Your bill #%s of $%.2f is overdue. Please make payment as soon as possible.",
				c.BillNumber, c.Remaining)
		}
		ns = append(ns, &Notification{
			UserID:   c.UserID,
			Title:    title,
			Message:  message,
			Type:     TypeBillDue,
			Priority: priority,
			Data: map[string]any{
				"billId":     c.BillID,
				"billNumber": c.BillNumber,
				"amount":     c.Remaining,
				"dueDate":    c.DueDate,
				"isOverdue":  overdue,
			},
		})
	}
	if len(ns) == 0 {
		return 0, nil
	}
	count, err := s.repo.CreateMany(ctx, ns)
	if err != nil {
		return 0, fmt.Errorf("send bill reminders: %w", err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(TypeBillDue).Add(float64(count))
	return count, nil
}

// NotifyLabResults tells the order's patient their results are in. Critical
// findings escalate the priority and the wording.
func (s *Service) NotifyLabResults(ctx context.Context, orderID uuid.UUID) (*Notification, error) {
	summary, err := s.repo.LabOrderSummary(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderUnknown
		}
		return nil, err
	}
	if summary.UserID == nil {
		return nil, ErrNoUserAccount
	}

	priority := PriorityNormal
	message := "Your lab results are available. Please check with your healthcare provider."
	if summary.CriticalCount > 0 {
		priority = PriorityCritical
		message = fmt.Sprintf("Your lab results are available with %d critical finding(s). Please contact your doctor immediately.",
			summary.CriticalCount)
	}

	n := &Notification{
		UserID:   *summary.UserID,
		Title:    "Lab Results Available",
		Message:  message,
		Type:     TypeLabResult,
		Priority: priority,
		Data: map[string]any{
			"labOrderId":    summary.OrderID,
			"orderNumber":   summary.OrderNumber,
			"criticalCount": summary.CriticalCount,
			"totalResults":  summary.TotalResults,
		},
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("notify lab results: %w", err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(TypeLabResult).Inc()
	return n, nil
}

func (s *Service) Stats(ctx context.Context) (*NotificationStats, error) {
	return s.repo.Stats(ctx)
}
