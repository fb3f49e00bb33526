package notifications

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/auth"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/notifications")
	g.GET("", h.List, auth.RequirePermission(policy.ActionList, policy.KindNotification))
	g.GET("/unread-count", h.UnreadCount, auth.RequirePermission(policy.ActionList, policy.KindNotification))
	g.GET("/:id", h.Get, auth.RequirePermission(policy.ActionRead, policy.KindNotification))
	g.POST("", h.Create, auth.RequirePermission(policy.ActionCreate, policy.KindNotification))
	g.POST("/broadcast", h.Broadcast, auth.RequirePermission(policy.ActionCreate, policy.KindNotification))
	g.PATCH("/:id/read", h.MarkRead, auth.RequirePermission(policy.ActionUpdate, policy.KindNotification))
	g.PATCH("/read-all", h.MarkAllRead, auth.RequirePermission(policy.ActionUpdate, policy.KindNotification))
	g.DELETE("/:id", h.Delete, auth.RequirePermission(policy.ActionDelete, policy.KindNotification))

	g.POST("/reminders/appointments", h.SendAppointmentReminders, auth.RequirePermission(policy.ActionCreate, policy.KindNotification))
	g.POST("/reminders/bills", h.SendBillReminders, auth.RequirePermission(policy.ActionCreate, policy.KindNotification))
	g.POST("/lab-results", h.NotifyLabResults, auth.RequirePermission(policy.ActionCreate, policy.KindNotification))
	g.GET("/admin/stats", h.Stats, auth.RequirePermission(policy.ActionRead, policy.KindReport))
}

func notificationError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	case errors.Is(err, ErrOrderUnknown):
		return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
	case errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrUserUnknown),
		errors.Is(err, ErrNoUserAccount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// callerID parses the authenticated subject into the user id the feed is
// keyed by.
func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(id.SubjectID)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return userID, nil
}

func (h *Handler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	filter := ListFilter{
		UnreadOnly: c.QueryParam("unread") == "true",
		Type:       c.QueryParam("type"),
		Priority:   c.QueryParam("priority"),
	}
	list, total, err := h.svc.List(c.Request().Context(), userID, filter, pg.Limit, pg.Offset)
	if err != nil {
		return notificationError(err)
	}
	unread, err := h.svc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"notifications": list,
		"total":         total,
		"limit":         pg.Limit,
		"offset":        pg.Offset,
		"unreadCount":   unread,
	})
}

func (h *Handler) UnreadCount(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	count, err := h.svc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"unreadCount": count})
}

func (h *Handler) Get(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	nid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.Get(c.Request().Context(), nid, userID)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	n, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) Broadcast(c echo.Context) error {
	var req BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	count, err := h.svc.Broadcast(c.Request().Context(), req)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusCreated, map[string]int{"count": count})
}

func (h *Handler) MarkRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	nid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.MarkRead(c.Request().Context(), nid, userID)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	count, err := h.svc.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	nid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	// Administrators can clear anyone's entries; everyone else only their
	// own.
	var owner *uuid.UUID
	if id.Role != policy.RoleSuperAdmin {
		userID, err := uuid.Parse(id.SubjectID)
		if err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		owner = &userID
	}
	if err := h.svc.Delete(c.Request().Context(), nid, owner); err != nil {
		return notificationError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SendAppointmentReminders(c echo.Context) error {
	count, err := h.svc.SendAppointmentReminders(c.Request().Context())
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) SendBillReminders(c echo.Context) error {
	count, err := h.svc.SendBillReminders(c.Request().Context())
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

type labResultsRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

func (h *Handler) NotifyLabResults(c echo.Context) error {
	var req labResultsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	n, err := h.svc.NotifyLabResults(c.Request().Context(), req.OrderID)
	if err != nil {
		return notificationError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
