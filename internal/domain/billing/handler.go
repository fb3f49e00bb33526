package billing

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
	g := api.Group("/billing")
	g.GET("/bills", h.ListBills, auth.RequirePermission(policy.ActionList, policy.KindBill))
	g.GET("/bills/:id", h.GetBill, auth.RequirePermission(policy.ActionRead, policy.KindBill))
	g.POST("/bills", h.CreateBill, auth.RequirePermission(policy.ActionCreate, policy.KindBill))
	g.PUT("/bills/:id", h.UpdateBill, auth.RequirePermission(policy.ActionUpdate, policy.KindBill))
	g.PATCH("/bills/:id/status", h.SetStatus, auth.RequirePermission(policy.ActionUpdate, policy.KindBill))
	// Financial records are never destroyed; DELETE cancels the bill.
	g.DELETE("/bills/:id", h.CancelBill, auth.RequirePermission(policy.ActionDelete, policy.KindBill))
	g.POST("/bills/:id/payments", h.RecordPayment, auth.RequirePermission(policy.ActionUpdate, policy.KindBill))
	g.GET("/bills/:id/payments", h.ListPayments, auth.RequirePermission(policy.ActionRead, policy.KindBill))
	g.GET("/stats", h.Stats, auth.RequirePermission(policy.ActionRead, policy.KindReport))
}

// view computes the caller's filtered projection of the bill. A nil view
// means the caller has no visibility into this instance.
func view(id policy.Identity, b *Bill) (policy.Record, error) {
	rec, err := b.Record()
	if err != nil {
		return nil, err
	}
	return policy.Project(policy.KindBill, id, rec), nil
}

func billError(err error) error {
	switch {
	case errors.Is(err, ErrBillNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	case errors.Is(err, ErrPatientUnknown):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBillPaid), errors.Is(err, ErrBillCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrOverpayment),
		errors.Is(err, ErrInvalidItemType),
		errors.Is(err, ErrInvalidBillStatus),
		errors.Is(err, ErrInvalidPaymentMethod):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) ListBills(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)

	var (
		items []*Bill
		total int
	)
	if id.Role == policy.RolePatient {
		// Patients only ever see their own ledger.
		owner, err := uuid.Parse(id.SubjectID)
		if err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		items, total, err = h.svc.ListBillsForOwner(c.Request().Context(), owner, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else {
		filter := ListBillsFilter{
			Status:     c.QueryParam("status"),
			UnpaidOnly: c.QueryParam("unpaid") == "true",
		}
		if raw := c.QueryParam("patientId"); raw != "" {
			pid, err := uuid.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
			}
			filter.PatientID = &pid
		}
		items, total, err = h.svc.ListBills(c.Request().Context(), filter, pg.Limit, pg.Offset)
		if err != nil {
			return billError(err)
		}
	}

	// Records the caller cannot see are dropped, not errored.
	views := make([]policy.Record, 0, len(items))
	for _, b := range items {
		v, err := view(id, b)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if v != nil {
			views = append(views, v)
		}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBill(c.Request().Context(), bid)
	if err != nil {
		return billError(err)
	}
	v, err := view(id, b)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if v == nil {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateBill(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req CreateBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.svc.CreateBill(c.Request().Context(), req)
	if err != nil {
		return billError(err)
	}
	v, err := view(id, b)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateBill(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req UpdateBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.svc.UpdateBill(c.Request().Context(), bid, req)
	if err != nil {
		return billError(err)
	}
	v, err := view(id, b)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req SetBillStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.svc.SetStatus(c.Request().Context(), bid, req.Status)
	if err != nil {
		return billError(err)
	}
	v, err := view(id, b)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CancelBill(c echo.Context) error {
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := h.svc.CancelBill(c.Request().Context(), bid); err != nil {
		return billError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	payment, bill, err := h.svc.RecordPayment(c.Request().Context(), bid, req)
	if err != nil {
		return billError(err)
	}
	v, err := view(id, bill)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"payment": payment,
		"bill":    v,
	})
}

func (h *Handler) ListPayments(c echo.Context) error {
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), bid)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
