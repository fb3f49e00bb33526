package laboratory

import (
	"errors"
	"net/http"
	"time"

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
	g := api.Group("/laboratory")
	g.GET("/orders", h.ListOrders, auth.RequirePermission(policy.ActionList, policy.KindLabOrder))
	g.GET("/orders/:id", h.GetOrder, auth.RequirePermission(policy.ActionRead, policy.KindLabOrder))
	g.POST("/orders", h.CreateOrder, auth.RequirePermission(policy.ActionCreate, policy.KindLabOrder))
	g.PUT("/orders/:id", h.UpdateOrder, auth.RequirePermission(policy.ActionUpdate, policy.KindLabOrder))
	g.PATCH("/orders/:id/status", h.SetOrderStatus, auth.RequirePermission(policy.ActionUpdate, policy.KindLabOrder))
	// Orders are never destroyed; DELETE cancels with an optional reason.
	g.DELETE("/orders/:id", h.CancelOrder, auth.RequirePermission(policy.ActionDelete, policy.KindLabOrder))
	g.POST("/orders/:id/results", h.AddResult, auth.RequirePermission(policy.ActionCreate, policy.KindLabResult))
	g.GET("/results", h.ListResults, auth.RequirePermission(policy.ActionList, policy.KindLabResult))
	g.GET("/results/:id", h.GetResult, auth.RequirePermission(policy.ActionRead, policy.KindLabResult))
	g.PUT("/results/:id", h.UpdateResult, auth.RequirePermission(policy.ActionUpdate, policy.KindLabResult))
	g.GET("/stats", h.Stats, auth.RequirePermission(policy.ActionList, policy.KindLabOrder))
}

func labError(err error) error {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
	case errors.Is(err, ErrResultNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "lab result not found")
	case errors.Is(err, ErrOrderCompleted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrPatientUnknown),
		errors.Is(err, ErrDoctorUnknown),
		errors.Is(err, ErrInvalidUrgency),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidResultFlag),
		errors.Is(err, ErrTestNotOrdered):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// resultView computes the caller's filtered view of a result, including the
// nested results on an order payload.
func resultView(id policy.Identity, r *Result) (policy.Record, error) {
	rec, err := r.Record()
	if err != nil {
		return nil, err
	}
	return policy.Project(policy.KindLabResult, id, rec), nil
}

// orderPayload renders an order with its results filtered for the caller.
// Orders themselves carry no per-field rules; results do.
func orderPayload(id policy.Identity, o *Order) (map[string]any, error) {
	results := make([]policy.Record, 0, len(o.Results))
	for _, r := range o.Results {
		v, err := resultView(id, r)
		if err != nil {
			return nil, err
		}
		if v != nil {
			results = append(results, v)
		}
	}
	return map[string]any{
		"id":           o.ID,
		"orderNumber":  o.OrderNumber,
		"patientId":    o.PatientID,
		"patientName":  o.PatientName,
		"doctorId":     o.DoctorID,
		"testTypes":    o.TestTypes,
		"urgency":      o.Urgency,
		"status":       o.Status,
		"instructions": o.Instructions,
		"clinicalInfo": o.ClinicalInfo,
		"orderDate":    o.OrderDate,
		"results":      results,
		"createdAt":    o.CreatedAt,
		"updatedAt":    o.UpdatedAt,
	}, nil
}

// ownsOrder reports whether a patient caller is the subject of the order.
func ownsOrder(id policy.Identity, o *Order) bool {
	return o.OwnerUserID != nil && o.OwnerUserID.String() == id.SubjectID
}

func (h *Handler) ListOrders(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	filter := ListOrdersFilter{
		Status:  c.QueryParam("status"),
		Urgency: c.QueryParam("urgency"),
		Search:  c.QueryParam("search"),
	}
	if raw := c.QueryParam("patientId"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		filter.PatientID = &pid
	}
	if raw := c.QueryParam("doctorId"); raw != "" {
		did, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
		}
		filter.DoctorID = &did
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := c.QueryParam(param); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
			}
			*dst = &t
		}
	}

	orders, total, err := h.svc.ListOrders(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return labError(err)
	}
	payloads := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		p, err := orderPayload(id, o)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		payloads = append(payloads, p)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(payloads, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	oid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	order, err := h.svc.GetOrder(c.Request().Context(), oid)
	if err != nil {
		return labError(err)
	}
	if id.Role == policy.RolePatient && !ownsOrder(id, order) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	p, err := orderPayload(id, order)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	order, err := h.svc.CreateOrder(c.Request().Context(), req)
	if err != nil {
		return labError(err)
	}
	p, err := orderPayload(id, order)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateOrder(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	oid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	order, err := h.svc.UpdateOrder(c.Request().Context(), oid, req)
	if err != nil {
		return labError(err)
	}
	p, err := orderPayload(id, order)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SetOrderStatus(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	oid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req SetOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	order, err := h.svc.SetOrderStatus(c.Request().Context(), oid, req.Status)
	if err != nil {
		return labError(err)
	}
	p, err := orderPayload(id, order)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelOrder(c echo.Context) error {
	oid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req cancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.CancelOrder(c.Request().Context(), oid, req.Reason); err != nil {
		return labError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddResult(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	oid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req AddResultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.svc.AddResult(c.Request().Context(), oid, req)
	if err != nil {
		return labError(err)
	}
	v, err := resultView(id, result)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListResults(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	filter := ListResultsFilter{
		TestName: c.QueryParam("testName"),
		Status:   c.QueryParam("status"),
	}
	if raw := c.QueryParam("patientId"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		filter.PatientID = &pid
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := c.QueryParam(param); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
			}
			*dst = &t
		}
	}

	results, total, err := h.svc.ListResults(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return labError(err)
	}
	// Results the caller cannot see are dropped, not errored.
	views := make([]policy.Record, 0, len(results))
	for _, r := range results {
		v, err := resultView(id, r)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if v != nil {
			views = append(views, v)
		}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetResult(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	rid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.GetResult(c.Request().Context(), rid)
	if err != nil {
		return labError(err)
	}
	v, err := resultView(id, result)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if v == nil {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) UpdateResult(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	rid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req UpdateResultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.svc.UpdateResult(c.Request().Context(), rid, req)
	if err != nil {
		return labError(err)
	}
	v, err := resultView(id, result)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
