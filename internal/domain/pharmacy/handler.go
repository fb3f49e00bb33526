package pharmacy

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
	g := api.Group("/pharmacy")
	g.GET("/medications", h.ListMedications, auth.RequirePermission(policy.ActionList, policy.KindMedication))
	g.GET("/medications/:id", h.GetMedication, auth.RequirePermission(policy.ActionRead, policy.KindMedication))
	g.POST("/medications", h.CreateMedication, auth.RequirePermission(policy.ActionCreate, policy.KindMedication))
	g.PUT("/medications/:id", h.UpdateMedication, auth.RequirePermission(policy.ActionUpdate, policy.KindMedication))
	g.PATCH("/medications/:id/stock", h.AdjustStock, auth.RequirePermission(policy.ActionUpdate, policy.KindMedication))
	// Formulary entries are retired, not destroyed.
	g.DELETE("/medications/:id", h.RetireMedication, auth.RequirePermission(policy.ActionDelete, policy.KindMedication))
	g.GET("/inventory/report", h.InventoryReport, auth.RequirePermission(policy.ActionList, policy.KindMedication))

	g.GET("/prescriptions", h.ListPrescriptions, auth.RequirePermission(policy.ActionList, policy.KindPrescription))
	g.GET("/prescriptions/:id", h.GetPrescription, auth.RequirePermission(policy.ActionRead, policy.KindPrescription))
	g.POST("/prescriptions", h.CreatePrescription, auth.RequirePermission(policy.ActionCreate, policy.KindPrescription))
	g.POST("/prescriptions/:id/dispense", h.Dispense, auth.RequirePermission(policy.ActionUpdate, policy.KindPrescription))
	g.POST("/prescriptions/:id/cancel", h.CancelPrescription, auth.RequirePermission(policy.ActionUpdate, policy.KindPrescription))
}

func pharmacyError(err error) error {
	switch {
	case errors.Is(err, ErrMedicationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "medication not found")
	case errors.Is(err, ErrPrescriptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	case errors.Is(err, ErrPatientUnknown):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMedicationExists),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrPrescriptionNotActive),
		errors.Is(err, ErrPrescriptionExpired):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrNotPrescribable),
		errors.Is(err, ErrInvalidPrescriptStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// rxView computes the caller's filtered view of a prescription. A nil view
// means the caller has no visibility into this instance.
func rxView(id policy.Identity, rx *Prescription) (policy.Record, error) {
	rec, err := rx.Record()
	if err != nil {
		return nil, err
	}
	return policy.Project(policy.KindPrescription, id, rec), nil
}

func (h *Handler) ListMedications(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListMedicationsFilter{
		Search:     c.QueryParam("search"),
		Category:   c.QueryParam("category"),
		ActiveOnly: c.QueryParam("status") != "ALL",
		LowStock:   c.QueryParam("lowStock") == "true",
	}
	meds, total, err := h.svc.ListMedications(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return pharmacyError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(meds, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetMedication(c echo.Context) error {
	mid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	med, err := h.svc.GetMedication(c.Request().Context(), mid)
	if err != nil {
		return pharmacyError(err)
	}
	return c.JSON(http.StatusOK, med)
}

func (h *Handler) CreateMedication(c echo.Context) error {
	var req CreateMedicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	med, err := h.svc.CreateMedication(c.Request().Context(), req)
	if err != nil {
		return pharmacyError(err)
	}
	return c.JSON(http.StatusCreated, med)
}

func (h *Handler) UpdateMedication(c echo.Context) error {
	mid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req UpdateMedicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	med, err := h.svc.UpdateMedication(c.Request().Context(), mid, req)
	if err != nil {
		return pharmacyError(err)
	}
	return c.JSON(http.StatusOK, med)
}

func (h *Handler) AdjustStock(c echo.Context) error {
	mid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	med, err := h.svc.AdjustStock(c.Request().Context(), mid, req)
	if err != nil {
		return pharmacyError(err)
	}
	return c.JSON(http.StatusOK, med)
}

func (h *Handler) RetireMedication(c echo.Context) error {
	mid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RetireMedication(c.Request().Context(), mid); err != nil {
		return pharmacyError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) InventoryReport(c echo.Context) error {
	rep, err := h.svc.InventoryReport(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	filter := ListPrescriptionsFilter{Status: c.QueryParam("status")}
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
	items, total, err := h.svc.ListPrescriptions(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return pharmacyError(err)
	}
	// Prescriptions the caller cannot see are dropped, not errored.
	views := make([]policy.Record, 0, len(items))
	for _, rx := range items {
		v, err := rxView(id, rx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if v != nil {
			views = append(views, v)
		}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	rid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rx, err := h.svc.GetPrescription(c.Request().Context(), rid)
	if err != nil {
		return pharmacyError(err)
	}
	v, err := rxView(id, rx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if v == nil {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	prescriber, err := uuid.Parse(id.SubjectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	var req CreatePrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	rx, err := h.svc.CreatePrescription(c.Request().Context(), prescriber, req)
	if err != nil {
		return pharmacyError(err)
	}
	v, err := rxView(id, rx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	rid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rx, err := h.svc.Dispense(c.Request().Context(), rid, id.SubjectID)
	if err != nil {
		return pharmacyError(err)
	}
	v, err := rxView(id, rx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CancelPrescription(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	rid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rx, err := h.svc.CancelPrescription(c.Request().Context(), rid)
	if err != nil {
		return pharmacyError(err)
	}
	v, err := rxView(id, rx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}
