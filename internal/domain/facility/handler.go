package facility

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
	g := api.Group("/facility")
	g.GET("/beds", h.ListBeds, auth.RequirePermission(policy.ActionList, policy.KindBed))
	g.GET("/beds/:id", h.GetBed, auth.RequirePermission(policy.ActionRead, policy.KindBed))
	g.POST("/beds", h.CreateBed, auth.RequirePermission(policy.ActionCreate, policy.KindBed))
	g.PUT("/beds/:id", h.UpdateBed, auth.RequirePermission(policy.ActionUpdate, policy.KindBed))
	g.PATCH("/beds/:id/status", h.SetBedStatus, auth.RequirePermission(policy.ActionUpdate, policy.KindBed))
	// Beds are retired from the pool, not removed.
	g.DELETE("/beds/:id", h.DeactivateBed, auth.RequirePermission(policy.ActionDelete, policy.KindBed))

	g.GET("/admissions", h.ListAdmissions, auth.RequirePermission(policy.ActionList, policy.KindAdmission))
	g.GET("/admissions/:id", h.GetAdmission, auth.RequirePermission(policy.ActionRead, policy.KindAdmission))
	g.POST("/admissions", h.Admit, auth.RequirePermission(policy.ActionCreate, policy.KindAdmission))
	g.POST("/admissions/:id/discharge", h.Discharge, auth.RequirePermission(policy.ActionUpdate, policy.KindAdmission))
	g.POST("/admissions/:id/transfer", h.Transfer, auth.RequirePermission(policy.ActionUpdate, policy.KindAdmission))
	g.GET("/stats", h.Stats, auth.RequirePermission(policy.ActionRead, policy.KindReport))
}

func facilityError(err error) error {
	switch {
	case errors.Is(err, ErrBedNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "bed not found")
	case errors.Is(err, ErrAdmissionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	case errors.Is(err, ErrBedNumberTaken),
		errors.Is(err, ErrBedOccupied),
		errors.Is(err, ErrBedUnavailable),
		errors.Is(err, ErrAlreadyAdmitted),
		errors.Is(err, ErrAlreadyDischarged):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrDepartmentUnknown),
		errors.Is(err, ErrPatientUnknown),
		errors.Is(err, ErrInvalidBedType),
		errors.Is(err, ErrInvalidBedStatus),
		errors.Is(err, ErrInvalidAdmissionType),
		errors.Is(err, ErrSameBed):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// ownsAdmission reports whether a patient caller is the subject of the
// admission.
func ownsAdmission(id policy.Identity, a *Admission) bool {
	return a.OwnerUserID != nil && a.OwnerUserID.String() == id.SubjectID
}

func (h *Handler) ListBeds(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListBedsFilter{
		BedType:       c.QueryParam("bedType"),
		Status:        c.QueryParam("status"),
		AvailableOnly: c.QueryParam("available") == "true",
		Search:        c.QueryParam("search"),
	}
	if raw := c.QueryParam("departmentId"); raw != "" {
		did, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid departmentId")
		}
		filter.DepartmentID = &did
	}

	beds, total, err := h.svc.ListBeds(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(beds, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetBed(c echo.Context) error {
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bed, err := h.svc.GetBed(c.Request().Context(), bid)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusOK, bed)
}

func (h *Handler) CreateBed(c echo.Context) error {
	var req CreateBedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	bed, err := h.svc.CreateBed(c.Request().Context(), req)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusCreated, bed)
}

func (h *Handler) UpdateBed(c echo.Context) error {
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req UpdateBedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	bed, err := h.svc.UpdateBed(c.Request().Context(), bid, req)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusOK, bed)
}

func (h *Handler) SetBedStatus(c echo.Context) error {
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req SetBedStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	bed, err := h.svc.SetBedStatus(c.Request().Context(), bid, req.Status)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusOK, bed)
}

func (h *Handler) DeactivateBed(c echo.Context) error {
	bid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeactivateBed(c.Request().Context(), bid); err != nil {
		return facilityError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAdmissions(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListAdmissionsFilter{
		ActiveOnly: c.QueryParam("active") == "true",
		Search:     c.QueryParam("search"),
	}
	if raw := c.QueryParam("patientId"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		filter.PatientID = &pid
	}
	if raw := c.QueryParam("bedId"); raw != "" {
		bid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid bedId")
		}
		filter.BedID = &bid
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

	admissions, total, err := h.svc.ListAdmissions(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetAdmission(c echo.Context) error {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	aid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	admission, err := h.svc.GetAdmission(c.Request().Context(), aid)
	if err != nil {
		return facilityError(err)
	}
	if id.Role == policy.RolePatient && !ownsAdmission(id, admission) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.JSON(http.StatusOK, admission)
}

func (h *Handler) Admit(c echo.Context) error {
	var req AdmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	admission, err := h.svc.Admit(c.Request().Context(), req)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusCreated, admission)
}

func (h *Handler) Discharge(c echo.Context) error {
	aid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req DischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	admission, err := h.svc.Discharge(c.Request().Context(), aid, req)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusOK, admission)
}

func (h *Handler) Transfer(c echo.Context) error {
	aid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	admission, err := h.svc.Transfer(c.Request().Context(), aid, req)
	if err != nil {
		return facilityError(err)
	}
	return c.JSON(http.StatusOK, admission)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
