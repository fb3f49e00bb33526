package reports

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/auth"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequirePermission(policy.ActionRead, policy.KindReport))
	g.GET("/dashboard", h.Dashboard)
	g.GET("/patients", h.Patients)
	g.GET("/appointments", h.Appointments)
	g.GET("/revenue", h.Revenue)
	g.GET("/laboratory", h.Laboratory)
	g.GET("/occupancy", h.Occupancy)
	g.GET("/doctors", h.Doctors)
}

func reportError(err error) error {
	if errors.Is(err, ErrInvalidRange) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func rangeFrom(c echo.Context) (Range, error) {
	var rng Range
	for param, dst := range map[string]**time.Time{"startDate": &rng.From, "endDate": &rng.To} {
		if raw := c.QueryParam(param); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return rng, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
			}
			*dst = &t
		}
	}
	return rng, nil
}

func uuidParam(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// payload stamps a generation time on every report body.
func payload(name string, report any) map[string]any {
	return map[string]any{
		name:          report,
		"generatedAt": time.Now().UTC(),
	}
}

func (h *Handler) Dashboard(c echo.Context) error {
	report, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, payload("dashboard", report))
}

func (h *Handler) Patients(c echo.Context) error {
	rng, err := rangeFrom(c)
	if err != nil {
		return err
	}
	report, err := h.svc.Patients(c.Request().Context(), rng)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, payload("patients", report))
}

func (h *Handler) Appointments(c echo.Context) error {
	rng, err := rangeFrom(c)
	if err != nil {
		return err
	}
	doctorID, err := uuidParam(c, "doctorId")
	if err != nil {
		return err
	}
	patientID, err := uuidParam(c, "patientId")
	if err != nil {
		return err
	}
	report, err := h.svc.Appointments(c.Request().Context(), rng, doctorID, patientID)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, payload("appointments", report))
}

func (h *Handler) Revenue(c echo.Context) error {
	rng, err := rangeFrom(c)
	if err != nil {
		return err
	}
	report, err := h.svc.Revenue(c.Request().Context(), rng)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, payload("revenue", report))
}

func (h *Handler) Laboratory(c echo.Context) error {
	rng, err := rangeFrom(c)
	if err != nil {
		return err
	}
	patientID, err := uuidParam(c, "patientId")
	if err != nil {
		return err
	}
	report, err := h.svc.Laboratory(c.Request().Context(), rng, patientID)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, payload("laboratory", report))
}

func (h *Handler) Occupancy(c echo.Context) error {
	departmentID, err := uuidParam(c, "departmentId")
	if err != nil {
		return err
	}
	report, err := h.svc.Occupancy(c.Request().Context(), departmentID)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, payload("occupancy", report))
}

func (h *Handler) Doctors(c echo.Context) error {
	rng, err := rangeFrom(c)
	if err != nil {
		return err
	}
	departmentID, err := uuidParam(c, "departmentId")
	if err != nil {
		return err
	}
	report, err := h.svc.Doctors(c.Request().Context(), rng, departmentID)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, payload("doctors", report))
}
