package patient

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	frontDesk := auth.RequireRole(auth.RoleFrontDesk)
	lookup := auth.RequireRole(auth.RoleFrontDesk, auth.RoleNurse)
	nurse := auth.RequireRole(auth.RoleNurse)

	fd := api.Group("/frontdesk")
	fd.POST("/patients", h.RegisterPatient, frontDesk)
	fd.GET("/patients", h.SearchPatients, lookup)
	fd.GET("/patient/:id", h.GetPatient, frontDesk)
	fd.PUT("/:id", h.UpdatePatient, frontDesk)
	fd.POST("/visits", h.RecordVisit, frontDesk)
	fd.GET("/visits", h.SearchVisits, frontDesk)
	fd.GET("/all-visits", h.GetVisitsByDate, frontDesk)

	api.POST("/nurse/:patientId/details", h.AddPatientDetails, nurse)
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, map[string]interface{}{"success": true, "data": data})
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid patient id")
	}
	return id, nil
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in CreatePatientInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	p, err := h.svc.RegisterPatient(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, p)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	patients, err := h.svc.SearchPatients(c.Request().Context(), c.QueryParam("cnic"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, patients)
}

func (h *Handler) SearchVisits(c echo.Context) error {
	patients, err := h.svc.SearchVisits(c.Request().Context(), c.QueryParam("cnic"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, patients)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in UpdatePatientInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, p)
}

func (h *Handler) RecordVisit(c echo.Context) error {
	var in RecordVisitInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	if in.PatientID == "" {
		return apperror.Validation("patientId is required")
	}
	id, err := uuid.Parse(in.PatientID)
	if err != nil {
		return apperror.Validation("invalid patient id")
	}
	if err := h.svc.RecordVisit(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true})
}

func (h *Handler) GetVisitsByDate(c echo.Context) error {
	day, err := h.svc.ParseDay(c.QueryParam("date"))
	if err != nil {
		return err
	}
	visits, err := h.svc.GetVisitsByDate(c.Request().Context(), day)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, visits)
}

func (h *Handler) AddPatientDetails(c echo.Context) error {
	id, err := pathID(c, "patientId")
	if err != nil {
		return err
	}
	var in DetailsInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	d, err := h.svc.AddPatientDetails(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, d)
}
