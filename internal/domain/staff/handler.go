package staff

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := auth.RequireRole(auth.RoleAdmin)

	api.POST("/users", h.CreateUser, admin)
	api.GET("/users", h.ListUsers, admin)
	api.GET("/users/:id", h.GetUser, admin)
	api.PUT("/users/:id", h.UpdateUser, admin)
	api.DELETE("/users/:id", h.DeleteUser, admin)

	api.GET("/admin/doctor", h.listRole(auth.RoleDoctor), admin)
	api.GET("/admin/nurse", h.listRole(auth.RoleNurse), admin)
	api.GET("/admin/pharmacist", h.listRole(auth.RolePharmacist), admin)
	api.GET("/admin/frontdesk", h.listRole(auth.RoleFrontDesk), admin)

	api.GET("/frontdesk/doctors", h.DoctorNames, auth.RequireRole(auth.RoleFrontDesk))
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, map[string]interface{}{"success": true, "data": data})
}

func userID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid user id")
	}
	return id, nil
}

func (h *Handler) CreateUser(c echo.Context) error {
	var in CreateUserInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	u, err := h.svc.CreateUser(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	p := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, p))
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var in UpdateUserInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	u, err := h.svc.UpdateUser(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listRole(role auth.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := h.svc.ListByRole(c.Request().Context(), role)
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, list)
	}
}

func (h *Handler) DoctorNames(c echo.Context) error {
	list, err := h.svc.DoctorNames(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, list)
}
