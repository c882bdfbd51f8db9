package triage

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mishmanage/mishmanage/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/treatment-types", h.ListTreatmentTypes)
	api.GET("/nurses", h.ListNurses)
	api.GET("/board", h.GetBoard)

	api.GET("/treatments", h.ListTreatments)
	api.GET("/treatments/:id", h.GetTreatment)
	api.POST("/treatments", h.CreateTreatment)
	api.DELETE("/treatments/:id", h.DeleteTreatment)
	api.POST("/treatments/:id/unassign", h.UnassignTreatment)

	api.POST("/drops", h.Drop)
}

// transitionResponse is returned by every board mutation. Applied is false
// when the request was a silent no-op.
type transitionResponse struct {
	Applied bool   `json:"applied"`
	Board   *Board `json:"board"`
}

func (h *Handler) ListTreatmentTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, TreatmentTypeOptions())
}

func (h *Handler) ListNurses(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Nurses())
}

func (h *Handler) GetBoard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Board(c.Request().Context()))
}

func (h *Handler) ListTreatments(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total := h.svc.ListTreatments(c.Request().Context(), pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg, c.Request().URL.Path))
}

func (h *Handler) GetTreatment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.GetTreatment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) CreateTreatment(c echo.Context) error {
	var form CreateTreatmentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.CreateTreatment(c.Request().Context(), form)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, verr)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, NewCard(t))
}

func (h *Handler) DeleteTreatment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	applied := h.svc.Delete(ctx, id)
	return c.JSON(http.StatusOK, transitionResponse{Applied: applied, Board: h.svc.Board(ctx)})
}

func (h *Handler) UnassignTreatment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	applied := h.svc.Unassign(ctx, id)
	return c.JSON(http.StatusOK, transitionResponse{Applied: applied, Board: h.svc.Board(ctx)})
}

func (h *Handler) Drop(c echo.Context) error {
	var msg DropMessage
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	applied := h.svc.Drop(ctx, msg)
	return c.JSON(http.StatusOK, transitionResponse{Applied: applied, Board: h.svc.Board(ctx)})
}
