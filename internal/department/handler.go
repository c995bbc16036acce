package department

import (
	"errors"
	"net/http"
	"slices"

	"hallslot/internal/api"
	"hallslot/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminOnly ...gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("", append(slices.Clip(adminOnly), h.Create)...)
	rg.PUT("/:id", append(slices.Clip(adminOnly), h.Update)...)
	rg.DELETE("/:id", append(slices.Clip(adminOnly), h.Delete)...)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEmptyName):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Department name is required", Field: "name"})
	case errors.Is(err, ErrDepartmentExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Department already exists", Field: "name"})
	case errors.Is(err, ErrDepartmentNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Department not found"})
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// @Summary      Create a department
// @Tags         admin,departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body department.DepartmentRequest true "Department"
// @Success      201 {object} department.Department
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /departments [post]
func (h *Handler) Create(c *gin.Context) {
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindError(err))
		return
	}

	d, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to create department")
		return
	}

	c.JSON(http.StatusCreated, d)
}

// @Summary      Rename a department
// @Tags         admin,departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Department ID"
// @Param        request body department.DepartmentRequest true "Department"
// @Success      200 {object} department.Department
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /departments/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindError(err))
		return
	}

	d, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err, "Failed to update department")
		return
	}

	c.JSON(http.StatusOK, d)
}

// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Success      200 {array} department.Department
// @Router       /departments [get]
func (h *Handler) List(c *gin.Context) {
	departments, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch departments")
		return
	}

	c.JSON(http.StatusOK, departments)
}

func (h *Handler) Get(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch department")
		return
	}

	c.JSON(http.StatusOK, d)
}

// @Summary      Delete a department
// @Tags         admin,departments
// @Security     BearerAuth
// @Param        id path string true "Department ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /departments/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete department")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Department deleted"})
}
