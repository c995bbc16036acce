package hall

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

// RegisterRoutes mounts halls and hall operators. Reads are open to any
// caller that passes the group's middleware; writes additionally run adminOnly.
func (h *Handler) RegisterRoutes(halls, operators *gin.RouterGroup, adminOnly ...gin.HandlerFunc) {
	halls.GET("", h.ListHalls)
	halls.GET("/:id", h.GetHall)
	halls.GET("/:id/operators", h.ListHallOperators)
	halls.POST("", append(slices.Clip(adminOnly), h.CreateHall)...)
	halls.DELETE("/:id", append(slices.Clip(adminOnly), h.DeleteHall)...)

	operators.GET("", h.ListOperators)
	operators.GET("/:id", h.GetOperator)
	operators.POST("", append(slices.Clip(adminOnly), h.AddOperator)...)
	operators.PUT("/:id", append(slices.Clip(adminOnly), h.UpdateOperator)...)
	operators.DELETE("/:id", append(slices.Clip(adminOnly), h.DeleteOperator)...)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrHallNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Hall not found"})
	case errors.Is(err, ErrOperatorNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Hall operator not found"})
	case errors.Is(err, ErrHallExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Hall already exists"})
	case errors.Is(err, ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Email must be an institutional or gmail address", Field: "headEmail"})
	case errors.Is(err, ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Phone must be a 10 digit mobile number", Field: "phone"})
	case errors.Is(err, ErrHallRequired), errors.Is(err, ErrEmptyName):
		c.JSON(http.StatusBadRequest, api.BindError(err))
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// @Summary      Create a hall
// @Description  Admin-only: register a bookable hall
// @Tags         admin,halls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body hall.CreateHallRequest true "Hall payload"
// @Success      201 {object} hall.Hall
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /halls [post]
func (h *Handler) CreateHall(c *gin.Context) {
	var req CreateHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindError(err))
		return
	}

	created, err := h.service.CreateHall(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to create hall")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// @Summary      List halls
// @Tags         halls
// @Produce      json
// @Success      200 {array} hall.Hall
// @Router       /halls [get]
func (h *Handler) ListHalls(c *gin.Context) {
	halls, err := h.service.GetAllHalls(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch halls")
		return
	}

	c.JSON(http.StatusOK, halls)
}

// @Summary      Get a hall
// @Tags         halls
// @Produce      json
// @Param        id path string true "Hall ID"
// @Success      200 {object} hall.Hall
// @Failure      404 {object} api.ErrorResponse
// @Router       /halls/{id} [get]
func (h *Handler) GetHall(c *gin.Context) {
	found, err := h.service.GetHallByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch hall")
		return
	}

	c.JSON(http.StatusOK, found)
}

// @Summary      Delete a hall
// @Tags         admin,halls
// @Security     BearerAuth
// @Param        id path string true "Hall ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /halls/{id} [delete]
func (h *Handler) DeleteHall(c *gin.Context) {
	if err := h.service.DeleteHall(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete hall")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Hall deleted"})
}

// @Summary      List operators of a hall
// @Tags         halls
// @Produce      json
// @Param        id path string true "Hall ID"
// @Success      200 {array} hall.Operator
// @Router       /halls/{id}/operators [get]
func (h *Handler) ListHallOperators(c *gin.Context) {
	ops, err := h.service.OperatorsForHallID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch hall operators")
		return
	}

	c.JSON(http.StatusOK, ops)
}

// @Summary      Add a hall operator
// @Description  Admin-only: the hall is resolved by hallId, or by hallName ignoring case
// @Tags         admin,hall-operators
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body hall.CreateOperatorRequest true "Operator payload"
// @Success      201 {object} hall.Operator
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /hall-operators [post]
func (h *Handler) AddOperator(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindError(err))
		return
	}

	op, err := h.service.AddOperator(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to add hall operator")
		return
	}

	c.JSON(http.StatusCreated, op)
}

// @Summary      Update a hall operator
// @Tags         admin,hall-operators
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Operator ID"
// @Param        request body hall.UpdateOperatorRequest true "Operator fields"
// @Success      200 {object} hall.Operator
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /hall-operators/{id} [put]
func (h *Handler) UpdateOperator(c *gin.Context) {
	var req UpdateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindError(err))
		return
	}

	op, err := h.service.UpdateOperator(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err, "Failed to update hall operator")
		return
	}

	c.JSON(http.StatusOK, op)
}

// @Summary      List hall operators
// @Tags         hall-operators
// @Produce      json
// @Param        hallName query string false "Filter by hall name"
// @Success      200 {array} hall.Operator
// @Router       /hall-operators [get]
func (h *Handler) ListOperators(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		ops []Operator
		err error
	)
	if name := c.Query("hallName"); name != "" {
		ops, err = h.service.OperatorsForHall(ctx, name)
	} else {
		ops, err = h.service.ListOperators(ctx)
	}
	if err != nil {
		writeError(c, err, "Failed to fetch hall operators")
		return
	}

	c.JSON(http.StatusOK, ops)
}

// @Summary      Get a hall operator
// @Tags         hall-operators
// @Produce      json
// @Param        id path string true "Operator ID"
// @Success      200 {object} hall.Operator
// @Failure      404 {object} api.ErrorResponse
// @Router       /hall-operators/{id} [get]
func (h *Handler) GetOperator(c *gin.Context) {
	op, err := h.service.GetOperator(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch hall operator")
		return
	}

	c.JSON(http.StatusOK, op)
}

// @Summary      Delete a hall operator
// @Tags         admin,hall-operators
// @Security     BearerAuth
// @Param        id path string true "Operator ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /hall-operators/{id} [delete]
func (h *Handler) DeleteOperator(c *gin.Context) {
	if err := h.service.DeleteOperator(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete hall operator")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Hall operator deleted"})
}
