package booking

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"hallslot/internal/api"
	"hallslot/internal/auth"
	"hallslot/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  Service
	notifier Notifier
}

func NewHandler(service Service, notifier Notifier) *Handler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Handler{
		service:  service,
		notifier: notifier,
	}
}

// RegisterRoutes mounts the booking endpoints on rg. Deleting a booking and
// reading stats additionally require the admin role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminOnly ...gin.HandlerFunc) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/search", h.Search)
	rg.GET("/history", h.History)
	rg.GET("/calendar", h.MonthCalendar)
	rg.GET("/stats", append(slices.Clip(adminOnly), h.Stats)...)
	rg.GET("/day/:date", h.DaySchedule)
	rg.GET("/date/:date", h.ListByDate)
	rg.GET("/hall/:hallName/date/:date", h.ListByHallAndDate)
	rg.GET("/status/:status", h.ListByStatus)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.PUT("/:id/cancel-request", h.RequestCancel)
	rg.DELETE("/:id", append(slices.Clip(adminOnly), h.Delete)...)
}

func principal(c *gin.Context) Principal {
	email, _ := auth.GetEmail(c)
	return Principal{Email: email, Admin: auth.IsAdmin(c)}
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	var cerr *ConflictError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: verr.Message, Kind: string(verr.Kind), Field: verr.Field})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, api.ConflictResponse{Error: cerr.Error(), Conflict: cerr})
	case errors.Is(err, ErrBookingNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Only admins may change booking status"})
	case errors.Is(err, ErrLockNotAcquired), errors.Is(err, ErrLockExpired), errors.Is(err, ErrHallChanged):
		logger.WithError(err).Warn("booking write gave up on hall lock", "path", c.FullPath())
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Hall is busy, please retry"})
	default:
		logger.WithError(err).Error("booking request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Server error"})
	}
}

func malformed(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Kind: string(KindMalformedPayload)})
}

// @Summary      Request a hall booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body booking.Booking true "Booking payload"
// @Success      201 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ConflictResponse
// @Router       /api/bookings [post]
func (h *Handler) Create(c *gin.Context) {
	var req Booking
	if err := c.ShouldBindJSON(&req); err != nil {
		malformed(c, err)
		return
	}

	ctx := c.Request.Context()
	created, err := h.service.CreateBooking(ctx, CreateParams{Principal: principal(c), Booking: req})
	if err != nil {
		writeError(c, err)
		return
	}

	h.notifier.BookingCreated(ctx, created)
	c.JSON(http.StatusCreated, created)
}

// @Summary      List bookings
// @Tags         bookings
// @Produce      json
// @Success      200 {array} booking.Booking
// @Router       /api/bookings [get]
func (h *Handler) List(c *gin.Context) {
	bookings, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      404 {object} api.ErrorResponse
// @Router       /api/bookings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	b, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) ListByDate(c *gin.Context) {
	bookings, err := h.service.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) ListByHallAndDate(c *gin.Context) {
	bookings, err := h.service.ListByHallAndDate(c.Request.Context(), c.Param("hallName"), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) ListByStatus(c *gin.Context) {
	bookings, err := h.service.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary      Booking history of a requester
// @Tags         bookings
// @Produce      json
// @Param        department query string true "Department"
// @Param        email      query string true "Requester email"
// @Success      200 {array} booking.Booking
// @Router       /api/bookings/history [get]
func (h *Handler) History(c *gin.Context) {
	department := c.Query("department")
	email := c.Query("email")
	if department == "" || email == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "department and email are required", Kind: string(KindMalformedPayload)})
		return
	}

	bookings, err := h.service.History(c.Request.Context(), department, email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) Search(c *gin.Context) {
	filter := SearchFilter{
		Department: c.Query("department"),
		Hall:       c.Query("hall"),
		Date:       c.Query("date"),
		Slot:       c.Query("slot"),
	}

	bookings, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary      Bookings touching one day
// @Tags         calendar
// @Produce      json
// @Param        date path  string true  "YYYY-MM-DD"
// @Param        hall query string false "Hall name"
// @Success      200 {array} booking.Booking
// @Router       /api/bookings/day/{date} [get]
func (h *Handler) DaySchedule(c *gin.Context) {
	bookings, err := h.service.DaySchedule(c.Request.Context(), c.Param("date"), c.Query("hall"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary      Month overview
// @Tags         calendar
// @Produce      json
// @Param        hall  query string false "Hall name"
// @Param        year  query int    false "Year, defaults to the current one"
// @Param        month query int    false "Month 1-12, defaults to the current one"
// @Success      200 {array} booking.CalendarDay
// @Router       /api/bookings/calendar [get]
func (h *Handler) MonthCalendar(c *gin.Context) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid year", Kind: string(KindBadDateFormat), Field: "year"})
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid month", Kind: string(KindBadDateFormat), Field: "month"})
			return
		}
		month = n
	}

	days, err := h.service.MonthCalendar(c.Request.Context(), c.Query("hall"), year, month)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// @Summary      Booking statistics
// @Description  Admin-only: counts per hall and status, and requests per day
// @Tags         admin,calendar
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "First day, YYYY-MM-DD (default 30 days before to)"
// @Param        to   query string false "Last day, YYYY-MM-DD (default today)"
// @Success      200 {object} booking.Stats
// @Failure      400 {object} api.ErrorResponse
// @Router       /api/bookings/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary      Update a booking
// @Description  Partial update. Status changes are admin-only and follow the booking lifecycle.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id      path string        true "Booking ID"
// @Param        request body booking.Patch true "Fields to change"
// @Success      200 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ConflictResponse
// @Router       /api/bookings/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		malformed(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.service.UpdateBooking(ctx, UpdateParams{
		Principal: principal(c),
		ID:        c.Param("id"),
		Patch:     patch,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if result.StatusChanged() {
		h.notifier.StatusChanged(ctx, result.Booking, result.PreviousStatus)
	}
	c.JSON(http.StatusOK, result.Booking)
}

type cancelRequestBody struct {
	CancellationReason string `json:"cancellationReason"`
	Remarks            string `json:"remarks"`
}

// @Summary      Ask for a booking to be cancelled
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /api/bookings/{id}/cancel-request [put]
func (h *Handler) RequestCancel(c *gin.Context) {
	var body cancelRequestBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			malformed(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	updated, err := h.service.RequestCancel(ctx, CancelRequestParams{
		ID:                 c.Param("id"),
		CancellationReason: strings.TrimSpace(body.CancellationReason),
		Remarks:            strings.TrimSpace(body.Remarks),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.notifier.CancelRequested(ctx, updated)
	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete a booking
// @Tags         admin,bookings
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      204
// @Failure      404 {object} api.ErrorResponse
// @Router       /api/bookings/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	removed, err := h.service.DeleteBooking(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	h.notifier.BookingRemoved(ctx, removed)
	c.Status(http.StatusNoContent)
}
