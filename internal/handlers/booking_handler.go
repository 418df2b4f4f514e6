package handlers

import (
	"fmt"
	"net/http"

	"github.com/generalexpress/booking-backend/internal/middleware"
	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/generalexpress/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	ticketService  *services.TicketService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, ticketService *services.TicketService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		ticketService:  ticketService,
		logger:         logger,
	}
}

// CreateBooking reserves seats on a trip
// @Summary Create booking
// @Description Atomically reserves seats; the booking awaits payment
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Validation error, trip not bookable or insufficient seats"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	var userID *uuid.UUID
	if userCtx, exists := middleware.GetUserContext(c); exists {
		userID = &userCtx.UserID
	}

	booking, err := h.bookingService.CreateBooking(&req, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking retrieves a booking by reference
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param reference path string true "Booking reference"
// @Success 200 {object} models.Booking
// @Failure 404 {object} map[string]interface{}
// @Router /bookings/{reference} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	reference := c.Param("reference")

	var userID *uuid.UUID
	if userCtx, exists := middleware.GetUserContext(c); exists {
		userID = &userCtx.UserID
	}

	booking, err := h.bookingService.GetBooking(reference, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListMyBookings returns the authenticated user's bookings
// @Summary List my bookings
// @Tags Bookings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /bookings/my-bookings [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	bookings, err := h.bookingService.ListMyBookings(
		userCtx.UserID,
		parseIntQuery(c, "limit", 20),
		parseIntQuery(c, "offset", 0),
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// DownloadTicket serves the e-ticket PDF for a paid booking
// @Summary Download ticket
// @Tags Bookings
// @Produce application/pdf
// @Param reference path string true "Booking reference"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{} "Unknown reference or payment not completed"
// @Router /bookings/{reference}/ticket [get]
func (h *BookingHandler) DownloadTicket(c *gin.Context) {
	reference := c.Param("reference")

	var userID *uuid.UUID
	if userCtx, exists := middleware.GetUserContext(c); exists {
		userID = &userCtx.UserID
	}

	pdfBytes, filename, err := h.ticketService.GenerateTicket(reference, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// CancelBooking cancels an owned booking inside the cancellation window
// @Summary Cancel booking
// @Description Releases the reserved seats and queues a refund if the booking was paid
// @Tags Bookings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param reference path string true "Booking reference"
// @Success 200 {object} models.CancelBookingResult
// @Failure 400 {object} map[string]interface{} "Not cancellable"
// @Failure 401 {object} map[string]interface{}
// @Router /bookings/{reference}/cancel [put]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	result, err := h.bookingService.CancelBooking(c.Param("reference"), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
