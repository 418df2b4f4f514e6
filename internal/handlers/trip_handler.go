package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/generalexpress/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TripHandler handles public trip inventory endpoints
type TripHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(bookingService *services.BookingService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// ListTrips returns bookable trips
// @Summary Search trips
// @Description Lists scheduled trips, optionally filtered by route and date
// @Tags Trips
// @Produce json
// @Param origin query string false "Origin city"
// @Param destination query string false "Destination city"
// @Param date query string false "Departure date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Router /trips [get]
func (h *TripHandler) ListTrips(c *gin.Context) {
	filter := models.TripFilter{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Limit:       parseIntQuery(c, "limit", 50),
		Offset:      parseIntQuery(c, "offset", 0),
	}

	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"field":   "date",
				"message": "date must be in YYYY-MM-DD format",
			})
			return
		}
		filter.Date = &date
	}

	trips, err := h.bookingService.SearchTrips(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trips": trips,
		"count": len(trips),
	})
}

// GetTrip returns a single trip by id
// @Summary Get trip
// @Tags Trips
// @Produce json
// @Param id path int true "Trip ID"
// @Success 200 {object} models.Trip
// @Failure 404 {object} map[string]interface{}
// @Router /trips/{id} [get]
func (h *TripHandler) GetTrip(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	trip, err := h.bookingService.GetTrip(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// parseIntQuery reads an integer query parameter with a default
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
