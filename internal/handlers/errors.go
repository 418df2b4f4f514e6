package handlers

import (
	"errors"
	"net/http"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps domain errors to HTTP status codes. Caller mistakes are
// 4xx, gateway trouble is 502, retryable store failures are 503.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrTripNotBookable):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "trip_not_bookable",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrCapacityExceeded):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "capacity_exceeded",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrNotCancellable):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "not_cancellable",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrBookingNotFound), errors.Is(err, models.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_signature",
			"message": err.Error(),
		})
	default:
		var gatewayErr *models.GatewayError
		if errors.As(err, &gatewayErr) {
			logger.WithError(err).Error("Payment gateway error")
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "gateway_error",
				"message": "payment gateway is unavailable, please retry",
			})
			return
		}

		if models.IsTransient(err) {
			logger.WithError(err).Warn("Transient store error")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "temporarily_unavailable",
				"message": "please retry the request",
			})
			return
		}

		logger.WithError(err).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "an unexpected error occurred",
		})
	}
}
