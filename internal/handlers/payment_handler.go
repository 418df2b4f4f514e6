package handlers

import (
	"io"
	"net/http"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/generalexpress/booking-backend/internal/services"
	"github.com/generalexpress/booking-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// webhookSignatureHeader is the header Flutterwave signs webhooks with
const webhookSignatureHeader = "verif-hash"

// PaymentHandler handles payment and reconciliation endpoints
type PaymentHandler struct {
	reconciliation *services.ReconciliationService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(reconciliation *services.ReconciliationService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		reconciliation: reconciliation,
		logger:         logger,
	}
}

// requestMeta extracts caller metadata for the audit trail
func (h *PaymentHandler) requestMeta(c *gin.Context) services.RequestMeta {
	userAgent := c.Request.UserAgent()
	return services.RequestMeta{
		IPAddress:  c.ClientIP(),
		UserAgent:  userAgent,
		DeviceInfo: utils.ParseUserAgent(userAgent).Summary(),
	}
}

// InitializePayment starts a charge for a pending booking
// @Summary Initialize payment
// @Description Starts a gateway charge and records a pending payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.InitializePaymentRequest true "Payment request"
// @Success 200 {object} models.InitializePaymentResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 502 {object} map[string]interface{} "Gateway unavailable"
// @Router /payments/initialize [post]
func (h *PaymentHandler) InitializePayment(c *gin.Context) {
	var req models.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.reconciliation.InitializePayment(&req, h.requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyPayment reconciles a payment against the gateway
// @Summary Verify payment
// @Description Confirms the booking if the gateway reports a matching successful charge
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.VerifyPaymentRequest true "Verification request"
// @Success 200 {object} models.VerifyPaymentResponse
// @Failure 404 {object} map[string]interface{} "Unknown payment"
// @Failure 502 {object} map[string]interface{} "Gateway unavailable"
// @Router /payments/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.reconciliation.VerifyPayment(req.Reference, req.TransactionID, h.requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Webhook receives gateway notifications. The signature is checked against
// the raw body before anything is parsed; a mismatch gets 401 and no state
// changes. Replays of already-processed transactions are acknowledged 200.
// @Summary Payment webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "Invalid signature"
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader(webhookSignatureHeader)

	err = h.reconciliation.HandleWebhook(rawBody, signature, h.requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetPaymentStatus returns the current state of a payment
// @Summary Payment status
// @Tags Payments
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} models.Payment
// @Failure 404 {object} map[string]interface{}
// @Router /payments/status/{reference} [get]
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	payment, err := h.reconciliation.GetPaymentStatus(c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetAuditTrail returns the audit history of a payment for staff review
// @Summary Payment audit trail
// @Tags Payments
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param reference path string true "Payment reference"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /payments/audits/{reference} [get]
func (h *PaymentHandler) GetAuditTrail(c *gin.Context) {
	audits, err := h.reconciliation.GetAuditTrail(c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": audits,
		"count":  len(audits),
	})
}

// ListAmountMismatches returns the reconciliation review queue
// @Summary Amount mismatches
// @Description Lists payments where the gateway settled a different amount than charged
// @Tags Payments
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Router /payments/mismatches [get]
func (h *PaymentHandler) ListAmountMismatches(c *gin.Context) {
	mismatches, err := h.reconciliation.ListAmountMismatches(parseIntQuery(c, "limit", 50))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mismatches": mismatches,
		"count":      len(mismatches),
	})
}
