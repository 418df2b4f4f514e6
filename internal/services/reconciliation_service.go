package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/generalexpress/booking-backend/internal/database"
	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentGateway is the adapter surface the reconciler drives. Satisfied by
// FlutterwaveService in production and by fakes in tests.
type PaymentGateway interface {
	GenerateReference() (string, error)
	InitializePayment(params *InitializePaymentParams) (*FlutterwaveInitResponse, error)
	ChargeMobileMoney(params *InitializePaymentParams) (*FlutterwaveChargeResponse, error)
	VerifyTransaction(transactionID string) (*FlutterwaveVerification, error)
	VerifyWebhookSignature(body []byte, signature string) bool
	ParseWebhookEvent(body []byte) (*FlutterwaveWebhookEvent, error)
}

// PaymentStore is the payment persistence surface
type PaymentStore interface {
	CreatePending(payment *models.Payment) error
	GetByReference(reference string) (*models.Payment, error)
	ConfirmSuccess(reference, transactionID string) (*models.Payment, bool, error)
	MarkFailed(reference, transactionID string) error
	HasSuccessfulTransaction(transactionID string) (bool, error)
}

// AuditLog records immutable payment events and serves the review queries
type AuditLog interface {
	Log(audit *models.PaymentAudit) error
	CheckDuplicate(transactionID string, eventType models.PaymentEventType, idempotencyKey string) (bool, error)
	GetByPaymentReference(reference string) ([]*models.PaymentAudit, error)
	GetAmountMismatches(limit int) ([]*models.PaymentAudit, error)
}

// RequestMeta carries caller metadata into the audit trail
type RequestMeta struct {
	IPAddress  string
	UserAgent  string
	DeviceInfo string
}

// DefaultCurrency is the settlement currency for all charges
const DefaultCurrency = "XAF"

// ReconciliationService keeps payment state and booking state consistent. The
// gateway's verification endpoint is the single source of truth for payment
// outcomes; client redirects and webhook payloads are only hints.
type ReconciliationService struct {
	gateway  PaymentGateway
	payments PaymentStore
	bookings BookingStore
	audits   AuditLog
	logger   *logrus.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	gateway PaymentGateway,
	payments PaymentStore,
	bookings BookingStore,
	audits AuditLog,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		gateway:  gateway,
		payments: payments,
		bookings: bookings,
		audits:   audits,
		logger:   logger,
	}
}

// InitializePayment starts a charge for a pending booking. The gateway
// handshake happens first; only on success is a pending payment row recorded,
// so an initialization failure leaves no local state behind.
func (s *ReconciliationService) InitializePayment(req *models.InitializePaymentRequest, meta RequestMeta) (*models.InitializePaymentResponse, error) {
	if !models.ValidPaymentMethod(req.Method) {
		return nil, &models.ValidationError{Field: "method", Message: "unknown payment method"}
	}
	if req.Method == models.PaymentMethodCash {
		return nil, &models.ValidationError{Field: "method", Message: "cash payments are settled at the counter"}
	}

	booking, err := s.bookings.GetByReference(req.BookingReference)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending || booking.PaymentStatus != models.BookingPaymentPending {
		return nil, &models.ValidationError{Field: "booking_reference", Message: "booking is not awaiting payment"}
	}
	if !amountsMatch(req.Amount, booking.TotalAmount) {
		return nil, &models.ValidationError{Field: "amount", Message: "amount does not match booking total"}
	}

	reference, err := s.gateway.GenerateReference()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	initAudit := models.NewPaymentAudit(models.PaymentEventInitiated, models.PaymentSourceUser).
		SetPaymentReference(reference).
		SetBookingReference(booking.Reference).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.DeviceInfo)
	initAudit.SetAmounts(booking.TotalAmount, req.Amount, DefaultCurrency)
	if err := s.audits.Log(initAudit); err != nil {
		return nil, err
	}

	params := &InitializePaymentParams{
		Reference: reference,
		Amount:    booking.TotalAmount,
		Currency:  DefaultCurrency,
		Customer: FlutterwaveCustomer{
			Email:       req.Customer.Email,
			PhoneNumber: req.Customer.Phone,
			Name:        req.Customer.Name,
		},
		Description: fmt.Sprintf("Bus ticket %s", booking.Reference),
	}
	if req.Description != nil {
		params.Description = *req.Description
	}

	resp := &models.InitializePaymentResponse{Reference: reference}
	var gatewayTxID *string

	switch req.Method {
	case models.PaymentMethodMobileMoney:
		chargeResp, err := s.gateway.ChargeMobileMoney(params)
		if err != nil {
			s.auditGatewayError(reference, booking.Reference, err, start)
			return nil, err
		}
		resp.RequiresApproval = true
		if chargeResp.Meta.Authorization.Redirect != "" {
			resp.PaymentLink = chargeResp.Meta.Authorization.Redirect
		}
		if chargeResp.Data.ID != 0 {
			id := strconv.FormatInt(chargeResp.Data.ID, 10)
			gatewayTxID = &id
		}
	default:
		initResp, err := s.gateway.InitializePayment(params)
		if err != nil {
			s.auditGatewayError(reference, booking.Reference, err, start)
			return nil, err
		}
		resp.PaymentLink = initResp.Data.Link
	}

	method := string(req.Method)
	payment := &models.Payment{
		BookingID:            booking.ID,
		Reference:            reference,
		Amount:               booking.TotalAmount,
		Currency:             DefaultCurrency,
		Method:               req.Method,
		Status:               models.PaymentStatusPending,
		GatewayTransactionID: gatewayTxID,
		CustomerEmail:        &req.Customer.Email,
		CustomerPhone:        &req.Customer.Phone,
		Metadata: models.JSONB{
			"booking_reference": booking.Reference,
			"method":            method,
		},
	}
	if err := s.payments.CreatePending(payment); err != nil {
		return nil, err
	}
	resp.PaymentID = payment.ID

	respAudit := models.NewPaymentAudit(models.PaymentEventResponse, models.PaymentSourceFlutterwaveAPI).
		SetPaymentReference(reference).
		SetBookingReference(booking.Reference).
		SetPaymentStatus(string(models.PaymentStatusPending)).
		SetProcessingTime(start)
	if err := s.audits.Log(respAudit); err != nil {
		return nil, err
	}

	return resp, nil
}

// VerifyPayment asks the gateway for the authoritative transaction state and
// reconciles local rows to it. A payment counts as verified only when the
// gateway reports a successful status AND the settled amount matches what we
// charged; anything else leaves the booking unconfirmed.
func (s *ReconciliationService) VerifyPayment(reference, transactionID string, meta RequestMeta) (*models.VerifyPaymentResponse, error) {
	payment, err := s.payments.GetByReference(reference)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reqAudit := models.NewPaymentAudit(models.PaymentEventVerifyRequest, models.PaymentSourceUser).
		SetPaymentReference(reference).
		SetTransactionID(transactionID).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.DeviceInfo)
	if err := s.audits.Log(reqAudit); err != nil {
		return nil, err
	}

	verification, err := s.gateway.VerifyTransaction(transactionID)
	if err != nil {
		s.auditGatewayError(reference, "", err, start)
		return nil, err
	}

	return s.reconcile(payment, transactionID, verification, models.PaymentSourceFlutterwaveAPI, start)
}

// HandleWebhook processes a gateway notification. The signature check runs on
// the raw body before any parsing; a mismatch returns ErrInvalidSignature and
// changes nothing. Events we do not understand are acknowledged and ignored.
func (s *ReconciliationService) HandleWebhook(rawBody []byte, signature string, meta RequestMeta) error {
	if !s.gateway.VerifyWebhookSignature(rawBody, signature) {
		s.logger.WithField("ip", meta.IPAddress).Warn("Webhook signature verification failed")
		return models.ErrInvalidSignature
	}

	event, err := s.gateway.ParseWebhookEvent(rawBody)
	if err != nil {
		return &models.ValidationError{Field: "payload", Message: err.Error()}
	}

	// Event types we do not act on are acknowledged as-is; their data can
	// have any shape and never touches local state
	if event.Event != "charge.completed" {
		s.logger.WithField("event", event.Event).Info("Ignoring unhandled webhook event")
		return nil
	}

	start := time.Now()
	transactionID := strconv.FormatInt(event.Data.ID, 10)

	duplicate, err := s.audits.CheckDuplicate(transactionID, models.PaymentEventWebhookReceived, "")
	if err != nil {
		return err
	}

	raw := string(rawBody)
	webhookAudit := models.NewPaymentAudit(models.PaymentEventWebhookReceived, models.PaymentSourceFlutterwaveWebhook).
		SetPaymentReference(event.Data.TxRef).
		SetTransactionID(transactionID).
		SetRawBody(raw).
		SetPaymentStatus(event.Data.Status).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.DeviceInfo).
		SetIdempotencyKey(fmt.Sprintf("%s-%s", transactionID, models.PaymentEventWebhookReceived))
	if duplicate {
		webhookAudit.MarkAsDuplicate()
	}
	if err := s.audits.Log(webhookAudit); err != nil {
		return err
	}

	// A transaction that already confirmed a payment needs no second gateway
	// round trip; the delivery was recorded above and the provider only
	// needs its acknowledgement
	confirmed, err := s.payments.HasSuccessfulTransaction(transactionID)
	if err != nil {
		return err
	}
	if confirmed {
		s.logger.WithField("transaction_id", transactionID).Info("Replayed webhook for confirmed transaction")
		return nil
	}

	payment, err := s.payments.GetByReference(event.Data.TxRef)
	if err != nil {
		return err
	}

	// The webhook payload is only a hint; re-verify against the gateway
	// before mutating anything
	verification, err := s.gateway.VerifyTransaction(transactionID)
	if err != nil {
		s.auditGatewayError(event.Data.TxRef, "", err, start)
		return err
	}

	_, err = s.reconcile(payment, transactionID, verification, models.PaymentSourceFlutterwaveWebhook, start)
	return err
}

// GetPaymentStatus returns the current state of a payment. A payment still
// pending with a known gateway transaction is refreshed from the gateway
// first, so polling clients see settlements the webhook has not delivered
// yet. An unreachable gateway degrades to the local row.
func (s *ReconciliationService) GetPaymentStatus(reference string) (*models.Payment, error) {
	payment, err := s.payments.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending || payment.GatewayTransactionID == nil {
		return payment, nil
	}

	transactionID := *payment.GatewayTransactionID
	verification, err := s.gateway.VerifyTransaction(transactionID)
	if err != nil {
		s.logger.WithError(err).WithField("reference", reference).Warn("Status refresh could not reach gateway")
		return payment, nil
	}

	if _, err := s.reconcile(payment, transactionID, verification, models.PaymentSourceSystem, time.Now()); err != nil {
		return nil, err
	}
	return s.payments.GetByReference(reference)
}

// GetAuditTrail returns the full audit history of a payment, oldest first
func (s *ReconciliationService) GetAuditTrail(reference string) ([]*models.PaymentAudit, error) {
	if _, err := s.payments.GetByReference(reference); err != nil {
		return nil, err
	}
	return s.audits.GetByPaymentReference(reference)
}

// ListAmountMismatches returns recent audits where the gateway settled a
// different amount than we charged. These feed the manual review queue.
func (s *ReconciliationService) ListAmountMismatches(limit int) ([]*models.PaymentAudit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.audits.GetAmountMismatches(limit)
}

// reconcile applies a gateway verification result to local state
func (s *ReconciliationService) reconcile(
	payment *models.Payment,
	transactionID string,
	verification *FlutterwaveVerification,
	source models.PaymentEventSource,
	start time.Time,
) (*models.VerifyPaymentResponse, error) {
	respAudit := models.NewPaymentAudit(models.PaymentEventVerifyResponse, source).
		SetPaymentReference(payment.Reference).
		SetTransactionID(transactionID).
		SetPaymentStatus(verification.Data.Status).
		SetProcessingTime(start)
	match := respAudit.SetAmounts(payment.Amount, verification.Data.Amount, verification.Data.Currency)
	if err := s.audits.Log(respAudit); err != nil {
		return nil, err
	}

	successful := verification.Status == "success" && verification.Data.Status == "successful"

	if successful && !match {
		mismatchAudit := models.NewPaymentAudit(models.PaymentEventReconciliationMismatch, source).
			SetPaymentReference(payment.Reference).
			SetTransactionID(transactionID)
		mismatchAudit.SetAmounts(payment.Amount, verification.Data.Amount, verification.Data.Currency)
		if err := s.audits.Log(mismatchAudit); err != nil {
			return nil, err
		}

		s.logger.WithFields(logrus.Fields{
			"reference":       payment.Reference,
			"expected_amount": payment.Amount,
			"received_amount": verification.Data.Amount,
		}).Error("Amount mismatch on successful gateway transaction")

		return nil, &models.GatewayError{
			Op:  "verify",
			Err: fmt.Errorf("amount mismatch: charged %.2f, gateway settled %.2f", payment.Amount, verification.Data.Amount),
		}
	}

	if successful {
		confirmed, already, err := s.payments.ConfirmSuccess(payment.Reference, transactionID)
		if err != nil {
			failAudit := models.NewPaymentAudit(models.PaymentEventBookingConfirmFailed, source).
				SetPaymentReference(payment.Reference).
				SetTransactionID(transactionID).
				SetError(err.Error(), nil)
			s.audits.Log(failAudit)
			return nil, err
		}

		eventType := models.PaymentEventBookingConfirmed
		confirmAudit := models.NewPaymentAudit(eventType, source).
			SetPaymentReference(payment.Reference).
			SetBookingReference(bookingRefFromMetadata(payment)).
			SetTransactionID(transactionID)
		if already {
			confirmAudit.MarkAsDuplicate()
		}
		if err := s.audits.Log(confirmAudit); err != nil {
			return nil, err
		}

		if !already {
			s.logger.WithFields(logrus.Fields{
				"reference":      payment.Reference,
				"transaction_id": transactionID,
			}).Info("Payment confirmed, booking paid")
		}

		return &models.VerifyPaymentResponse{
			Reference:     confirmed.Reference,
			TransactionID: transactionID,
			Amount:        confirmed.Amount,
			Currency:      confirmed.Currency,
			Status:        string(confirmed.Status),
		}, nil
	}

	if verification.Data.Status == "failed" || verification.Data.Status == "cancelled" {
		if err := s.payments.MarkFailed(payment.Reference, transactionID); err != nil {
			return nil, err
		}

		failAudit := models.NewPaymentAudit(models.PaymentEventFailed, source).
			SetPaymentReference(payment.Reference).
			SetTransactionID(transactionID).
			SetPaymentStatus(verification.Data.Status)
		if err := s.audits.Log(failAudit); err != nil {
			return nil, err
		}

		return &models.VerifyPaymentResponse{
			Reference:     payment.Reference,
			TransactionID: transactionID,
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			Status:        string(models.PaymentStatusFailed),
		}, nil
	}

	// Still pending at the gateway; report as-is without touching local state
	return &models.VerifyPaymentResponse{
		Reference:     payment.Reference,
		TransactionID: transactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Status:        string(models.PaymentStatusPending),
	}, nil
}

func (s *ReconciliationService) auditGatewayError(paymentRef, bookingRef string, err error, start time.Time) {
	audit := models.NewPaymentAudit(models.PaymentEventError, models.PaymentSourceFlutterwaveAPI).
		SetError(err.Error(), nil).
		SetProcessingTime(start)
	if paymentRef != "" {
		audit.SetPaymentReference(paymentRef)
	}
	if bookingRef != "" {
		audit.SetBookingReference(bookingRef)
	}
	if logErr := s.audits.Log(audit); logErr != nil {
		s.logger.WithError(logErr).Error("Failed to audit gateway error")
	}
}

func bookingRefFromMetadata(payment *models.Payment) string {
	if payment.Metadata == nil {
		return ""
	}
	if ref, ok := payment.Metadata["booking_reference"].(string); ok {
		return ref
	}
	return ""
}

// amountsMatch compares monetary values with a one-cent tolerance
func amountsMatch(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}

var _ PaymentGateway = (*FlutterwaveService)(nil)
var _ PaymentStore = (*database.PaymentRepository)(nil)
var _ AuditLog = (*database.PaymentAuditRepository)(nil)
var _ TripSource = (*database.TripRepository)(nil)
var _ BookingStore = (*database.BookingRepository)(nil)
