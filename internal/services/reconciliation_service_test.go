package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"testing"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "test-webhook-secret"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeGateway implements PaymentGateway with canned responses
type fakeGateway struct {
	verification *FlutterwaveVerification
	verifyErr    error
	initResp     *FlutterwaveInitResponse
	initErr      error
	chargeResp   *FlutterwaveChargeResponse
	chargeErr    error
	verifyCalls  int
}

func (g *fakeGateway) GenerateReference() (string, error) {
	return "PAY-20260829-DEADBEEF", nil
}

func (g *fakeGateway) InitializePayment(params *InitializePaymentParams) (*FlutterwaveInitResponse, error) {
	return g.initResp, g.initErr
}

func (g *fakeGateway) ChargeMobileMoney(params *InitializePaymentParams) (*FlutterwaveChargeResponse, error) {
	return g.chargeResp, g.chargeErr
}

func (g *fakeGateway) VerifyTransaction(transactionID string) (*FlutterwaveVerification, error) {
	g.verifyCalls++
	return g.verification, g.verifyErr
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return signature == hex.EncodeToString(mac.Sum(nil))
}

func (g *fakeGateway) ParseWebhookEvent(body []byte) (*FlutterwaveWebhookEvent, error) {
	svc := &FlutterwaveService{}
	return svc.ParseWebhookEvent(body)
}

// fakePaymentStore implements PaymentStore in memory
type fakePaymentStore struct {
	payments     map[string]*models.Payment
	confirmCalls int
	failedCalls  int
	createdCalls int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*models.Payment)}
}

func (s *fakePaymentStore) CreatePending(payment *models.Payment) error {
	s.createdCalls++
	payment.ID = int64(len(s.payments) + 1)
	s.payments[payment.Reference] = payment
	return nil
}

func (s *fakePaymentStore) GetByReference(reference string) (*models.Payment, error) {
	payment, ok := s.payments[reference]
	if !ok {
		return nil, models.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *fakePaymentStore) ConfirmSuccess(reference, transactionID string) (*models.Payment, bool, error) {
	s.confirmCalls++
	payment, ok := s.payments[reference]
	if !ok {
		return nil, false, models.ErrPaymentNotFound
	}
	if payment.Status == models.PaymentStatusSuccessful {
		copied := *payment
		return &copied, true, nil
	}
	payment.Status = models.PaymentStatusSuccessful
	payment.GatewayTransactionID = &transactionID
	copied := *payment
	return &copied, false, nil
}

func (s *fakePaymentStore) MarkFailed(reference, transactionID string) error {
	s.failedCalls++
	if payment, ok := s.payments[reference]; ok && payment.Status == models.PaymentStatusPending {
		payment.Status = models.PaymentStatusFailed
	}
	return nil
}

func (s *fakePaymentStore) HasSuccessfulTransaction(transactionID string) (bool, error) {
	for _, payment := range s.payments {
		if payment.Status == models.PaymentStatusSuccessful &&
			payment.GatewayTransactionID != nil && *payment.GatewayTransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

// fakeBookingStore implements BookingStore with a single booking
type fakeBookingStore struct {
	booking *models.Booking
}

func (s *fakeBookingStore) CreateBooking(req *models.CreateBookingRequest, userID *uuid.UUID) (*models.Booking, error) {
	return s.booking, nil
}

func (s *fakeBookingStore) GetByReference(reference string) (*models.Booking, error) {
	if s.booking == nil || s.booking.Reference != reference {
		return nil, models.ErrBookingNotFound
	}
	return s.booking, nil
}

func (s *fakeBookingStore) ListByUser(userID uuid.UUID, limit, offset int) ([]models.BookingListItem, error) {
	return nil, nil
}

func (s *fakeBookingStore) Cancel(reference string, userID uuid.UUID) (*models.CancelBookingResult, error) {
	return nil, models.ErrNotCancellable
}

// fakeAuditLog records audits in memory
type fakeAuditLog struct {
	entries    []*models.PaymentAudit
	duplicates map[string]bool
}

func newFakeAuditLog() *fakeAuditLog {
	return &fakeAuditLog{duplicates: make(map[string]bool)}
}

func (l *fakeAuditLog) Log(audit *models.PaymentAudit) error {
	l.entries = append(l.entries, audit)
	return nil
}

func (l *fakeAuditLog) CheckDuplicate(transactionID string, eventType models.PaymentEventType, idempotencyKey string) (bool, error) {
	if idempotencyKey == "" {
		idempotencyKey = fmt.Sprintf("%s-%s", transactionID, eventType)
	}
	return l.duplicates[idempotencyKey], nil
}

func (l *fakeAuditLog) GetByPaymentReference(reference string) ([]*models.PaymentAudit, error) {
	var matched []*models.PaymentAudit
	for _, entry := range l.entries {
		if entry.PaymentReference != nil && *entry.PaymentReference == reference {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (l *fakeAuditLog) GetAmountMismatches(limit int) ([]*models.PaymentAudit, error) {
	var matched []*models.PaymentAudit
	for _, entry := range l.entries {
		if entry.AmountsMatch != nil && !*entry.AmountsMatch && len(matched) < limit {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (l *fakeAuditLog) eventTypes() []models.PaymentEventType {
	types := make([]models.PaymentEventType, 0, len(l.entries))
	for _, entry := range l.entries {
		types = append(types, entry.EventType)
	}
	return types
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verification(status, dataStatus string, amount float64) *FlutterwaveVerification {
	v := &FlutterwaveVerification{Status: status}
	v.Data.ID = 9174521
	v.Data.TxRef = "PAY-20260829-DEADBEEF"
	v.Data.Status = dataStatus
	v.Data.Amount = amount
	v.Data.Currency = "XAF"
	return v
}

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:        1,
		BookingID: 42,
		Reference: "PAY-20260829-DEADBEEF",
		Amount:    13000,
		Currency:  "XAF",
		Method:    models.PaymentMethodCard,
		Status:    models.PaymentStatusPending,
		Metadata:  models.JSONB{"booking_reference": "BOOK-A1B2C3D4"},
	}
}

func newTestService(gateway *fakeGateway, payments *fakePaymentStore, bookings *fakeBookingStore, audits *fakeAuditLog) *ReconciliationService {
	if bookings == nil {
		bookings = &fakeBookingStore{}
	}
	return NewReconciliationService(gateway, payments, bookings, audits, testLogger())
}

func TestInitializePayment(t *testing.T) {
	booking := &models.Booking{
		ID:            42,
		Reference:     "BOOK-A1B2C3D4",
		Status:        models.BookingStatusPending,
		PaymentStatus: models.BookingPaymentPending,
		TotalAmount:   13000,
	}

	validRequest := func() *models.InitializePaymentRequest {
		return &models.InitializePaymentRequest{
			BookingReference: "BOOK-A1B2C3D4",
			Amount:           13000,
			Method:           models.PaymentMethodCard,
			Customer: models.ContactInput{
				Name:  "Marie Ngono",
				Email: "marie@example.com",
				Phone: "677123456",
			},
		}
	}

	t.Run("Hosted Payment Link", func(t *testing.T) {
		gateway := &fakeGateway{initResp: &FlutterwaveInitResponse{Status: "success"}}
		gateway.initResp.Data.Link = "https://checkout.flutterwave.com/pay/abc123"
		payments := newFakePaymentStore()
		audits := newFakeAuditLog()
		svc := newTestService(gateway, payments, &fakeBookingStore{booking: booking}, audits)

		resp, err := svc.InitializePayment(validRequest(), RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, "PAY-20260829-DEADBEEF", resp.Reference)
		assert.Equal(t, "https://checkout.flutterwave.com/pay/abc123", resp.PaymentLink)
		assert.False(t, resp.RequiresApproval)
		assert.Equal(t, 1, payments.createdCalls)

		stored := payments.payments["PAY-20260829-DEADBEEF"]
		require.NotNil(t, stored)
		assert.Equal(t, models.PaymentStatusPending, stored.Status)
		assert.Equal(t, "BOOK-A1B2C3D4", stored.Metadata["booking_reference"])
	})

	t.Run("Mobile Money Requires Approval", func(t *testing.T) {
		gateway := &fakeGateway{chargeResp: &FlutterwaveChargeResponse{Status: "success"}}
		gateway.chargeResp.Data.ID = 9174521
		gateway.chargeResp.Meta.Authorization.Redirect = "https://checkout.flutterwave.com/captcha/verify"
		payments := newFakePaymentStore()
		svc := newTestService(gateway, payments, &fakeBookingStore{booking: booking}, newFakeAuditLog())

		req := validRequest()
		req.Method = models.PaymentMethodMobileMoney
		resp, err := svc.InitializePayment(req, RequestMeta{})
		require.NoError(t, err)
		assert.True(t, resp.RequiresApproval)

		stored := payments.payments["PAY-20260829-DEADBEEF"]
		require.NotNil(t, stored)
		require.NotNil(t, stored.GatewayTransactionID)
		assert.Equal(t, "9174521", *stored.GatewayTransactionID)
	})

	t.Run("Cash Rejected", func(t *testing.T) {
		svc := newTestService(&fakeGateway{}, newFakePaymentStore(), &fakeBookingStore{booking: booking}, newFakeAuditLog())

		req := validRequest()
		req.Method = models.PaymentMethodCash
		_, err := svc.InitializePayment(req, RequestMeta{})

		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "method", vErr.Field)
	})

	t.Run("Amount Mismatch Rejected", func(t *testing.T) {
		payments := newFakePaymentStore()
		svc := newTestService(&fakeGateway{}, payments, &fakeBookingStore{booking: booking}, newFakeAuditLog())

		req := validRequest()
		req.Amount = 6500
		_, err := svc.InitializePayment(req, RequestMeta{})

		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "amount", vErr.Field)
		assert.Equal(t, 0, payments.createdCalls)
	})

	t.Run("Booking Not Awaiting Payment", func(t *testing.T) {
		paid := *booking
		paid.PaymentStatus = models.BookingPaymentPaid
		svc := newTestService(&fakeGateway{}, newFakePaymentStore(), &fakeBookingStore{booking: &paid}, newFakeAuditLog())

		_, err := svc.InitializePayment(validRequest(), RequestMeta{})

		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("Gateway Failure Leaves No Payment Row", func(t *testing.T) {
		gateway := &fakeGateway{initErr: &models.GatewayError{Op: "initialize", Err: fmt.Errorf("timeout")}}
		payments := newFakePaymentStore()
		svc := newTestService(gateway, payments, &fakeBookingStore{booking: booking}, newFakeAuditLog())

		_, err := svc.InitializePayment(validRequest(), RequestMeta{})

		var gErr *models.GatewayError
		require.ErrorAs(t, err, &gErr)
		assert.Equal(t, 0, payments.createdCalls)
	})
}

func TestVerifyPayment(t *testing.T) {
	t.Run("Successful Verification Confirms Booking", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "successful", 13000)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		audits := newFakeAuditLog()
		svc := newTestService(gateway, payments, nil, audits)

		resp, err := svc.VerifyPayment("PAY-20260829-DEADBEEF", "9174521", RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, string(models.PaymentStatusSuccessful), resp.Status)
		assert.Equal(t, 1, payments.confirmCalls)
		assert.Contains(t, audits.eventTypes(), models.PaymentEventBookingConfirmed)
	})

	t.Run("Amount Mismatch Blocks Confirmation", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "successful", 6500)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		audits := newFakeAuditLog()
		svc := newTestService(gateway, payments, nil, audits)

		_, err := svc.VerifyPayment("PAY-20260829-DEADBEEF", "9174521", RequestMeta{})

		var gErr *models.GatewayError
		require.ErrorAs(t, err, &gErr)
		assert.Equal(t, 0, payments.confirmCalls)
		assert.Contains(t, audits.eventTypes(), models.PaymentEventReconciliationMismatch)
	})

	t.Run("Failed Charge Marks Payment Failed", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "failed", 13000)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		resp, err := svc.VerifyPayment("PAY-20260829-DEADBEEF", "9174521", RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, string(models.PaymentStatusFailed), resp.Status)
		assert.Equal(t, 1, payments.failedCalls)
		assert.Equal(t, 0, payments.confirmCalls)
	})

	t.Run("Pending At Gateway Leaves State Untouched", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "pending", 13000)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		resp, err := svc.VerifyPayment("PAY-20260829-DEADBEEF", "9174521", RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, string(models.PaymentStatusPending), resp.Status)
		assert.Equal(t, 0, payments.confirmCalls)
		assert.Equal(t, 0, payments.failedCalls)
	})

	t.Run("Unknown Payment", func(t *testing.T) {
		svc := newTestService(&fakeGateway{}, newFakePaymentStore(), nil, newFakeAuditLog())

		_, err := svc.VerifyPayment("PAY-MISSING", "9174521", RequestMeta{})
		assert.ErrorIs(t, err, models.ErrPaymentNotFound)
	})
}

func TestHandleWebhook(t *testing.T) {
	chargeCompleted := []byte(`{"event":"charge.completed","data":{"id":9174521,"tx_ref":"PAY-20260829-DEADBEEF","status":"successful","amount":13000,"currency":"XAF"}}`)

	t.Run("Invalid Signature Changes Nothing", func(t *testing.T) {
		gateway := &fakeGateway{}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		audits := newFakeAuditLog()
		svc := newTestService(gateway, payments, nil, audits)

		err := svc.HandleWebhook(chargeCompleted, "bad-signature", RequestMeta{})
		assert.ErrorIs(t, err, models.ErrInvalidSignature)
		assert.Empty(t, audits.entries)
		assert.Equal(t, 0, gateway.verifyCalls)
		assert.Equal(t, 0, payments.confirmCalls)
	})

	t.Run("Charge Completed Confirms After Reverification", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "successful", 13000)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		audits := newFakeAuditLog()
		svc := newTestService(gateway, payments, nil, audits)

		err := svc.HandleWebhook(chargeCompleted, signBody(chargeCompleted), RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, 1, gateway.verifyCalls)
		assert.Equal(t, 1, payments.confirmCalls)
		assert.Contains(t, audits.eventTypes(), models.PaymentEventWebhookReceived)
		assert.Contains(t, audits.eventTypes(), models.PaymentEventBookingConfirmed)
	})

	t.Run("Replay Acknowledged Without Reconfirming", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "successful", 13000)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		audits := newFakeAuditLog()
		svc := newTestService(gateway, payments, nil, audits)

		signature := signBody(chargeCompleted)
		require.NoError(t, svc.HandleWebhook(chargeCompleted, signature, RequestMeta{}))

		audits.duplicates["9174521-webhook_received"] = true
		require.NoError(t, svc.HandleWebhook(chargeCompleted, signature, RequestMeta{}))

		// The second delivery is audited as a duplicate and acknowledged
		// without another gateway round trip or confirmation attempt
		assert.Equal(t, 1, gateway.verifyCalls)
		assert.Equal(t, 1, payments.confirmCalls)
		assert.Equal(t, models.PaymentStatusSuccessful, payments.payments["PAY-20260829-DEADBEEF"].Status)

		duplicateMarked := 0
		for _, entry := range audits.entries {
			if entry.IsDuplicate {
				duplicateMarked++
			}
		}
		assert.Equal(t, 1, duplicateMarked)
	})

	t.Run("Unknown Event Acknowledged And Ignored", func(t *testing.T) {
		body := []byte(`{"event":"transfer.completed","data":{"id":555,"tx_ref":"PAY-20260829-DEADBEEF","status":"successful"}}`)
		gateway := &fakeGateway{}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		err := svc.HandleWebhook(body, signBody(body), RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, 0, gateway.verifyCalls)
		assert.Equal(t, 0, payments.confirmCalls)
	})

	t.Run("Unknown Event With Foreign Data Shape Acknowledged", func(t *testing.T) {
		// Transfer events carry a bank reference instead of tx_ref; they
		// must still be acknowledged, not rejected
		body := []byte(`{"event":"transfer.completed","data":{"id":555,"reference":"GEX-TRF-001","status":"SUCCESSFUL"}}`)
		gateway := &fakeGateway{}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		audits := newFakeAuditLog()
		svc := newTestService(gateway, payments, nil, audits)

		err := svc.HandleWebhook(body, signBody(body), RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, 0, gateway.verifyCalls)
		assert.Equal(t, 0, payments.confirmCalls)
		assert.Empty(t, audits.entries)
	})

	t.Run("Malformed Payload Rejected", func(t *testing.T) {
		body := []byte(`{"event":"charge.completed","data":{}}`)
		svc := newTestService(&fakeGateway{}, newFakePaymentStore(), nil, newFakeAuditLog())

		err := svc.HandleWebhook(body, signBody(body), RequestMeta{})

		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestGetPaymentStatus(t *testing.T) {
	pendingWithTransaction := func() *models.Payment {
		payment := pendingPayment()
		txID := "9174521"
		payment.GatewayTransactionID = &txID
		return payment
	}

	t.Run("Pending With Transaction Refreshes From Gateway", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "successful", 13000)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingWithTransaction()
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		payment, err := svc.GetPaymentStatus("PAY-20260829-DEADBEEF")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusSuccessful, payment.Status)
		assert.Equal(t, 1, gateway.verifyCalls)
		assert.Equal(t, 1, payments.confirmCalls)
	})

	t.Run("Settled As Failed Updates Local Row", func(t *testing.T) {
		gateway := &fakeGateway{verification: verification("success", "failed", 13000)}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingWithTransaction()
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		payment, err := svc.GetPaymentStatus("PAY-20260829-DEADBEEF")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, payment.Status)
		assert.Equal(t, 1, payments.failedCalls)
	})

	t.Run("Pending Without Transaction Served Locally", func(t *testing.T) {
		gateway := &fakeGateway{}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		payment, err := svc.GetPaymentStatus("PAY-20260829-DEADBEEF")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
		assert.Equal(t, 0, gateway.verifyCalls)
	})

	t.Run("Terminal Status Served Locally", func(t *testing.T) {
		gateway := &fakeGateway{}
		payments := newFakePaymentStore()
		settled := pendingWithTransaction()
		settled.Status = models.PaymentStatusSuccessful
		payments.payments["PAY-20260829-DEADBEEF"] = settled
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		payment, err := svc.GetPaymentStatus("PAY-20260829-DEADBEEF")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusSuccessful, payment.Status)
		assert.Equal(t, 0, gateway.verifyCalls)
	})

	t.Run("Gateway Unreachable Serves Local State", func(t *testing.T) {
		gateway := &fakeGateway{verifyErr: &models.GatewayError{Op: "verify", Err: fmt.Errorf("timeout")}}
		payments := newFakePaymentStore()
		payments.payments["PAY-20260829-DEADBEEF"] = pendingWithTransaction()
		svc := newTestService(gateway, payments, nil, newFakeAuditLog())

		payment, err := svc.GetPaymentStatus("PAY-20260829-DEADBEEF")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
	})

	t.Run("Unknown Reference", func(t *testing.T) {
		svc := newTestService(&fakeGateway{}, newFakePaymentStore(), nil, newFakeAuditLog())

		_, err := svc.GetPaymentStatus("PAY-MISSING")
		assert.ErrorIs(t, err, models.ErrPaymentNotFound)
	})
}

func TestAuditReviewQueries(t *testing.T) {
	gateway := &fakeGateway{verification: verification("success", "successful", 6500)}
	payments := newFakePaymentStore()
	payments.payments["PAY-20260829-DEADBEEF"] = pendingPayment()
	audits := newFakeAuditLog()
	svc := newTestService(gateway, payments, nil, audits)

	_, err := svc.VerifyPayment("PAY-20260829-DEADBEEF", "9174521", RequestMeta{})
	require.Error(t, err)

	t.Run("Audit Trail", func(t *testing.T) {
		trail, err := svc.GetAuditTrail("PAY-20260829-DEADBEEF")
		require.NoError(t, err)
		assert.NotEmpty(t, trail)
	})

	t.Run("Audit Trail Unknown Payment", func(t *testing.T) {
		_, err := svc.GetAuditTrail("PAY-MISSING")
		assert.ErrorIs(t, err, models.ErrPaymentNotFound)
	})

	t.Run("Mismatch Queue", func(t *testing.T) {
		mismatches, err := svc.ListAmountMismatches(0)
		require.NoError(t, err)
		assert.NotEmpty(t, mismatches)
	})
}

func TestAmountsMatch(t *testing.T) {
	assert.True(t, amountsMatch(13000, 13000))
	assert.True(t, amountsMatch(13000, 13000.005))
	assert.False(t, amountsMatch(13000, 13000.02))
	assert.False(t, amountsMatch(13000, 6500))
}
