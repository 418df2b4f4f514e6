package database

import (
	"fmt"
	"time"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry. Audit rows are append-only; nothing
// ever updates or deletes them.
func (r *PaymentAuditRepository) Log(audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, payment_reference, booking_reference,
			event_type, event_source,
			expected_amount, received_amount, currency, amounts_match,
			payment_status, gateway_transaction_id,
			request_payload, response_payload, raw_body,
			http_status_code, http_method, endpoint_url,
			error_message, error_code,
			processing_time_ms, is_duplicate, idempotency_key,
			ip_address, user_agent, device_info, correlation_id,
			created_at, processed_at
		) VALUES (
			$1, $2, $3,
			$4, $5,
			$6, $7, $8, $9,
			$10, $11,
			$12, $13, $14,
			$15, $16, $17,
			$18, $19,
			$20, $21, $22,
			$23, $24, $25, $26,
			$27, $28
		)`

	_, err := r.db.Exec(query,
		audit.ID, audit.PaymentReference, audit.BookingReference,
		audit.EventType, audit.EventSource,
		audit.ExpectedAmount, audit.ReceivedAmount, audit.Currency, audit.AmountsMatch,
		audit.PaymentStatus, audit.GatewayTransactionID,
		audit.RequestPayload, audit.ResponsePayload, audit.RawBody,
		audit.HTTPStatusCode, audit.HTTPMethod, audit.EndpointURL,
		audit.ErrorMessage, audit.ErrorCode,
		audit.ProcessingTimeMs, audit.IsDuplicate, audit.IdempotencyKey,
		audit.IPAddress, audit.UserAgent, audit.DeviceInfo, audit.CorrelationID,
		audit.CreatedAt, audit.ProcessedAt,
	)

	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":        audit.EventType,
			"payment_reference": audit.PaymentReference,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":          audit.ID,
		"event_type":        audit.EventType,
		"payment_reference": audit.PaymentReference,
	}).Debug("Payment audit logged")

	return nil
}

// CheckDuplicate checks if an event with this idempotency key has already
// been processed
func (r *PaymentAuditRepository) CheckDuplicate(transactionID string, eventType models.PaymentEventType, idempotencyKey string) (bool, error) {
	if idempotencyKey == "" {
		idempotencyKey = fmt.Sprintf("%s-%s", transactionID, eventType)
	}

	var count int
	query := `
		SELECT COUNT(*) FROM payment_audits
		WHERE gateway_transaction_id = $1
		AND event_type = $2
		AND idempotency_key = $3
		AND is_duplicate = FALSE`

	err := r.db.Get(&count, query, transactionID, eventType, idempotencyKey)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}

	return count > 0, nil
}

// GetByPaymentReference retrieves all audit entries for a payment reference
func (r *PaymentAuditRepository) GetByPaymentReference(reference string) ([]*models.PaymentAudit, error) {
	var audits []*models.PaymentAudit
	query := `
		SELECT * FROM payment_audits
		WHERE payment_reference = $1
		ORDER BY created_at ASC`

	err := r.db.Select(&audits, query, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get audits by payment reference: %w", err)
	}

	return audits, nil
}

// GetAmountMismatches retrieves audits where the gateway reported a different
// amount than we charged. These rows feed the fraud review queue.
func (r *PaymentAuditRepository) GetAmountMismatches(limit int) ([]*models.PaymentAudit, error) {
	var audits []*models.PaymentAudit
	query := `
		SELECT * FROM payment_audits
		WHERE amounts_match = FALSE
		ORDER BY created_at DESC
		LIMIT $1`

	err := r.db.Select(&audits, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get amount mismatches: %w", err)
	}

	return audits, nil
}
