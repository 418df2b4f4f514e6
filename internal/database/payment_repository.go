package database

import (
	"database/sql"
	"errors"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `
	id, booking_id, reference, amount, currency, method, status,
	gateway_transaction_id, customer_email, customer_phone, metadata,
	verified_at, created_at, updated_at`

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreatePending records a payment attempt after the gateway handshake
func (r *PaymentRepository) CreatePending(payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			booking_id, reference, amount, currency, method, status,
			gateway_transaction_id, customer_email, customer_phone, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(query,
		payment.BookingID, payment.Reference, payment.Amount, payment.Currency,
		payment.Method, payment.Status, payment.GatewayTransactionID,
		payment.CustomerEmail, payment.CustomerPhone, payment.Metadata,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// GetByReference retrieves a payment by our tx_ref
func (r *PaymentRepository) GetByReference(reference string) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	err := r.db.Get(payment, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return payment, nil
}

// GetLatestByBookingID retrieves the most recent payment attempt for a booking
func (r *PaymentRepository) GetLatestByBookingID(bookingID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.Get(payment, query, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return payment, nil
}

// ConfirmSuccess flips a verified payment to successful and confirms its
// booking in one transaction. The payment row is locked first so concurrent
// verify and webhook calls for the same charge serialize here. Replays are
// no-ops: a payment already successful returns alreadyConfirmed without
// touching either row again.
func (r *PaymentRepository) ConfirmSuccess(reference, transactionID string) (payment *models.Payment, alreadyConfirmed bool, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, false, wrapStoreErr(err)
	}
	defer tx.Rollback()

	payment = &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1 FOR UPDATE`

	err = tx.Get(payment, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, models.ErrPaymentNotFound
		}
		return nil, false, wrapStoreErr(err)
	}

	if payment.Status == models.PaymentStatusSuccessful {
		// First confirmation wins; later deliveries of the same
		// transaction change nothing
		return payment, true, nil
	}

	err = tx.QueryRowx(`
		UPDATE payments
		SET status = 'successful',
		    gateway_transaction_id = $1,
		    verified_at = NOW(),
		    updated_at = NOW()
		WHERE id = $2
		RETURNING status, gateway_transaction_id, verified_at, updated_at`,
		transactionID, payment.ID,
	).Scan(&payment.Status, &payment.GatewayTransactionID, &payment.VerifiedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, false, wrapStoreErr(err)
	}

	_, err = tx.Exec(`
		UPDATE bookings
		SET payment_status = 'paid',
		    status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
		    confirmed_at = COALESCE(confirmed_at, NOW()),
		    payment_reference = $1,
		    gateway_transaction_id = $2,
		    updated_at = NOW()
		WHERE id = $3`,
		payment.Reference, transactionID, payment.BookingID)
	if err != nil {
		return nil, false, wrapStoreErr(err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, wrapStoreErr(err)
	}

	return payment, false, nil
}

// MarkFailed records a failed charge. Only pending payments move to failed so
// a late failure notification cannot undo a successful confirmation.
func (r *PaymentRepository) MarkFailed(reference, transactionID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return wrapStoreErr(err)
	}
	defer tx.Rollback()

	var paymentID, bookingID int64
	err = tx.QueryRowx(`
		UPDATE payments
		SET status = 'failed',
		    gateway_transaction_id = COALESCE($1, gateway_transaction_id),
		    updated_at = NOW()
		WHERE reference = $2 AND status = 'pending'
		RETURNING id, booking_id`,
		nullableString(transactionID), reference,
	).Scan(&paymentID, &bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already terminal, nothing to do
			return nil
		}
		return wrapStoreErr(err)
	}

	_, err = tx.Exec(`
		UPDATE bookings
		SET payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'`,
		bookingID)
	if err != nil {
		return wrapStoreErr(err)
	}

	if err = tx.Commit(); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// HasSuccessfulTransaction reports whether a gateway transaction id has
// already produced a successful payment. The webhook handler uses it to
// acknowledge replayed deliveries without another gateway verification.
func (r *PaymentRepository) HasSuccessfulTransaction(transactionID string) (bool, error) {
	var count int
	err := r.db.Get(&count, `
		SELECT COUNT(*) FROM payments
		WHERE gateway_transaction_id = $1 AND status = 'successful'`,
		transactionID)
	if err != nil {
		return false, wrapStoreErr(err)
	}
	return count > 0, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
