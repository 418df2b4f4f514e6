package models

import (
	"time"
)

// PaymentStatus represents the state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusSuccessful    PaymentStatus = "successful"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusCancelled     PaymentStatus = "cancelled"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
)

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
	PaymentMethodCash        PaymentMethod = "cash"
)

// ValidPaymentMethod reports whether m is one of the accepted methods
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodMobileMoney, PaymentMethodCash:
		return true
	}
	return false
}

// Payment is tied to exactly one booking. Reference is our tx_ref sent to the
// gateway; GatewayTransactionID is the provider's id and doubles as the
// idempotency key for reconciliation.
type Payment struct {
	BookingID            int64         `json:"booking_id" db:"booking_id"`
	ID                   int64         `json:"id" db:"id"`
	Reference            string        `json:"reference" db:"reference"`
	Amount               float64       `json:"amount" db:"amount"`
	Currency             string        `json:"currency" db:"currency"`
	Method               PaymentMethod `json:"method" db:"method"`
	Status               PaymentStatus `json:"status" db:"status"`
	GatewayTransactionID *string       `json:"gateway_transaction_id,omitempty" db:"gateway_transaction_id"`
	CustomerEmail        *string       `json:"customer_email,omitempty" db:"customer_email"`
	CustomerPhone        *string       `json:"customer_phone,omitempty" db:"customer_phone"`
	Metadata             JSONB         `json:"metadata,omitempty" db:"metadata"`
	VerifiedAt           *time.Time    `json:"verified_at,omitempty" db:"verified_at"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// InitializePaymentRequest is the payload for POST /payments/initialize
type InitializePaymentRequest struct {
	Amount           float64       `json:"amount" binding:"required"`
	Customer         ContactInput  `json:"customer" binding:"required"`
	BookingReference string        `json:"booking_reference" binding:"required"`
	Method           PaymentMethod `json:"method" binding:"required"`
	Operator         *string       `json:"operator,omitempty"`
	Description      *string       `json:"description,omitempty"`
}

// InitializePaymentResponse is returned after a successful gateway handshake
type InitializePaymentResponse struct {
	Reference        string `json:"reference"`
	PaymentLink      string `json:"payment_link,omitempty"`
	RequiresApproval bool   `json:"requires_approval,omitempty"`
	PaymentID        int64  `json:"payment_id"`
}

// VerifyPaymentRequest is the payload for POST /payments/verify
type VerifyPaymentRequest struct {
	Reference     string `json:"reference" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
}

// VerifyPaymentResponse summarizes a verified payment
type VerifyPaymentResponse struct {
	Reference     string  `json:"reference"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
}
