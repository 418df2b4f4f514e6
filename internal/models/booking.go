package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// BookingPaymentStatus represents the payment state carried on the booking row
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentFailed   BookingPaymentStatus = "failed"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

// MaxPassengersPerBooking caps the number of seats one booking may reserve
const MaxPassengersPerBooking = 4

// CancellationWindow is the minimum time before departure for a cancellation
const CancellationWindow = 24 * time.Hour

// JSONB is a custom type for handling JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Booking represents a customer's reservation of seats on a Trip.
// PassengerCount seats were decremented from the trip at creation time and are
// restored exactly once if the booking is cancelled.
type Booking struct {
	ID                   int64                `json:"id" db:"id"`
	Reference            string               `json:"reference" db:"reference"`
	UserID               *uuid.UUID           `json:"user_id,omitempty" db:"user_id"`
	TripID               int64                `json:"trip_id" db:"trip_id"`
	ContactName          string               `json:"contact_name" db:"contact_name"`
	ContactEmail         string               `json:"contact_email" db:"contact_email"`
	ContactPhone         string               `json:"contact_phone" db:"contact_phone"`
	TotalAmount          float64              `json:"total_amount" db:"total_amount"`
	PassengerCount       int                  `json:"passenger_count" db:"passenger_count"`
	SeatNumbers          *string              `json:"seat_numbers,omitempty" db:"seat_numbers"`
	Status               BookingStatus        `json:"status" db:"status"`
	PaymentStatus        BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentMethod        *string              `json:"payment_method,omitempty" db:"payment_method"`
	PaymentReference     *string              `json:"payment_reference,omitempty" db:"payment_reference"`
	GatewayTransactionID *string              `json:"gateway_transaction_id,omitempty" db:"gateway_transaction_id"`
	Notes                *string              `json:"notes,omitempty" db:"notes"`
	ConfirmedAt          *time.Time           `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CancelledAt          *time.Time           `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt            time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at" db:"updated_at"`

	// Joined data, not stored on the bookings row
	Passengers []Passenger `json:"passengers,omitempty" db:"-"`
	Trip       *Trip       `json:"trip,omitempty" db:"-"`
}

// BookingListItem is the flattened row returned by the my-bookings listing
type BookingListItem struct {
	ID             int64                `json:"id" db:"id"`
	Reference      string               `json:"reference" db:"reference"`
	Origin         string               `json:"origin" db:"origin"`
	Destination    string               `json:"destination" db:"destination"`
	Departure      time.Time            `json:"departure" db:"departure"`
	PassengerCount int                  `json:"passenger_count" db:"passenger_count"`
	TotalAmount    float64              `json:"total_amount" db:"total_amount"`
	Status         BookingStatus        `json:"status" db:"status"`
	PaymentStatus  BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
}

// IDType represents the kind of identity document a passenger travels with
type IDType string

const (
	IDTypeCNI            IDType = "cni"
	IDTypePassport       IDType = "passport"
	IDTypeDrivingLicense IDType = "driving_license"
)

// Passenger belongs to exactly one booking
type Passenger struct {
	ID         int64     `json:"id" db:"id"`
	BookingID  int64     `json:"booking_id" db:"booking_id"`
	FullName   string    `json:"full_name" db:"full_name"`
	IDType     IDType    `json:"id_type" db:"id_type"`
	IDNumber   string    `json:"id_number" db:"id_number"`
	SeatNumber *string   `json:"seat_number,omitempty" db:"seat_number"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// PassengerInput is the caller-supplied passenger data for a new booking
type PassengerInput struct {
	FullName string `json:"full_name" binding:"required"`
	IDType   IDType `json:"id_type"`
	IDNumber string `json:"id_number" binding:"required"`
}

// ContactInput is the caller-supplied contact for a new booking
type ContactInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// CreateBookingRequest is the payload for POST /bookings
type CreateBookingRequest struct {
	TripID      int64            `json:"trip_id" binding:"required"`
	Contact     ContactInput     `json:"contact" binding:"required"`
	Passengers  []PassengerInput `json:"passengers" binding:"required"`
	SeatNumbers []string         `json:"seat_numbers,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// Validate checks structural constraints the coordinator enforces before
// touching the database. Email/phone formats are checked separately by the
// contact validator.
func (r *CreateBookingRequest) Validate() error {
	if r.TripID <= 0 {
		return &ValidationError{Field: "trip_id", Message: "valid trip id required"}
	}
	if len(r.Passengers) == 0 {
		return &ValidationError{Field: "passengers", Message: "at least one passenger required"}
	}
	if len(r.Passengers) > MaxPassengersPerBooking {
		return &ValidationError{
			Field:   "passengers",
			Message: fmt.Sprintf("at most %d passengers per booking", MaxPassengersPerBooking),
		}
	}
	for i, p := range r.Passengers {
		if strings.TrimSpace(p.FullName) == "" {
			return &ValidationError{Field: fmt.Sprintf("passengers[%d].full_name", i), Message: "passenger name required"}
		}
		if strings.TrimSpace(p.IDNumber) == "" {
			return &ValidationError{Field: fmt.Sprintf("passengers[%d].id_number", i), Message: "identity document number required"}
		}
		switch p.IDType {
		case "", IDTypeCNI, IDTypePassport, IDTypeDrivingLicense:
		default:
			return &ValidationError{Field: fmt.Sprintf("passengers[%d].id_type", i), Message: "unknown identity document type"}
		}
	}
	if len(r.SeatNumbers) > 0 && len(r.SeatNumbers) != len(r.Passengers) {
		return &ValidationError{Field: "seat_numbers", Message: "seat numbers must match passenger count"}
	}
	return nil
}

// CancelBookingResult is the outcome of a cancellation
type CancelBookingResult struct {
	Reference      string `json:"reference"`
	RefundEligible bool   `json:"refund_eligible"`
}
