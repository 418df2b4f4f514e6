package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `
	id, reference, user_id, trip_id,
	contact_name, contact_email, contact_phone,
	total_amount, passenger_count, seat_numbers,
	status, payment_status, payment_method, payment_reference,
	gateway_transaction_id, notes,
	confirmed_at, cancelled_at, created_at, updated_at`

// BookingRepository handles booking database operations
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GenerateBookingReference generates a unique booking reference
// Format: BOOK-XXXXXXXX (8 char hex)
// Example: BOOK-A1B2C3D4
func (r *BookingRepository) GenerateBookingReference() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		newRef := "BOOK-" + strings.ToUpper(hex.EncodeToString(randomBytes))

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE reference = $1`, newRef)
		if err != nil {
			return "", wrapStoreErr(err)
		}

		if count == 0 {
			return newRef, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after 10 attempts")
}

// CreateBooking atomically reserves seats on a trip. The trip row is locked
// until commit so the availability check and the decrement cannot be split by
// a concurrent booking. On any error the transaction rolls back and no seats
// are held.
func (r *BookingRepository) CreateBooking(req *models.CreateBookingRequest, userID *uuid.UUID) (*models.Booking, error) {
	reference, err := r.GenerateBookingReference()
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer tx.Rollback()

	trip, err := lockTripForBooking(tx, req.TripID)
	if err != nil {
		return nil, err
	}

	count := len(req.Passengers)
	if trip.AvailableSeats < count {
		return nil, models.ErrCapacityExceeded
	}

	totalAmount := trip.UnitFare() * float64(count)

	var seatNumbers *string
	if len(req.SeatNumbers) > 0 {
		joined := strings.Join(req.SeatNumbers, ",")
		seatNumbers = &joined
	}

	booking := &models.Booking{
		Reference:      reference,
		UserID:         userID,
		TripID:         trip.ID,
		ContactName:    req.Contact.Name,
		ContactEmail:   req.Contact.Email,
		ContactPhone:   req.Contact.Phone,
		TotalAmount:    totalAmount,
		PassengerCount: count,
		SeatNumbers:    seatNumbers,
		Status:         models.BookingStatusPending,
		PaymentStatus:  models.BookingPaymentPending,
		Notes:          req.Notes,
	}

	bookingQuery := `
		INSERT INTO bookings (
			reference, user_id, trip_id,
			contact_name, contact_email, contact_phone,
			total_amount, passenger_count, seat_numbers,
			status, payment_status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id, created_at, updated_at`

	err = tx.QueryRowx(bookingQuery,
		booking.Reference, booking.UserID, booking.TripID,
		booking.ContactName, booking.ContactEmail, booking.ContactPhone,
		booking.TotalAmount, booking.PassengerCount, booking.SeatNumbers,
		booking.Status, booking.PaymentStatus, booking.Notes,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	passengers := make([]models.Passenger, 0, count)
	for i, p := range req.Passengers {
		idType := p.IDType
		if idType == "" {
			idType = models.IDTypeCNI
		}

		var seat *string
		if len(req.SeatNumbers) > i {
			s := req.SeatNumbers[i]
			seat = &s
		}

		passenger := models.Passenger{
			BookingID:  booking.ID,
			FullName:   strings.TrimSpace(p.FullName),
			IDType:     idType,
			IDNumber:   strings.TrimSpace(p.IDNumber),
			SeatNumber: seat,
		}

		passengerQuery := `
			INSERT INTO passengers (booking_id, full_name, id_type, id_number, seat_number)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`

		err = tx.QueryRowx(passengerQuery,
			passenger.BookingID, passenger.FullName, passenger.IDType,
			passenger.IDNumber, passenger.SeatNumber,
		).Scan(&passenger.ID, &passenger.CreatedAt)
		if err != nil {
			return nil, wrapStoreErr(err)
		}

		passengers = append(passengers, passenger)
	}

	// Decrement happens under the same lock taken above
	_, err = tx.Exec(`
		UPDATE trips
		SET available_seats = available_seats - $1, updated_at = NOW()
		WHERE id = $2`,
		count, trip.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if err = tx.Commit(); err != nil {
		return nil, wrapStoreErr(err)
	}

	trip.AvailableSeats -= count
	booking.Passengers = passengers
	booking.Trip = trip
	return booking, nil
}

// GetByReference retrieves a booking with its passengers and trip
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	err := r.db.Get(booking, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, wrapStoreErr(err)
	}

	var passengers []models.Passenger
	err = r.db.Select(&passengers, `
		SELECT id, booking_id, full_name, id_type, id_number, seat_number, created_at
		FROM passengers
		WHERE booking_id = $1
		ORDER BY id`,
		booking.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	booking.Passengers = passengers

	trip := &models.Trip{}
	err = r.db.Get(trip, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, booking.TripID)
	if err == nil {
		booking.Trip = trip
	}

	return booking, nil
}

// ListByUser retrieves a user's bookings newest first
func (r *BookingRepository) ListByUser(userID uuid.UUID, limit, offset int) ([]models.BookingListItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT
			b.id, b.reference, t.origin, t.destination, t.departure,
			b.passenger_count, b.total_amount, b.status, b.payment_status,
			b.created_at
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`

	var bookings []models.BookingListItem
	if err := r.db.Select(&bookings, query, userID, limit, offset); err != nil {
		return nil, wrapStoreErr(err)
	}
	return bookings, nil
}

// cancellableRow carries the locked booking plus the trip departure needed
// for the window check
type cancellableRow struct {
	models.Booking
	TripDeparture time.Time `db:"trip_departure"`
}

// Cancel cancels a confirmed booking and releases its seats. The booking and
// trip rows are locked together so the seat restore pairs exactly once with
// the status flip. Owner mismatch, a booking not in the confirmed state and a
// departure closer than the cancellation window all surface as
// ErrNotCancellable.
func (r *BookingRepository) Cancel(reference string, userID uuid.UUID) (*models.CancelBookingResult, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer tx.Rollback()

	row := &cancellableRow{}
	query := `
		SELECT b.id, b.reference, b.user_id, b.trip_id, b.passenger_count,
		       b.status, b.payment_status, t.departure AS trip_departure
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.reference = $1
		FOR UPDATE OF b, t`

	err = tx.Get(row, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotCancellable
		}
		return nil, wrapStoreErr(err)
	}

	if row.UserID == nil || *row.UserID != userID {
		return nil, models.ErrNotCancellable
	}
	if row.Status != models.BookingStatusConfirmed {
		return nil, models.ErrNotCancellable
	}
	if time.Until(row.TripDeparture) < models.CancellationWindow {
		return nil, models.ErrNotCancellable
	}

	refundEligible := row.PaymentStatus == models.BookingPaymentPaid

	_, err = tx.Exec(`
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1`,
		row.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	// Seats come back exactly once; the row lock makes a double restore
	// impossible
	_, err = tx.Exec(`
		UPDATE trips
		SET available_seats = available_seats + $1, updated_at = NOW()
		WHERE id = $2`,
		row.PassengerCount, row.TripID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if refundEligible {
		_, err = tx.Exec(`
			UPDATE payments
			SET status = 'refund_pending', updated_at = NOW()
			WHERE booking_id = $1 AND status = 'successful'`,
			row.ID)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, wrapStoreErr(err)
	}

	return &models.CancelBookingResult{
		Reference:      row.Reference,
		RefundEligible: refundEligible,
	}, nil
}
