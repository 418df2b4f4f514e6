package services

import (
	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/generalexpress/booking-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TripSource provides read access to the trip inventory. The coordinator
// never mutates trips directly; seat counters only move inside booking
// transactions.
type TripSource interface {
	Search(filter models.TripFilter) ([]models.Trip, error)
	GetByID(id int64) (*models.Trip, error)
}

// BookingStore is the persistence surface the coordinator drives
type BookingStore interface {
	CreateBooking(req *models.CreateBookingRequest, userID *uuid.UUID) (*models.Booking, error)
	GetByReference(reference string) (*models.Booking, error)
	ListByUser(userID uuid.UUID, limit, offset int) ([]models.BookingListItem, error)
	Cancel(reference string, userID uuid.UUID) (*models.CancelBookingResult, error)
}

// BookingService coordinates booking lifecycle operations
type BookingService struct {
	trips    TripSource
	bookings BookingStore
	contacts *validator.ContactValidator
	logger   *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(trips TripSource, bookings BookingStore, logger *logrus.Logger) *BookingService {
	return &BookingService{
		trips:    trips,
		bookings: bookings,
		contacts: validator.NewContactValidator(),
		logger:   logger,
	}
}

// SearchTrips returns bookable trips matching the filter
func (s *BookingService) SearchTrips(filter models.TripFilter) ([]models.Trip, error) {
	return s.trips.Search(filter)
}

// GetTrip returns a single trip
func (s *BookingService) GetTrip(id int64) (*models.Trip, error) {
	return s.trips.GetByID(id)
}

// CreateBooking validates the request and reserves seats atomically. The
// returned booking is pending payment; no charge has been attempted yet.
func (s *BookingService) CreateBooking(req *models.CreateBookingRequest, userID *uuid.UUID) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email, err := s.contacts.ValidateEmail(req.Contact.Email)
	if err != nil {
		return nil, &models.ValidationError{Field: "contact.email", Message: err.Error()}
	}
	req.Contact.Email = email

	phone, err := s.contacts.ValidatePhone(req.Contact.Phone)
	if err != nil {
		return nil, &models.ValidationError{Field: "contact.phone", Message: err.Error()}
	}
	req.Contact.Phone = phone

	booking, err := s.bookings.CreateBooking(req, userID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"reference":       booking.Reference,
		"trip_id":         booking.TripID,
		"passenger_count": booking.PassengerCount,
		"total_amount":    booking.TotalAmount,
	}).Info("Booking created")

	return booking, nil
}

// GetBooking retrieves a booking by reference. Bookings owned by an account
// are only visible to that account; guest bookings resolve by reference
// alone.
func (s *BookingService) GetBooking(reference string, userID *uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByReference(reference)
	if err != nil {
		return nil, err
	}

	if booking.UserID != nil {
		if userID == nil || *booking.UserID != *userID {
			return nil, models.ErrBookingNotFound
		}
	}

	return booking, nil
}

// ListMyBookings returns the caller's bookings newest first
func (s *BookingService) ListMyBookings(userID uuid.UUID, limit, offset int) ([]models.BookingListItem, error) {
	return s.bookings.ListByUser(userID, limit, offset)
}

// CancelBooking cancels an owned booking inside the cancellation window and
// releases its seats. RefundEligible on the result tells the caller whether
// a paid amount moved to the refund queue.
func (s *BookingService) CancelBooking(reference string, userID uuid.UUID) (*models.CancelBookingResult, error) {
	result, err := s.bookings.Cancel(reference, userID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"reference":       result.Reference,
		"refund_eligible": result.RefundEligible,
	}).Info("Booking cancelled")

	return result, nil
}
