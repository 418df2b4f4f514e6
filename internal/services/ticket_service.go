package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/generalexpress/booking-backend/internal/database"
	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
)

// PaymentLookup resolves the payment behind a paid booking for the ticket
// footer
type PaymentLookup interface {
	GetLatestByBookingID(bookingID int64) (*models.Payment, error)
}

// TicketService renders e-tickets for paid bookings
type TicketService struct {
	bookings BookingStore
	payments PaymentLookup
	logger   *logrus.Logger
}

// NewTicketService creates a new ticket service
func NewTicketService(bookings BookingStore, payments PaymentLookup, logger *logrus.Logger) *TicketService {
	return &TicketService{
		bookings: bookings,
		payments: payments,
		logger:   logger,
	}
}

// GenerateTicket renders the e-ticket PDF for a paid booking and returns the
// document bytes plus a download filename. Unknown references, bookings owned
// by another account and unpaid bookings all surface as ErrBookingNotFound,
// so callers cannot tell which of the three it was.
func (s *TicketService) GenerateTicket(reference string, userID *uuid.UUID) ([]byte, string, error) {
	booking, err := s.bookings.GetByReference(reference)
	if err != nil {
		return nil, "", err
	}

	if booking.UserID != nil {
		if userID == nil || *booking.UserID != *userID {
			return nil, "", models.ErrBookingNotFound
		}
	}
	if booking.PaymentStatus != models.BookingPaymentPaid {
		return nil, "", models.ErrBookingNotFound
	}

	var payment *models.Payment
	if p, err := s.payments.GetLatestByBookingID(booking.ID); err == nil {
		payment = p
	}

	pdfBytes, err := buildTicketPDF(booking, payment)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render ticket: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reference": booking.Reference,
		"bytes":     len(pdfBytes),
	}).Info("Ticket generated")

	return pdfBytes, fmt.Sprintf("TICKET_%s.pdf", booking.Reference), nil
}

func buildTicketPDF(booking *models.Booking, payment *models.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+booking.Reference, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "GENERAL EXPRESS")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "E-TICKET "+booking.Reference)
	pdf.Ln(12)

	writeSection := func(title string, lines []string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range lines {
			pdf.Cell(0, 6, line)
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	if trip := booking.Trip; trip != nil {
		tripLines := []string{
			fmt.Sprintf("Route: %s - %s", trip.Origin, trip.Destination),
			fmt.Sprintf("Departure: %s", trip.Departure.Format("02/01/2006 15:04")),
		}
		if trip.BusNumber != nil {
			tripLines = append(tripLines, fmt.Sprintf("Bus: %s", *trip.BusNumber))
		}
		if booking.SeatNumbers != nil {
			tripLines = append(tripLines, fmt.Sprintf("Seats: %s", *booking.SeatNumbers))
		}
		writeSection("TRIP", tripLines)
	}

	passengerLines := make([]string, 0, len(booking.Passengers))
	for _, p := range booking.Passengers {
		seat := "to assign"
		if p.SeatNumber != nil {
			seat = *p.SeatNumber
		}
		passengerLines = append(passengerLines, fmt.Sprintf("%s (seat %s)", p.FullName, seat))
	}
	if len(passengerLines) > 0 {
		writeSection("PASSENGERS", passengerLines)
	}

	writeSection("CONTACT", []string{
		fmt.Sprintf("Name: %s", booking.ContactName),
		fmt.Sprintf("Email: %s", booking.ContactEmail),
		fmt.Sprintf("Phone: %s", booking.ContactPhone),
	})

	paymentLines := []string{
		fmt.Sprintf("Amount: %s %s", formatAmount(booking.TotalAmount), DefaultCurrency),
		"Status: PAID",
	}
	if payment != nil {
		paymentLines = append(paymentLines,
			fmt.Sprintf("Method: %s", strings.ReplaceAll(string(payment.Method), "_", " ")),
			fmt.Sprintf("Payment reference: %s", payment.Reference),
		)
	}
	writeSection("PAYMENT", paymentLines)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Present this ticket at boarding with a valid identity document. Arrive 30 minutes before departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ PaymentLookup = (*database.PaymentRepository)(nil)
