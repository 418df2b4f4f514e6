package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

const tripColumns = `
	id, reference, origin, destination, departure, arrival,
	duration, distance_km, bus_type, class, price, price_vip,
	available_seats, total_seats, air_conditioned, wifi, usb_ports,
	status, bus_number, driver_name, driver_phone, created_at, updated_at`

// TripRepository handles trip database operations
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Search returns scheduled trips matching the filter, soonest departure first.
// Trips that already departed are excluded from the public listing.
func (r *TripRepository) Search(filter models.TripFilter) ([]models.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status = 'scheduled' AND departure > NOW()`

	args := []interface{}{}
	idx := 1

	if filter.Origin != "" {
		query += fmt.Sprintf(" AND LOWER(origin) = LOWER($%d)", idx)
		args = append(args, filter.Origin)
		idx++
	}
	if filter.Destination != "" {
		query += fmt.Sprintf(" AND LOWER(destination) = LOWER($%d)", idx)
		args = append(args, filter.Destination)
		idx++
	}
	if filter.Date != nil {
		query += fmt.Sprintf(" AND departure::date = $%d::date", idx)
		args = append(args, *filter.Date)
		idx++
	}

	query += " ORDER BY departure ASC"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d", idx)
	args = append(args, limit)
	idx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", idx)
		args = append(args, filter.Offset)
	}

	var trips []models.Trip
	if err := r.db.Select(&trips, query, args...); err != nil {
		return nil, wrapStoreErr(err)
	}
	return trips, nil
}

// GetByID retrieves a single trip
func (r *TripRepository) GetByID(id int64) (*models.Trip, error) {
	trip := &models.Trip{}
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	err := r.db.Get(trip, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTripNotBookable
		}
		return nil, wrapStoreErr(err)
	}
	return trip, nil
}

// lockTripForBooking locks the trip row inside tx and returns it only if the
// trip is still open for sale. The lock is held until the transaction ends.
func lockTripForBooking(tx *sqlx.Tx, tripID int64) (*models.Trip, error) {
	trip := &models.Trip{}
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE id = $1 AND status = 'scheduled'
		FOR UPDATE`

	err := tx.Get(trip, query, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTripNotBookable
		}
		return nil, wrapStoreErr(err)
	}
	return trip, nil
}
