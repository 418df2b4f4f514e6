package models

import (
	"time"
)

// TripStatus represents the lifecycle state of a scheduled trip
type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusBoarding  TripStatus = "boarding"
	TripStatusDeparted  TripStatus = "departed"
	TripStatusArrived   TripStatus = "arrived"
	TripStatusCancelled TripStatus = "cancelled"
)

// TripClass represents the fare class of a trip
type TripClass string

const (
	TripClassClassic TripClass = "classique"
	TripClassVIP     TripClass = "vip"
)

// Trip represents a scheduled bus departure with finite seat capacity.
// AvailableSeats is the shared mutable counter; every read-modify-write on it
// must hold the trip row lock until commit.
type Trip struct {
	ID             int64      `json:"id" db:"id"`
	Reference      string     `json:"reference" db:"reference"`
	Origin         string     `json:"origin" db:"origin"`
	Destination    string     `json:"destination" db:"destination"`
	Departure      time.Time  `json:"departure" db:"departure"`
	Arrival        time.Time  `json:"arrival" db:"arrival"`
	Duration       string     `json:"duration" db:"duration"`
	DistanceKm     float64    `json:"distance_km" db:"distance_km"`
	BusType        string     `json:"bus_type" db:"bus_type"`
	Class          TripClass  `json:"class" db:"class"`
	Price          float64    `json:"price" db:"price"`
	PriceVIP       *float64   `json:"price_vip,omitempty" db:"price_vip"`
	AvailableSeats int        `json:"available_seats" db:"available_seats"`
	TotalSeats     int        `json:"total_seats" db:"total_seats"`
	AirConditioned bool       `json:"air_conditioned" db:"air_conditioned"`
	WiFi           bool       `json:"wifi" db:"wifi"`
	USBPorts       bool       `json:"usb_ports" db:"usb_ports"`
	Status         TripStatus `json:"status" db:"status"`
	BusNumber      *string    `json:"bus_number,omitempty" db:"bus_number"`
	DriverName     *string    `json:"driver_name,omitempty" db:"driver_name"`
	DriverPhone    *string    `json:"driver_phone,omitempty" db:"driver_phone"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// UnitFare returns the per-seat fare for the trip's class.
// VIP trips without a VIP fare configured fall back to the base price.
func (t *Trip) UnitFare() float64 {
	if t.Class == TripClassVIP && t.PriceVIP != nil {
		return *t.PriceVIP
	}
	return t.Price
}

// IsBookable reports whether the trip can accept new bookings
func (t *Trip) IsBookable() bool {
	return t.Status == TripStatusScheduled
}

// TripFilter holds optional search criteria for the public schedule listing
type TripFilter struct {
	Origin      string
	Destination string
	Date        *time.Time
	Limit       int
	Offset      int
}
