package database

import (
	"database/sql"
	"errors"
	"io"
	"net"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/lib/pq"
)

// Postgres error codes that indicate a retryable condition rather than a
// caller mistake. Serialization failures and deadlocks surface when two
// bookings race for the same trip row.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// wrapStoreErr classifies a driver error. Retryable conditions come back as
// models.TransientStoreError so handlers can map them to 503; everything else
// passes through unchanged.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return &models.TransientStoreError{Err: err}
		}
		return err
	}

	// Connection-level failures are always retryable
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, sql.ErrConnDone) {
		return &models.TransientStoreError{Err: err}
	}

	return err
}
