package store

import "errors"

// Collection keys. Each key holds a complete JSON array of records.
const (
	KeyEquipment = "equipment"
	KeyBookings  = "bookings"
)

// Keys lists every collection key the inventory persists.
var Keys = []string{KeyEquipment, KeyBookings}

// Driver names accepted in configuration.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// ErrEmptyKey is returned when a Load or Save is issued without a key.
var ErrEmptyKey = errors.New("store: empty key")
