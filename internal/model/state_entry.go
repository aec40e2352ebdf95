package model

import "time"

// StateEntry stores one serialized collection under its key.
type StateEntry struct {
	Key       string    `gorm:"column:state_key;primaryKey;size:64"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
