package model

import "time"

// BookingStatus is the lifecycle state of a booking. All transitions between
// statuses are permitted.
type BookingStatus string

const (
	StatusRequested  BookingStatus = "requested"
	StatusDispatched BookingStatus = "dispatched"
	StatusPacked     BookingStatus = "packed"
	StatusReturned   BookingStatus = "returned"
)

// BookingStatuses lists every status in workflow order.
var BookingStatuses = []BookingStatus{
	StatusRequested,
	StatusDispatched,
	StatusPacked,
	StatusReturned,
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Active reports whether a booking in this status still holds its equipment.
// Only returned bookings release it.
func (s BookingStatus) Active() bool {
	return s == StatusRequested || s == StatusDispatched || s == StatusPacked
}

// Label returns the capitalised status used in reports.
func (s BookingStatus) Label() string {
	switch s {
	case StatusRequested:
		return "Requested"
	case StatusDispatched:
		return "Dispatched"
	case StatusPacked:
		return "Packed"
	case StatusReturned:
		return "Returned"
	}
	return string(s)
}

// Booking reserves a set of equipment items for a single day.
type Booking struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	EquipmentIDs []string      `json:"equipmentIds"`
	Name         string        `json:"name"`
	Notes        string        `json:"notes,omitempty"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// References reports whether the booking lists the given equipment id.
func (b Booking) References(equipmentID string) bool {
	for _, id := range b.EquipmentIDs {
		if id == equipmentID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with b.
func (b Booking) Clone() Booking {
	out := b
	out.EquipmentIDs = append([]string{}, b.EquipmentIDs...)
	return out
}

// BookingInput is the payload accepted when creating a booking. Status is not
// part of it: new bookings always start as requested.
type BookingInput struct {
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	EquipmentIDs []string `json:"equipmentIds" validate:"required,min=1,dive,required"`
	Name         string   `json:"name" validate:"required"`
	Notes        string   `json:"notes"`
}
