package inventory

import (
	"equipment-booking-backend/internal/model"
)

// ItemAvailability pairs an item with its booked flag for one date.
type ItemAvailability struct {
	Equipment model.Equipment `json:"equipment"`
	Booked    bool            `json:"booked"`
	BookingID string          `json:"bookingId,omitempty"`
}

// IsBooked reports whether equipmentID has an active booking on date. Dates
// are compared as exact strings; returned bookings never block.
func (inv *Inventory) IsBooked(equipmentID, date string) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state.activeBooking(equipmentID, date) != nil
}

func (s *state) activeBooking(equipmentID, date string) *model.Booking {
	for _, id := range s.bookingOrder {
		b := s.bookings[id]
		if b.Date == date && b.Status.Active() && b.References(equipmentID) {
			return b
		}
	}
	return nil
}

// Availability lists every item with whether it is booked on date.
func (inv *Inventory) Availability(date string) []ItemAvailability {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	holder := make(map[string]string)
	for _, id := range inv.state.bookingOrder {
		b := inv.state.bookings[id]
		if b.Date != date || !b.Status.Active() {
			continue
		}
		for _, eid := range b.EquipmentIDs {
			if _, ok := holder[eid]; !ok {
				holder[eid] = b.ID
			}
		}
	}

	out := make([]ItemAvailability, 0, len(inv.state.equipmentOrder))
	for _, id := range inv.state.equipmentOrder {
		bookingID, booked := holder[id]
		out = append(out, ItemAvailability{
			Equipment: inv.state.equipment[id].Clone(),
			Booked:    booked,
			BookingID: bookingID,
		})
	}
	return out
}

// BookingsFor returns every booking that lists equipmentID, in any status.
func (inv *Inventory) BookingsFor(equipmentID string) []model.Booking {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := []model.Booking{}
	for _, id := range inv.state.bookingOrder {
		if b := inv.state.bookings[id]; b.References(equipmentID) {
			out = append(out, b.Clone())
		}
	}
	return out
}
