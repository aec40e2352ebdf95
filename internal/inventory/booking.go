package inventory

import (
	"context"

	"go.uber.org/zap"

	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/store"
)

// AddBooking creates a booking in the requested status and returns its id.
func (inv *Inventory) AddBooking(ctx context.Context, in model.BookingInput) (string, error) {
	var id string
	err := inv.mutate(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.AddBooking(in)
		return err
	})
	return id, err
}

// UpdateBookingStatus overwrites the status of a booking. Any status may
// follow any other.
func (inv *Inventory) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	return inv.mutate(ctx, func(tx *Tx) error {
		return tx.UpdateBookingStatus(id, status)
	})
}

// DeleteBooking removes a booking.
func (inv *Inventory) DeleteBooking(ctx context.Context, id string) error {
	return inv.mutate(ctx, func(tx *Tx) error {
		return tx.DeleteBooking(id)
	})
}

// PurgeBookingsReferencing removes every booking that lists equipmentID and
// returns how many were removed.
func (inv *Inventory) PurgeBookingsReferencing(ctx context.Context, equipmentID string) (int, error) {
	var n int
	err := inv.mutate(ctx, func(tx *Tx) error {
		n = tx.PurgeBookingsReferencing(equipmentID)
		return nil
	})
	return n, err
}

// AddBooking creates a booking inside the transaction.
func (tx *Tx) AddBooking(in model.BookingInput) (string, error) {
	in = normalizeBooking(in)
	if err := checkStruct(in); err != nil {
		return "", err
	}
	for _, eid := range in.EquipmentIDs {
		if tx.st.equipment[eid] == nil {
			return "", &NotFoundError{Kind: "equipment", ID: eid}
		}
	}
	if !tx.inv.opts.AllowDoubleBooking {
		var taken []string
		for _, eid := range in.EquipmentIDs {
			if tx.st.activeBooking(eid, in.Date) != nil {
				taken = append(taken, eid)
			}
		}
		if len(taken) > 0 {
			return "", &ConflictError{Date: in.Date, EquipmentIDs: taken}
		}
	}

	id, err := tx.createID()
	if err != nil {
		return "", err
	}
	now := tx.inv.opts.Now().UTC()
	tx.st.insertBooking(model.Booking{
		ID:           id,
		Date:         in.Date,
		EquipmentIDs: in.EquipmentIDs,
		Name:         in.Name,
		Notes:        in.Notes,
		Status:       model.StatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	tx.touch(store.KeyBookings)
	return id, nil
}

// UpdateBookingStatus overwrites a booking's status inside the transaction.
func (tx *Tx) UpdateBookingStatus(id string, status model.BookingStatus) error {
	if !status.Valid() {
		return invalid("status", "must be one of requested, dispatched, packed, returned")
	}
	b := tx.st.bookings[id]
	if b == nil {
		return &NotFoundError{Kind: "booking", ID: id}
	}
	b.Status = status
	b.UpdatedAt = tx.inv.opts.Now().UTC()
	tx.touch(store.KeyBookings)
	return nil
}

// DeleteBooking removes a booking inside the transaction.
func (tx *Tx) DeleteBooking(id string) error {
	if tx.st.bookings[id] == nil {
		return &NotFoundError{Kind: "booking", ID: id}
	}
	tx.st.removeBooking(id)
	tx.touch(store.KeyBookings)
	return nil
}

// PurgeBookingsReferencing drops every booking that lists equipmentID. The
// whole booking goes, even when it also lists other equipment.
func (tx *Tx) PurgeBookingsReferencing(equipmentID string) int {
	var doomed []string
	for _, id := range tx.st.bookingOrder {
		if tx.st.bookings[id].References(equipmentID) {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		tx.st.removeBooking(id)
	}
	if len(doomed) > 0 {
		tx.touch(store.KeyBookings)
		tx.inv.logger.Debug("purged bookings", zap.String("equipmentId", equipmentID), zap.Int("count", len(doomed)))
	}
	return len(doomed)
}
