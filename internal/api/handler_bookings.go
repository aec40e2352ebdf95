package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/model"
)

type statusRequest struct {
	Status model.BookingStatus `json:"status"`
}

// ListBookings handles GET /api/bookings, optionally filtered by ?status=.
func (h *Handler) ListBookings(c *gin.Context) {
	status := model.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "unknown booking status")
		return
	}
	c.JSON(http.StatusOK, h.inv.ListBookings(status))
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	id := c.Param("id")
	b, ok := h.inv.Booking(id)
	if !ok {
		writeError(c, &inventory.NotFoundError{Kind: "booking", ID: id}, nil)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var in model.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id, err := h.inv.AddBooking(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, withID(id))
		return
	}
	b, _ := h.inv.Booking(id)
	c.JSON(http.StatusCreated, b)
}

// UpdateBookingStatus handles PATCH /api/bookings/:id/status.
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id := c.Param("id")
	if err := h.inv.UpdateBookingStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, err, nil)
		return
	}
	b, _ := h.inv.Booking(id)
	c.JSON(http.StatusOK, b)
}

// DeleteBooking handles DELETE /api/bookings/:id.
func (h *Handler) DeleteBooking(c *gin.Context) {
	if err := h.inv.DeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh handles POST /api/refresh: the in-memory state is reloaded from
// storage and repaired.
func (h *Handler) Refresh(c *gin.Context) {
	snap, err := h.inv.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"equipment": len(snap.Equipment),
		"bookings":  len(snap.Bookings),
	})
}
