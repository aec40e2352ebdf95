package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/model"
)

// ListEquipment handles GET /api/equipment.
func (h *Handler) ListEquipment(c *gin.Context) {
	c.JSON(http.StatusOK, h.inv.ListEquipment())
}

// GetEquipment handles GET /api/equipment/:id.
func (h *Handler) GetEquipment(c *gin.Context) {
	id := c.Param("id")
	e, ok := h.inv.Equipment(id)
	if !ok {
		writeError(c, &inventory.NotFoundError{Kind: "equipment", ID: id}, nil)
		return
	}
	c.JSON(http.StatusOK, e)
}

// CreateEquipment handles POST /api/equipment.
func (h *Handler) CreateEquipment(c *gin.Context) {
	var in model.EquipmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id, err := h.inv.AddEquipment(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, withID(id))
		return
	}
	e, _ := h.inv.Equipment(id)
	c.JSON(http.StatusCreated, e)
}

// UpdateEquipment handles PUT /api/equipment/:id.
func (h *Handler) UpdateEquipment(c *gin.Context) {
	var in model.EquipmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id := c.Param("id")
	if err := h.inv.UpdateEquipment(c.Request.Context(), id, in); err != nil {
		writeError(c, err, nil)
		return
	}
	e, _ := h.inv.Equipment(id)
	c.JSON(http.StatusOK, e)
}

// DeleteEquipment handles DELETE /api/equipment/:id.
func (h *Handler) DeleteEquipment(c *gin.Context) {
	if err := h.inv.DeleteEquipment(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetChildren handles GET /api/equipment/:id/children.
func (h *Handler) GetChildren(c *gin.Context) {
	children, err := h.inv.ChildrenOf(c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, children)
}

// GetAncestors handles GET /api/equipment/:id/ancestors.
func (h *Handler) GetAncestors(c *gin.Context) {
	ancestors, err := h.inv.Ancestors(c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	if ancestors == nil {
		ancestors = []model.Equipment{}
	}
	c.JSON(http.StatusOK, ancestors)
}

// GetLevel handles GET /api/equipment/:id/level.
func (h *Handler) GetLevel(c *gin.Context) {
	id := c.Param("id")
	level, err := h.inv.HierarchyLevel(id)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "level": level})
}

// GetParentCandidates handles GET /api/equipment/:id/parent-candidates.
func (h *Handler) GetParentCandidates(c *gin.Context) {
	sameType, _ := strconv.ParseBool(c.DefaultQuery("sameType", "false"))
	candidates, err := h.inv.ParentCandidates(c.Param("id"), sameType)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// CanHaveParent handles GET /api/equipment/:id/can-parent/:candidateId.
func (h *Handler) CanHaveParent(c *gin.Context) {
	id, candidate := c.Param("id"), c.Param("candidateId")
	c.JSON(http.StatusOK, gin.H{
		"id":          id,
		"candidateId": candidate,
		"allowed":     h.inv.CanHaveParent(id, candidate),
	})
}

// GetBooked handles GET /api/equipment/:id/booked?date=YYYY-MM-DD.
func (h *Handler) GetBooked(c *gin.Context) {
	date, ok := queryDate(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, found := h.inv.Equipment(id); !found {
		writeError(c, &inventory.NotFoundError{Kind: "equipment", ID: id}, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "date": date, "booked": h.inv.IsBooked(id, date)})
}

// GetEquipmentBookings handles GET /api/equipment/:id/bookings.
func (h *Handler) GetEquipmentBookings(c *gin.Context) {
	c.JSON(http.StatusOK, h.inv.BookingsFor(c.Param("id")))
}

// GetHierarchy handles GET /api/hierarchy.
func (h *Handler) GetHierarchy(c *gin.Context) {
	c.JSON(http.StatusOK, h.inv.Tree())
}

// GetRoots handles GET /api/hierarchy/roots.
func (h *Handler) GetRoots(c *gin.Context) {
	roots := h.inv.Roots()
	if roots == nil {
		roots = []model.Equipment{}
	}
	c.JSON(http.StatusOK, roots)
}

// GetOrderedHierarchy handles GET /api/hierarchy/ordered.
func (h *Handler) GetOrderedHierarchy(c *gin.Context) {
	c.JSON(http.StatusOK, h.inv.OrderedHierarchy())
}

// GetAvailability handles GET /api/availability?date=YYYY-MM-DD.
func (h *Handler) GetAvailability(c *gin.Context) {
	date, ok := queryDate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.inv.Availability(date))
}

// queryDate reads and checks the date query parameter.
func queryDate(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		badRequest(c, "date must be given as YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func withID(id string) gin.H {
	if id == "" {
		return nil
	}
	return gin.H{"id": id}
}
