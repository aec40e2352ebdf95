package inventory

import (
	"go.uber.org/zap"

	"equipment-booking-backend/internal/model"
)

// state holds both collections keyed by id, plus insertion order so that
// persisted arrays and listings stay stable.
type state struct {
	equipment      map[string]*model.Equipment
	equipmentOrder []string
	bookings       map[string]*model.Booking
	bookingOrder   []string
}

func newState() *state {
	return &state{
		equipment: make(map[string]*model.Equipment),
		bookings:  make(map[string]*model.Booking),
	}
}

func (s *state) clone() *state {
	out := &state{
		equipment:      make(map[string]*model.Equipment, len(s.equipment)),
		equipmentOrder: append([]string(nil), s.equipmentOrder...),
		bookings:       make(map[string]*model.Booking, len(s.bookings)),
		bookingOrder:   append([]string(nil), s.bookingOrder...),
	}
	for id, e := range s.equipment {
		c := e.Clone()
		out.equipment[id] = &c
	}
	for id, b := range s.bookings {
		c := b.Clone()
		out.bookings[id] = &c
	}
	return out
}

func (s *state) hasID(id string) bool {
	return s.equipment[id] != nil || s.bookings[id] != nil
}

func (s *state) insertEquipment(e model.Equipment) *model.Equipment {
	p := &e
	s.equipment[e.ID] = p
	s.equipmentOrder = append(s.equipmentOrder, e.ID)
	return p
}

func (s *state) removeEquipment(id string) {
	delete(s.equipment, id)
	s.equipmentOrder = without(s.equipmentOrder, id)
}

func (s *state) insertBooking(b model.Booking) {
	s.bookings[b.ID] = &b
	s.bookingOrder = append(s.bookingOrder, b.ID)
}

func (s *state) removeBooking(id string) {
	delete(s.bookings, id)
	s.bookingOrder = without(s.bookingOrder, id)
}

func (s *state) equipmentList() []model.Equipment {
	out := make([]model.Equipment, 0, len(s.equipmentOrder))
	for _, id := range s.equipmentOrder {
		out = append(out, s.equipment[id].Clone())
	}
	return out
}

func (s *state) bookingList() []model.Booking {
	out := make([]model.Booking, 0, len(s.bookingOrder))
	for _, id := range s.bookingOrder {
		out = append(out, s.bookings[id].Clone())
	}
	return out
}

func (s *state) snapshot() Snapshot {
	return Snapshot{Equipment: s.equipmentList(), Bookings: s.bookingList()}
}

// link attaches child under parentID, or makes it a root when parentID is "".
func (s *state) link(child *model.Equipment, parentID string) {
	if parentID == "" {
		child.ParentID = nil
		return
	}
	p := parentID
	child.ParentID = &p
	parent := s.equipment[parentID]
	parent.Children = append(parent.Children, child.ID)
}

// unlink detaches child from its current parent and makes it a root.
func (s *state) unlink(child *model.Equipment) {
	if parent := s.equipment[child.Parent()]; parent != nil {
		parent.Children = without(parent.Children, child.ID)
	}
	child.ParentID = nil
}

// relink rebuilds every Children index from ParentID. Dangling parents and
// parent chains that loop are cut so the result is a forest.
func (s *state) relink(logger *zap.Logger, maxDepth int) {
	for _, id := range s.equipmentOrder {
		s.equipment[id].Children = []string{}
	}
	for _, id := range s.equipmentOrder {
		e := s.equipment[id]
		if e.IsRoot() {
			e.ParentID = nil
			continue
		}
		if s.equipment[e.Parent()] == nil {
			logger.Warn("promoting equipment with unknown parent to root",
				zap.String("id", id), zap.String("parentId", e.Parent()))
			e.ParentID = nil
			continue
		}
		if s.loops(id, maxDepth) {
			logger.Warn("breaking parent cycle", zap.String("id", id), zap.String("parentId", e.Parent()))
			e.ParentID = nil
		}
	}
	for _, id := range s.equipmentOrder {
		e := s.equipment[id]
		if !e.IsRoot() {
			parent := s.equipment[e.Parent()]
			parent.Children = append(parent.Children, id)
		}
	}
}

// loops reports whether following ParentID from id leads back to id or runs
// deeper than maxDepth. A loop further up that does not contain id is left
// for its own members to break.
func (s *state) loops(id string, maxDepth int) bool {
	seen := map[string]bool{id: true}
	cur := s.equipment[id]
	for steps := 0; !cur.IsRoot(); steps++ {
		if steps >= maxDepth {
			return true
		}
		next := s.equipment[cur.Parent()]
		if next == nil {
			return false
		}
		if next.ID == id {
			return true
		}
		if seen[next.ID] {
			return false
		}
		seen[next.ID] = true
		cur = next
	}
	return false
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
