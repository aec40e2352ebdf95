package inventory

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/store"
)

// Entry is an item together with its distance from the root.
type Entry struct {
	model.Equipment
	Level int `json:"level"`
}

// TreeNode is an item with its children resolved to records.
type TreeNode struct {
	Equipment model.Equipment `json:"equipment"`
	Level     int             `json:"level"`
	Children  []TreeNode      `json:"children"`
}

// AddEquipment creates a new item and returns its id.
func (inv *Inventory) AddEquipment(ctx context.Context, in model.EquipmentInput) (string, error) {
	var id string
	err := inv.mutate(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.AddEquipment(in)
		return err
	})
	return id, err
}

// UpdateEquipment replaces the fields of an item. Children are kept; a parent
// change relinks both the old and the new parent.
func (inv *Inventory) UpdateEquipment(ctx context.Context, id string, in model.EquipmentInput) error {
	return inv.mutate(ctx, func(tx *Tx) error {
		return tx.UpdateEquipment(id, in)
	})
}

// DeleteEquipment removes an item, handles its children according to the
// orphan policy and purges every booking that referenced a removed item.
func (inv *Inventory) DeleteEquipment(ctx context.Context, id string) error {
	return inv.mutate(ctx, func(tx *Tx) error {
		return tx.DeleteEquipment(id)
	})
}

// AddEquipment creates a new item inside the transaction.
func (tx *Tx) AddEquipment(in model.EquipmentInput) (string, error) {
	in = normalizeEquipment(in)
	if err := checkStruct(in); err != nil {
		return "", err
	}
	parentID := ""
	if in.ParentID != nil {
		parentID = *in.ParentID
		if tx.st.equipment[parentID] == nil {
			return "", &NotFoundError{Kind: "equipment", ID: parentID}
		}
	}
	id, err := tx.createID()
	if err != nil {
		return "", err
	}

	e := tx.st.insertEquipment(tx.build(id, in))
	tx.st.link(e, parentID)
	tx.touch(store.KeyEquipment)
	return id, nil
}

// build maps validated input onto a record with defaults applied.
func (tx *Tx) build(id string, in model.EquipmentInput) model.Equipment {
	condition := model.ConditionGood
	if c, ok := model.ParseCondition(in.Condition); ok {
		condition = c
	}
	purchaseDate := in.PurchaseDate
	if purchaseDate == "" {
		purchaseDate = tx.inv.opts.Now().Format(model.DateLayout)
	}
	return model.Equipment{
		ID:           id,
		Name:         in.Name,
		Type:         in.Type,
		SerialNumber: in.SerialNumber,
		Condition:    condition,
		PurchaseDate: purchaseDate,
		Notes:        in.Notes,
		Children:     []string{},
	}
}

// UpdateEquipment replaces an item's fields inside the transaction.
func (tx *Tx) UpdateEquipment(id string, in model.EquipmentInput) error {
	cur := tx.st.equipment[id]
	if cur == nil {
		return &NotFoundError{Kind: "equipment", ID: id}
	}
	in = normalizeEquipment(in)
	if err := checkStruct(in); err != nil {
		return err
	}
	newParent := ""
	if in.ParentID != nil {
		newParent = *in.ParentID
	}
	if newParent != cur.Parent() {
		if err := tx.checkParent(id, newParent); err != nil {
			return err
		}
	}

	next := tx.build(id, in)
	if in.PurchaseDate == "" {
		next.PurchaseDate = cur.PurchaseDate
	}
	next.Children = cur.Children
	next.ParentID = cur.ParentID
	*cur = next

	if newParent != cur.Parent() {
		tx.st.unlink(cur)
		tx.st.link(cur, newParent)
	}
	tx.touch(store.KeyEquipment)
	return nil
}

// SetParent moves an item under parentID, or to the top level when parentID
// is empty.
func (tx *Tx) SetParent(id, parentID string) error {
	cur := tx.st.equipment[id]
	if cur == nil {
		return &NotFoundError{Kind: "equipment", ID: id}
	}
	if parentID == cur.Parent() {
		return nil
	}
	if err := tx.checkParent(id, parentID); err != nil {
		return err
	}
	tx.st.unlink(cur)
	tx.st.link(cur, parentID)
	tx.touch(store.KeyEquipment)
	return nil
}

func (tx *Tx) checkParent(id, parentID string) error {
	if parentID == "" {
		return nil
	}
	if tx.st.equipment[parentID] == nil {
		return &NotFoundError{Kind: "equipment", ID: parentID}
	}
	if !tx.st.canHaveParent(id, parentID, tx.inv.opts.MaxDepth) {
		return &CycleError{ItemID: id, ParentID: parentID}
	}
	return nil
}

// DeleteEquipment removes an item inside the transaction.
func (tx *Tx) DeleteEquipment(id string) error {
	cur := tx.st.equipment[id]
	if cur == nil {
		return &NotFoundError{Kind: "equipment", ID: id}
	}
	tx.st.unlink(cur)

	removed := []string{id}
	switch tx.inv.opts.OrphanPolicy {
	case OrphanCascade:
		removed = append(removed, tx.st.descendants(id, tx.inv.opts.MaxDepth)...)
	default:
		for _, childID := range cur.Children {
			if child := tx.st.equipment[childID]; child != nil {
				child.ParentID = nil
			}
		}
	}
	for _, rid := range removed {
		tx.st.removeEquipment(rid)
	}
	// A cascade cut short by the depth cap can leave survivors pointing at
	// removed items.
	for _, eid := range tx.st.equipmentOrder {
		if e := tx.st.equipment[eid]; !e.IsRoot() && tx.st.equipment[e.Parent()] == nil {
			e.ParentID = nil
		}
	}
	tx.touch(store.KeyEquipment)

	purged := 0
	for _, rid := range removed {
		purged += tx.PurgeBookingsReferencing(rid)
	}
	tx.inv.logger.Info("equipment deleted",
		zap.String("id", id),
		zap.Int("removed", len(removed)),
		zap.Int("bookingsPurged", purged))
	return nil
}

// descendants lists every id below id, depth-first, bounded by maxDepth.
func (s *state) descendants(id string, maxDepth int) []string {
	var out []string
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		e := s.equipment[id]
		if e == nil || depth >= maxDepth {
			return
		}
		for _, childID := range e.Children {
			out = append(out, childID)
			walk(childID, depth+1)
		}
	}
	walk(id, 0)
	return out
}

// canHaveParent reports whether candidateID may become the new parent of
// itemID. It rejects the item itself, unknown ids, the current parent and any
// descendant of the item. A descent deeper than maxDepth counts as unsafe.
func (s *state) canHaveParent(itemID, candidateID string, maxDepth int) bool {
	if itemID == candidateID {
		return false
	}
	item := s.equipment[itemID]
	if item == nil || s.equipment[candidateID] == nil {
		return false
	}
	if item.Parent() == candidateID {
		return false
	}
	found, ok := s.hasDescendant(itemID, candidateID, 0, maxDepth)
	return ok && !found
}

// hasDescendant searches the subtree below rootID for target. ok is false
// when the walk went past maxDepth.
func (s *state) hasDescendant(rootID, target string, depth, maxDepth int) (found, ok bool) {
	if depth >= maxDepth {
		return false, false
	}
	e := s.equipment[rootID]
	if e == nil {
		return false, true
	}
	for _, childID := range e.Children {
		if childID == target {
			return true, true
		}
		if found, ok := s.hasDescendant(childID, target, depth+1, maxDepth); found || !ok {
			return found, ok
		}
	}
	return false, true
}

// level counts parent hops to the root, capped at maxDepth.
func (s *state) level(id string, maxDepth int) int {
	level := 0
	cur := s.equipment[id]
	for cur != nil && !cur.IsRoot() && level < maxDepth {
		level++
		cur = s.equipment[cur.Parent()]
	}
	return level
}

// CanHaveParent reports whether candidateID may become the new parent of
// itemID without creating a cycle.
func (inv *Inventory) CanHaveParent(itemID, candidateID string) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state.canHaveParent(itemID, candidateID, inv.opts.MaxDepth)
}

// ChildrenOf returns the direct children of id in link order.
func (inv *Inventory) ChildrenOf(id string) ([]model.Equipment, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	e := inv.state.equipment[id]
	if e == nil {
		return nil, &NotFoundError{Kind: "equipment", ID: id}
	}
	out := make([]model.Equipment, 0, len(e.Children))
	for _, childID := range e.Children {
		out = append(out, inv.state.equipment[childID].Clone())
	}
	return out, nil
}

// Roots returns every top-level item in insertion order.
func (inv *Inventory) Roots() []model.Equipment {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	var out []model.Equipment
	for _, id := range inv.state.equipmentOrder {
		if e := inv.state.equipment[id]; e.IsRoot() {
			out = append(out, e.Clone())
		}
	}
	return out
}

// HierarchyLevel returns the number of parent hops from id to its root.
func (inv *Inventory) HierarchyLevel(id string) (int, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	if inv.state.equipment[id] == nil {
		return 0, &NotFoundError{Kind: "equipment", ID: id}
	}
	return inv.state.level(id, inv.opts.MaxDepth), nil
}

// Ancestors returns the parent chain of id, nearest first.
func (inv *Inventory) Ancestors(id string) ([]model.Equipment, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	cur := inv.state.equipment[id]
	if cur == nil {
		return nil, &NotFoundError{Kind: "equipment", ID: id}
	}
	var out []model.Equipment
	for i := 0; i < inv.opts.MaxDepth && !cur.IsRoot(); i++ {
		cur = inv.state.equipment[cur.Parent()]
		if cur == nil {
			break
		}
		out = append(out, cur.Clone())
	}
	return out, nil
}

// Tree returns every root with its subtree resolved.
func (inv *Inventory) Tree() []TreeNode {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	var build func(e *model.Equipment, level int) TreeNode
	build = func(e *model.Equipment, level int) TreeNode {
		node := TreeNode{Equipment: e.Clone(), Level: level, Children: []TreeNode{}}
		if level+1 >= inv.opts.MaxDepth {
			return node
		}
		for _, childID := range e.Children {
			node.Children = append(node.Children, build(inv.state.equipment[childID], level+1))
		}
		return node
	}
	out := []TreeNode{}
	for _, id := range inv.state.equipmentOrder {
		if e := inv.state.equipment[id]; e.IsRoot() {
			out = append(out, build(e, 0))
		}
	}
	return out
}

// OrderedHierarchy lists every item with roots sorted by name, each followed
// depth-first by its children sorted by name. Items the walk could not reach
// are appended at the end.
func (inv *Inventory) OrderedHierarchy() []Entry {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	s := inv.state

	out := make([]Entry, 0, len(s.equipmentOrder))
	seen := make(map[string]bool, len(s.equipmentOrder))
	var visit func(e *model.Equipment, depth int)
	visit = func(e *model.Equipment, depth int) {
		if seen[e.ID] {
			return
		}
		seen[e.ID] = true
		out = append(out, Entry{Equipment: e.Clone(), Level: s.level(e.ID, inv.opts.MaxDepth)})
		if depth+1 >= inv.opts.MaxDepth {
			return
		}
		children := make([]*model.Equipment, 0, len(e.Children))
		for _, childID := range e.Children {
			if child := s.equipment[childID]; child != nil {
				children = append(children, child)
			}
		}
		sortByName(children)
		for _, child := range children {
			visit(child, depth+1)
		}
	}

	var roots []*model.Equipment
	for _, id := range s.equipmentOrder {
		if e := s.equipment[id]; e.IsRoot() {
			roots = append(roots, e)
		}
	}
	sortByName(roots)
	for _, r := range roots {
		visit(r, 0)
	}
	for _, id := range s.equipmentOrder {
		if !seen[id] {
			seen[id] = true
			out = append(out, Entry{Equipment: s.equipment[id].Clone(), Level: s.level(id, inv.opts.MaxDepth)})
		}
	}
	return out
}

func sortByName(items []*model.Equipment) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

// ParentCandidates lists the items id may be placed under. The current parent
// is included so forms can show it. With sameType only items of the same type
// are offered.
func (inv *Inventory) ParentCandidates(id string, sameType bool) ([]model.Equipment, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	item := inv.state.equipment[id]
	if item == nil {
		return nil, &NotFoundError{Kind: "equipment", ID: id}
	}
	out := []model.Equipment{}
	for _, cid := range inv.state.equipmentOrder {
		c := inv.state.equipment[cid]
		if sameType && !strings.EqualFold(c.Type, item.Type) {
			continue
		}
		if cid == item.Parent() || inv.state.canHaveParent(id, cid, inv.opts.MaxDepth) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}
