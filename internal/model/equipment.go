package model

import "strings"

// DateLayout is the format of purchase and booking dates.
const DateLayout = "2006-01-02"

// Condition is the physical state of an equipment item.
type Condition string

const (
	ConditionExcellent   Condition = "excellent"
	ConditionGood        Condition = "good"
	ConditionFair        Condition = "fair"
	ConditionPoor        Condition = "poor"
	ConditionNeedsRepair Condition = "needs-repair"
)

// Conditions lists every recognized condition in display order.
var Conditions = []Condition{
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
	ConditionNeedsRepair,
}

// Valid reports whether c is one of the recognized conditions.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the human readable form used in reports, e.g. "Needs Repair".
func (c Condition) Label() string {
	switch c {
	case ConditionExcellent:
		return "Excellent"
	case ConditionGood:
		return "Good"
	case ConditionFair:
		return "Fair"
	case ConditionPoor:
		return "Poor"
	case ConditionNeedsRepair:
		return "Needs Repair"
	case "":
		return "Unknown"
	}
	return string(c)
}

// ParseCondition accepts both the stored form ("needs-repair") and the report
// label ("Needs Repair").
func ParseCondition(raw string) (Condition, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.Fields(s), "-")
	s = strings.ReplaceAll(s, "_", "-")
	c := Condition(s)
	return c, c.Valid()
}

// Equipment is a single inventory item. ParentID is the authoritative
// hierarchy link; Children is the derived back-reference index.
type Equipment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	SerialNumber string    `json:"serialNumber"`
	Condition    Condition `json:"condition"`
	PurchaseDate string    `json:"purchaseDate"`
	Notes        string    `json:"notes,omitempty"`
	ParentID     *string   `json:"parentId"`
	Children     []string  `json:"children"`
}

// IsRoot reports whether the item has no parent.
func (e Equipment) IsRoot() bool {
	return e.ParentID == nil || *e.ParentID == ""
}

// Parent returns the parent id or "" for roots.
func (e Equipment) Parent() string {
	if e.ParentID == nil {
		return ""
	}
	return *e.ParentID
}

// Clone returns a copy that shares no slices or pointers with e.
func (e Equipment) Clone() Equipment {
	out := e
	if e.ParentID != nil {
		p := *e.ParentID
		out.ParentID = &p
	}
	out.Children = append([]string{}, e.Children...)
	return out
}

// EquipmentInput is the payload accepted when creating or updating equipment.
// Children are never supplied; they are derived from ParentID.
type EquipmentInput struct {
	Name         string  `json:"name" validate:"required"`
	Type         string  `json:"type" validate:"required"`
	SerialNumber string  `json:"serialNumber" validate:"required"`
	Condition    string  `json:"condition" validate:"omitempty,condition"`
	PurchaseDate string  `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	Notes        string  `json:"notes"`
	ParentID     *string `json:"parentId"`
}
