package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/model"
)

// Report kinds served by the API.
const (
	KindHierarchy = "hierarchy"
	KindInventory = "inventory"
	KindBookings  = "bookings"
	KindUsage     = "usage"
	KindCondition = "condition"
	KindSummary   = "summary"
)

// Kinds lists every report kind Build accepts.
var Kinds = []string{KindHierarchy, KindInventory, KindBookings, KindUsage, KindCondition, KindSummary}

// Known reports whether Build accepts kind.
func Known(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Report is a rendered table ready to be written out.
type Report struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteCSV writes the report as comma separated text.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(r.Rows); err != nil {
		return fmt.Errorf("failed to write %s report: %w", r.Name, err)
	}
	return nil
}

// WriteXLSX writes the report as a single-sheet workbook.
func (r Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := r.Name
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	rows := append([][]string{r.Header}, r.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s report: %w", r.Name, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// Exporter builds reports from the inventory's read model.
type Exporter struct {
	inv *inventory.Inventory
	now func() time.Time
}

// New creates an exporter over inv.
func New(inv *inventory.Inventory) *Exporter {
	return &Exporter{inv: inv, now: time.Now}
}

// Build returns the report of the given kind.
func (x *Exporter) Build(kind string) (Report, error) {
	switch kind {
	case KindHierarchy:
		return x.HierarchicalStructure(), nil
	case KindInventory:
		return x.MasterInventory(), nil
	case KindBookings:
		return x.BookingsLog(), nil
	case KindUsage:
		return x.UsageSummary(), nil
	case KindCondition:
		return x.ConditionReport(), nil
	case KindSummary:
		return x.SummaryDashboard(), nil
	}
	return Report{}, fmt.Errorf("unknown report %q", kind)
}

// parentRef renders a parent the way the importer resolves it back.
func parentRef(e model.Equipment) string {
	return fmt.Sprintf("%s (%s)", e.Name, e.SerialNumber)
}

func index(items []model.Equipment) map[string]model.Equipment {
	out := make(map[string]model.Equipment, len(items))
	for _, e := range items {
		out[e.ID] = e
	}
	return out
}

// HierarchicalStructure lists every item as an indented tree: roots carry a
// box icon and their component count, children a connector and a tool icon.
func (x *Exporter) HierarchicalStructure() Report {
	entries := x.inv.OrderedHierarchy()
	byID := index(x.inv.ListEquipment())

	r := Report{
		Name:   "Hierarchical Structure",
		Header: []string{"Equipment_Structure", "Type", "Serial_Number", "Condition", "Purchase_Date", "Hierarchy_Level", "Parent", "Notes"},
	}
	for _, e := range entries {
		var display string
		if e.Level == 0 {
			display = "📦 " + e.Name
			if n := len(e.Children); n > 0 {
				display += fmt.Sprintf(" (%d components)", n)
			}
		} else {
			display = strings.Repeat("  ", e.Level-1) + "├─ 🔧 " + e.Name
		}
		parent := "Top Level"
		if p, ok := byID[e.Parent()]; ok {
			parent = parentRef(p)
		}
		r.Rows = append(r.Rows, []string{
			display,
			e.Type,
			e.SerialNumber,
			e.Condition.Label(),
			e.PurchaseDate,
			strconv.Itoa(e.Level),
			parent,
			e.Notes,
		})
	}
	return r
}

// MasterInventory lists every item in hierarchy order with its current
// availability.
func (x *Exporter) MasterInventory() Report {
	entries := x.inv.OrderedHierarchy()
	byID := index(x.inv.ListEquipment())
	today := x.now().Format(model.DateLayout)
	booked := make(map[string]bool)
	for _, a := range x.inv.Availability(today) {
		booked[a.Equipment.ID] = a.Booked
	}

	r := Report{
		Name:   "Master Inventory",
		Header: []string{"Equipment_ID", "Item_Name", "Type", "Serial_Number", "Purchase_Date", "Status", "Condition", "Parent_Item", "Child_Count", "Hierarchy_Level", "Notes"},
	}
	for i, e := range entries {
		var display string
		if e.Level == 0 {
			display = e.Name
			if n := len(e.Children); n > 0 {
				display += fmt.Sprintf(" [%d components]", n)
			}
		} else {
			display = strings.Repeat("  ", e.Level) + "└─ " + e.Name
		}
		status := "AVAILABLE"
		if booked[e.ID] {
			status = "IN_USE"
		}
		parent := "None"
		if p, ok := byID[e.Parent()]; ok {
			parent = parentRef(p)
		}
		r.Rows = append(r.Rows, []string{
			fmt.Sprintf("EQ%03d", i+1),
			display,
			e.Type,
			e.SerialNumber,
			e.PurchaseDate,
			status,
			e.Condition.Label(),
			parent,
			strconv.Itoa(len(e.Children)),
			strconv.Itoa(e.Level),
			e.Notes,
		})
	}
	return r
}

// BookingsLog lists every booking with the names of its equipment.
func (x *Exporter) BookingsLog() Report {
	byID := index(x.inv.ListEquipment())
	r := Report{
		Name:   "Bookings Log",
		Header: []string{"Booking_ID", "Booking_Name", "Date", "Equipment_Items", "Status", "Notes", "Created_Date", "Last_Modified"},
	}
	for i, b := range x.inv.ListBookings("") {
		names := make([]string, 0, len(b.EquipmentIDs))
		for _, id := range b.EquipmentIDs {
			if e, ok := byID[id]; ok {
				names = append(names, e.Name)
			} else {
				names = append(names, fmt.Sprintf("Unknown (%s)", id))
			}
		}
		r.Rows = append(r.Rows, []string{
			fmt.Sprintf("BK%03d", i+1),
			b.Name,
			b.Date,
			strings.Join(names, "; "),
			b.Status.Label(),
			b.Notes,
			formatDay(b.CreatedAt),
			formatDay(b.UpdatedAt),
		})
	}
	return r
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(model.DateLayout)
}
