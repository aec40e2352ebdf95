package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"equipment-booking-backend/internal/model"
)

// recentWindow is how far back bookings count towards usage frequency.
const recentWindow = 30 * 24 * time.Hour

// Usage frequency and maintenance labels used by the condition report.
const (
	usageLow    = "Low"
	usageMedium = "Medium"
	usageHigh   = "High"
)

// lifespanYears is the expected remaining service life by condition.
var lifespanYears = map[model.Condition]int{
	model.ConditionExcellent:   7,
	model.ConditionGood:        5,
	model.ConditionFair:        3,
	model.ConditionPoor:        1,
	model.ConditionNeedsRepair: 0,
}

// usageFrequency rates an item by how many of its bookings fall on or after
// the start of the recent window.
func usageFrequency(bookings []model.Booking, today time.Time) string {
	since := today.Add(-recentWindow).Format(model.DateLayout)
	recent := 0
	for _, b := range bookings {
		if b.Date >= since {
			recent++
		}
	}
	switch {
	case recent == 0:
		return usageLow
	case recent <= 2:
		return usageMedium
	}
	return usageHigh
}

// utilizationRate is the share of an item's bookings that got past the
// request stage.
func utilizationRate(bookings []model.Booking) string {
	if len(bookings) == 0 {
		return "0%"
	}
	used := 0
	for _, b := range bookings {
		if b.Status != model.StatusRequested {
			used++
		}
	}
	return fmt.Sprintf("%.1f%%", float64(used)/float64(len(bookings))*100)
}

func countActive(bookings []model.Booking) int {
	n := 0
	for _, b := range bookings {
		if b.Status.Active() {
			n++
		}
	}
	return n
}

// lastUsed returns the latest booking date, or Never.
func lastUsed(bookings []model.Booking) string {
	last := ""
	for _, b := range bookings {
		if b.Date > last {
			last = b.Date
		}
	}
	if last == "" {
		return "Never"
	}
	return last
}

// nextAvailable returns the day after the latest active booking from today on.
func nextAvailable(bookings []model.Booking, today string) string {
	last := ""
	for _, b := range bookings {
		if b.Status.Active() && b.Date >= today && b.Date > last {
			last = b.Date
		}
	}
	if last == "" {
		return "Available now"
	}
	d, err := time.Parse(model.DateLayout, last)
	if err != nil {
		return last
	}
	return d.AddDate(0, 0, 1).Format(model.DateLayout)
}

func ageInDays(purchaseDate string, today time.Time) int {
	d, err := time.Parse(model.DateLayout, purchaseDate)
	if err != nil {
		return 0
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(d).Hours() / 24)
}

func maintenancePriority(c model.Condition, usage string) string {
	switch {
	case c == model.ConditionNeedsRepair:
		return "HIGH"
	case c == model.ConditionPoor:
		return "MEDIUM"
	case c == model.ConditionFair && usage == usageHigh:
		return "MEDIUM"
	}
	return "LOW"
}

func recommendedAction(c model.Condition, age int, usage string) string {
	switch {
	case c == model.ConditionNeedsRepair:
		return "Immediate repair required"
	case c == model.ConditionPoor:
		return "Schedule maintenance"
	case age > 3*365 && usage == usageHigh:
		return "Consider replacement"
	case age > 2*365 && c == model.ConditionFair:
		return "Monitor condition closely"
	}
	return "Continue regular maintenance"
}

func replacementDate(purchaseDate string, c model.Condition) string {
	d, err := time.Parse(model.DateLayout, purchaseDate)
	if err != nil {
		return "Unknown"
	}
	years, ok := lifespanYears[c]
	if !ok {
		years = 5
	}
	return d.AddDate(years, 0, 0).Format(model.DateLayout)
}

// UsageSummary lists booking activity per item in hierarchy order.
func (x *Exporter) UsageSummary() Report {
	now := x.now()
	today := now.Format(model.DateLayout)
	byID := index(x.inv.ListEquipment())
	booked := make(map[string]bool)
	for _, a := range x.inv.Availability(today) {
		booked[a.Equipment.ID] = a.Booked
	}

	r := Report{
		Name:   "Usage Summary",
		Header: []string{"Equipment_ID", "Item_Name", "Parent_Equipment", "Total_Bookings", "Active_Bookings", "Last_Used", "Utilization_Rate", "Current_Status", "Next_Available"},
	}
	for i, e := range x.inv.OrderedHierarchy() {
		bookings := x.inv.BookingsFor(e.ID)
		display := e.Name
		if e.Level > 0 {
			display = strings.Repeat("  ", e.Level) + "└─ " + e.Name
		}
		parent := "None"
		if p, ok := byID[e.Parent()]; ok {
			parent = p.Name
		}
		status := "AVAILABLE"
		if booked[e.ID] {
			status = "IN_USE"
		}
		r.Rows = append(r.Rows, []string{
			fmt.Sprintf("EQ%03d", i+1),
			display,
			parent,
			strconv.Itoa(len(bookings)),
			strconv.Itoa(countActive(bookings)),
			lastUsed(bookings),
			utilizationRate(bookings),
			status,
			nextAvailable(bookings, today),
		})
	}
	return r
}

// ConditionReport lists maintenance information per item in insertion order.
func (x *Exporter) ConditionReport() Report {
	now := x.now()
	r := Report{
		Name:   "Condition Report",
		Header: []string{"Equipment_ID", "Item_Name", "Category", "Current_Condition", "Purchase_Date", "Age_In_Days", "Usage_Frequency", "Maintenance_Priority", "Recommended_Action", "Estimated_Replacement_Date"},
	}
	for i, e := range x.inv.ListEquipment() {
		usage := usageFrequency(x.inv.BookingsFor(e.ID), now)
		age := ageInDays(e.PurchaseDate, now)
		r.Rows = append(r.Rows, []string{
			fmt.Sprintf("EQ%03d", i+1),
			e.Name,
			e.Type,
			e.Condition.Label(),
			e.PurchaseDate,
			strconv.Itoa(age),
			usage,
			maintenancePriority(e.Condition, usage),
			recommendedAction(e.Condition, age, usage),
			replacementDate(e.PurchaseDate, e.Condition),
		})
	}
	return r
}

// SummaryDashboard reports inventory-wide counts as metric rows.
func (x *Exporter) SummaryDashboard() Report {
	today := x.now().Format(model.DateLayout)
	avail := x.inv.Availability(today)

	inUse, needsRepair, excellent := 0, 0, 0
	types := make(map[string]bool)
	for _, a := range avail {
		if a.Booked {
			inUse++
		}
		switch a.Equipment.Condition {
		case model.ConditionNeedsRepair:
			needsRepair++
		case model.ConditionExcellent:
			excellent++
		}
		types[strings.ToLower(a.Equipment.Type)] = true
	}
	bookings := x.inv.ListBookings("")

	utilization := "0.0"
	if len(avail) > 0 {
		utilization = fmt.Sprintf("%.1f", float64(inUse)/float64(len(avail))*100)
	}

	metrics := []struct {
		name, value, description string
	}{
		{"Total Equipment", strconv.Itoa(len(avail)), "Total number of equipment items in inventory"},
		{"Available Items", strconv.Itoa(len(avail) - inUse), "Equipment items available today"},
		{"Items In Use", strconv.Itoa(inUse), "Equipment items booked today"},
		{"Items Needing Repair", strconv.Itoa(needsRepair), "Equipment items that require maintenance or repair"},
		{"Items in Excellent Condition", strconv.Itoa(excellent), "Equipment items in excellent working condition"},
		{"Equipment Types", strconv.Itoa(len(types)), "Number of different equipment types"},
		{"Total Bookings", strconv.Itoa(len(bookings)), "Total number of equipment bookings made"},
		{"Active Bookings", strconv.Itoa(countActive(bookings)), "Bookings that have not been returned"},
		{"Utilization Rate (%)", utilization, "Percentage of equipment booked today"},
	}

	r := Report{
		Name:   "Summary Dashboard",
		Header: []string{"Metric", "Value", "Description", "Export_Date"},
	}
	for _, m := range metrics {
		r.Rows = append(r.Rows, []string{m.name, m.value, m.description, today})
	}
	return r
}
