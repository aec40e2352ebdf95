package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/model"
)

type staticSource inventory.Snapshot

func (s staticSource) Snapshot() inventory.Snapshot { return inventory.Snapshot(s) }

func TestInventoryCollector(t *testing.T) {
	parent := "a"
	src := staticSource{
		Equipment: []model.Equipment{
			{ID: "a", Name: "Case"},
			{ID: "b", Name: "Cable", ParentID: &parent},
		},
		Bookings: []model.Booking{
			{ID: "k1", Status: model.StatusRequested},
			{ID: "k2", Status: model.StatusRequested},
			{ID: "k3", Status: model.StatusReturned},
		},
	}

	m := New()
	require.NoError(t, m.WatchInventory(src))

	expected := `
# HELP gearbook_bookings Bookings by status.
# TYPE gearbook_bookings gauge
gearbook_bookings{status="dispatched"} 0
gearbook_bookings{status="packed"} 0
gearbook_bookings{status="requested"} 2
gearbook_bookings{status="returned"} 1
# HELP gearbook_equipment_items Equipment items in the inventory.
# TYPE gearbook_equipment_items gauge
gearbook_equipment_items 2
# HELP gearbook_equipment_roots Top-level equipment items.
# TYPE gearbook_equipment_roots gauge
gearbook_equipment_roots 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"gearbook_bookings", "gearbook_equipment_items", "gearbook_equipment_roots")
	assert.NoError(t, err)
}

func TestObservePersistError(t *testing.T) {
	m := New()
	m.ObservePersistError("bookings", errors.New("boom"))
	m.ObservePersistError("bookings", errors.New("boom"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PersistFailures.WithLabelValues("bookings")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ImportedRows.Add(3)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gearbook_import_rows_total 3")
}
