package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/metrics"
	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/mw"
	"equipment-booking-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	inv     *inventory.Inventory
	metrics *metrics.Metrics
}

func setupRouter(t *testing.T) *testServer {
	t.Helper()
	inv, err := inventory.New(context.Background(), store.NewMemoryStore(nil), zap.NewNop(), inventory.Options{
		Now: func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	m := metrics.New()
	require.NoError(t, m.WatchInventory(inv))
	h := NewHandler(inv, m, zap.NewNop(), 1<<20)
	r := NewRouter(h, RouterConfig{RateLimit: rate.Inf, Burst: 1, Metrics: m.Handler()}, zap.NewNop())
	return &testServer{router: r, inv: inv, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createItem(t *testing.T, name, serial string, parent *string) model.Equipment {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/equipment", model.EquipmentInput{
		Name:         name,
		Type:         "Audio",
		SerialNumber: serial,
		ParentID:     parent,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var e model.Equipment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestEquipmentLifecycle(t *testing.T) {
	s := setupRouter(t)

	stand := s.createItem(t, "Speaker Stand", "SN-001", nil)
	clip := s.createItem(t, "Mic Clip", "SN-002", &stand.ID)
	assert.Equal(t, "good", string(clip.Condition))

	w := s.do(t, http.MethodGet, "/api/equipment/"+stand.ID+"/children", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var children []model.Equipment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &children))
	require.Len(t, children, 1)
	assert.Equal(t, clip.ID, children[0].ID)

	w = s.do(t, http.MethodGet, "/api/equipment/"+clip.ID+"/level", nil)
	assert.JSONEq(t, `{"id":"`+clip.ID+`","level":1}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/equipment/"+stand.ID+"/can-parent/"+clip.ID, nil)
	assert.Contains(t, w.Body.String(), `"allowed":false`)

	// Moving the stand under its own clip is a cycle.
	w = s.do(t, http.MethodPut, "/api/equipment/"+stand.ID, model.EquipmentInput{
		Name: "Speaker Stand", Type: "Audio", SerialNumber: "SN-001", ParentID: &clip.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodDelete, "/api/equipment/"+stand.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/hierarchy/roots", nil)
	var roots []model.Equipment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roots))
	require.Len(t, roots, 1)
	assert.Equal(t, clip.ID, roots[0].ID)
}

func TestCreateEquipment_Validation(t *testing.T) {
	s := setupRouter(t)

	w := s.do(t, http.MethodPost, "/api/equipment", map[string]string{"name": "Cable"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error  string                 `json:"error"`
		Fields []inventory.FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	var fields []string
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"type", "serialNumber"}, fields)
}

func TestMalformedBody(t *testing.T) {
	s := setupRouter(t)

	req, _ := http.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, w.Body.String())
}

func TestUnknownEquipment(t *testing.T) {
	s := setupRouter(t)

	for _, path := range []string{
		"/api/equipment/missing",
		"/api/equipment/missing/children",
		"/api/equipment/missing/level",
		"/api/equipment/missing/booked?date=2024-06-01",
	} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestBookingFlow(t *testing.T) {
	s := setupRouter(t)
	stand := s.createItem(t, "Speaker Stand", "SN-001", nil)

	w := s.do(t, http.MethodPost, "/api/bookings", model.BookingInput{
		Date: "2024-06-01", EquipmentIDs: []string{stand.ID}, Name: "Gig",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booking model.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.Equal(t, model.StatusRequested, booking.Status)

	w = s.do(t, http.MethodGet, "/api/equipment/"+stand.ID+"/booked?date=2024-06-01", nil)
	assert.Contains(t, w.Body.String(), `"booked":true`)

	w = s.do(t, http.MethodPost, "/api/bookings", model.BookingInput{
		Date: "2024-06-01", EquipmentIDs: []string{stand.ID}, Name: "Second gig",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), stand.ID)

	w = s.do(t, http.MethodPatch, "/api/bookings/"+booking.ID+"/status", statusRequest{Status: model.StatusReturned})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/availability?date=2024-06-01", nil)
	var avail []inventory.ItemAvailability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avail))
	require.Len(t, avail, 1)
	assert.False(t, avail[0].Booked)

	w = s.do(t, http.MethodGet, "/api/bookings?status=returned", nil)
	var list []model.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodPatch, "/api/bookings/"+booking.ID+"/status", statusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/bookings/"+booking.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/bookings/"+booking.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueryValidation(t *testing.T) {
	s := setupRouter(t)

	w := s.do(t, http.MethodGet, "/api/availability?date=01/06/2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/bookings?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)
	part, err := mp.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mp.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	return req
}

func TestImport(t *testing.T) {
	s := setupRouter(t)

	csv := "Name,Type,Serial Number,Parent_Item\n" +
		"Speaker Stand,Audio,SN-001,None\n" +
		"Mic Clip,Audio,SN-002,Speaker Stand (SN-001)\n" +
		",Audio,SN-003,\n"

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, uploadRequest(t, "gear.csv", csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		ImportedCount int      `json:"importedCount"`
		Errors        []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.ImportedCount)
	assert.Len(t, res.Errors, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.ImportedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ImportErrors))
	assert.Len(t, s.inv.Roots(), 1)
}

func TestImport_Rejections(t *testing.T) {
	s := setupRouter(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, uploadRequest(t, "gear.txt", "Name\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, uploadRequest(t, "gear.xlsx", "Name,Type,Serial\nx,y,z\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed xlsx file")

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, uploadRequest(t, "gear.csv", "Title,Owner\nx,y\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"missing"`)
}

func TestExport_CachedUntilWrite(t *testing.T) {
	s := setupRouter(t)
	s.createItem(t, "Speaker Stand", "SN-001", nil)

	w := s.do(t, http.MethodGet, "/api/export/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Master Inventory.csv")
	assert.Contains(t, w.Body.String(), "Speaker Stand")

	w = s.do(t, http.MethodGet, "/api/export/inventory", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	s.createItem(t, "Mic Clip", "SN-002", nil)
	w = s.do(t, http.MethodGet, "/api/export/inventory", nil)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "Mic Clip")
}

func TestExport_Formats(t *testing.T) {
	s := setupRouter(t)

	w := s.do(t, http.MethodGet, "/api/export/hierarchy?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	w = s.do(t, http.MethodGet, "/api/export/bookings?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/export/everything", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport_AnalysisReports(t *testing.T) {
	s := setupRouter(t)
	s.createItem(t, "Speaker Stand", "SN-001", nil)

	for kind, header := range map[string]string{
		"usage":     "Total_Bookings",
		"condition": "Maintenance_Priority",
		"summary":   "Metric,Value",
	} {
		w := s.do(t, http.MethodGet, "/api/export/"+kind, nil)
		require.Equal(t, http.StatusOK, w.Code, kind)
		assert.Contains(t, w.Body.String(), header, kind)
	}
}

func TestRouter_SharesRateLimiter(t *testing.T) {
	inv, err := inventory.New(context.Background(), store.NewMemoryStore(nil), zap.NewNop(), inventory.Options{})
	require.NoError(t, err)
	limiter := mw.NewIPRateLimiter(rate.Limit(1), 1)
	r := NewRouter(NewHandler(inv, nil, nil, 0), RouterConfig{Limiter: limiter}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/equipment", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, limiter.Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupRouter(t)
	s.createItem(t, "Speaker Stand", "SN-001", nil)

	w := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gearbook_equipment_items 1")
}

func TestRefresh(t *testing.T) {
	s := setupRouter(t)
	s.createItem(t, "Speaker Stand", "SN-001", nil)

	w := s.do(t, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"equipment":1,"bookings":0}`, w.Body.String())
}
