package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mr1hm/quake-explorer/internal/dashboard"
	"github.com/mr1hm/quake-explorer/internal/geodata"
	internalgrpc "github.com/mr1hm/quake-explorer/internal/grpc"
	"github.com/mr1hm/quake-explorer/internal/ingestion"
	"github.com/mr1hm/quake-explorer/internal/models"
)

// mockPresets implements repository.PresetRepository for testing
type mockPresets struct {
	presets []models.Preset
}

func (m *mockPresets) Add(ctx context.Context, p *models.Preset) error {
	if p.ID == "" {
		p.ID = "preset-" + p.Name
	}
	m.presets = append(m.presets, *p)
	return nil
}

func (m *mockPresets) GetByID(ctx context.Context, id string) (*models.Preset, error) {
	for _, p := range m.presets {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockPresets) List(ctx context.Context, limit int) ([]models.Preset, error) {
	if limit > 0 && len(m.presets) > limit {
		return m.presets[:limit], nil
	}
	return m.presets, nil
}

func (m *mockPresets) Delete(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func testCatalog() *models.Catalog {
	return ingestion.NewCatalog([]models.EarthquakeRecord{
		{Year: 2004, Month: 12, Day: 26, Latitude: 0, Longitude: 0, Magnitude: 9.1, Location: "INDONESIA: SUMATRA", Deaths: 227898, Tsunami: true},
		{Year: 2010, Month: 1, Day: 12, Latitude: 0, Longitude: 60, Magnitude: 7.0, Location: "HAITI", Deaths: 316000},
		{Year: 2011, Month: 3, Day: 11, Latitude: 0, Longitude: -60, Magnitude: 9.1, Location: "JAPAN: HONSHU", Deaths: 18428, Tsunami: true},
	})
}

type testEnv struct {
	router      *gin.Engine
	sync        *dashboard.Synchronizer
	presets     *mockPresets
	broadcaster *internalgrpc.Broadcaster
}

func setupTestRouter(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	sync := dashboard.New(testCatalog())
	t.Cleanup(sync.Close)
	broadcaster := internalgrpc.NewBroadcaster()
	sync.AddRenderer("stream", broadcaster)

	presets := &mockPresets{}
	router := gin.New()
	handler := NewHandler(sync, presets, &geodata.Store{}, broadcaster)
	handler.RegisterRoutes(router)

	return &testEnv{router: router, sync: sync, presets: presets, broadcaster: broadcaster}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) dashboard.Snapshot {
	t.Helper()
	var s dashboard.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("failed to parse snapshot: %v", err)
	}
	return s
}

func TestHealth(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestGetCatalog(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/catalog", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Records int          `json:"records"`
		Years   []int        `json:"years"`
		Fields  []fieldInfo  `json:"fields"`
		Metrics []metricInfo `json:"metrics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Records != 3 {
		t.Errorf("expected 3 records, got %d", resp.Records)
	}
	if len(resp.Fields) != len(models.Fields) {
		t.Errorf("expected %d fields, got %d", len(models.Fields), len(resp.Fields))
	}
	if resp.Fields[0].Name != models.FieldMagnitude || resp.Fields[0].Step != 0.1 {
		t.Errorf("unexpected magnitude slider: %+v", resp.Fields[0])
	}
	if resp.Fields[0].Max != 9.1 {
		t.Errorf("expected magnitude max 9.1, got %v", resp.Fields[0].Max)
	}
	if len(resp.Metrics) != len(models.Metrics) {
		t.Errorf("expected %d metrics, got %d", len(models.Metrics), len(resp.Metrics))
	}
}

func TestGetMarkers_ReturnsGeoJSON(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/markers", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected content-type application/geo+json, got %s", ct)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}

	first := fc.Features[0]
	if first.Properties["color"] != "#F44336" {
		t.Errorf("expected major color, got %v", first.Properties["color"])
	}
	if first.Properties["tsunami_ring"] != 12.0 {
		t.Errorf("expected tsunami ring 12, got %v", first.Properties["tsunami_ring"])
	}
	if _, ok := fc.Features[1].Properties["tsunami_ring"]; ok {
		t.Error("expected no tsunami ring without a tsunami")
	}
}

func TestFilters_YearsAndHazards(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("PUT", "/api/filters/years", `{"start": 2005, "end": 2011}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if s := decodeSnapshot(t, w); s.Effective != 2 {
		t.Errorf("expected 2 records after year filter, got %d", s.Effective)
	}

	w = env.do("PUT", "/api/filters/hazards", `{"tsunami": true}`)
	if s := decodeSnapshot(t, w); s.Effective != 1 {
		t.Errorf("expected 1 tsunami record, got %d", s.Effective)
	}
}

func TestFilters_Range(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("PUT", "/api/filters/ranges/magnitude", `{"min": 8, "max": 10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if s := decodeSnapshot(t, w); s.Effective != 2 {
		t.Errorf("expected 2 records with magnitude >= 8, got %d", s.Effective)
	}

	w = env.do("PUT", "/api/filters/ranges/shaking", `{"min": 0, "max": 1}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown field, got %d", w.Code)
	}

	w = env.do("DELETE", "/api/filters/ranges", "")
	if s := decodeSnapshot(t, w); s.Effective != 3 {
		t.Errorf("expected reset to restore 3 records, got %d", s.Effective)
	}
}

func TestCharts(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("PUT", "/api/charts/metric", `{"metric": "deaths"}`)
	s := decodeSnapshot(t, w)
	if s.Top.Items[0].Record.Location != "HAITI" {
		t.Errorf("expected HAITI to rank first by deaths, got %s", s.Top.Items[0].Record.Location)
	}

	w = env.do("PUT", "/api/charts/metric", `{"metric": "aftershocks"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown metric, got %d", w.Code)
	}

	w = env.do("PUT", "/api/charts/top", `{"n": 2}`)
	if s := decodeSnapshot(t, w); s.Top.N != 2 || len(s.Top.Items) != 2 {
		t.Errorf("expected top 2, got N=%d items=%d", s.Top.N, len(s.Top.Items))
	}

	w = env.do("PUT", "/api/charts/top", `{"n": "lots"}`)
	if s := decodeSnapshot(t, w); s.Top.N != 10 {
		t.Errorf("expected invalid N to fall back to 10, got %d", s.Top.N)
	}

	w = env.do("PUT", "/api/charts/scatter", `{"x": "depth", "y": "injuries"}`)
	if s := decodeSnapshot(t, w); s.Scatter.XField != models.FieldDepth {
		t.Errorf("expected depth on x, got %s", s.Scatter.XField)
	}
}

func TestBrush_SelectsRegion(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/brush/begin", "")
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409 beginning an unarmed brush, got %d", w.Code)
	}

	env.do("PUT", "/api/view/mode", `{"mode": "globe"}`)
	env.do("POST", "/api/brush/toggle", "")
	w = env.do("POST", "/api/brush/begin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = env.do("POST", "/api/view/zoom", `{"delta": 0.2}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409 zooming mid-selection, got %d", w.Code)
	}

	// lon 0, lat 0 lands on the globe centre
	w = env.do("POST", "/api/brush/release", `{"x0": 350, "y0": 200, "x1": 450, "y1": 300}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	s := decodeSnapshot(t, w)
	if s.Effective != 1 || s.Markers[0].Record.Location != "INDONESIA: SUMATRA" {
		t.Errorf("expected only the centred record, got %d records", s.Effective)
	}

	w = env.do("POST", "/api/brush/outside", "")
	if s := decodeSnapshot(t, w); s.Effective != 3 || s.Brush.Phase != "idle" {
		t.Errorf("expected cancel to restore 3 records in idle, got %d in %s", s.Effective, s.Brush.Phase)
	}
}

func TestView(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("PUT", "/api/view/mode", `{"mode": "map"}`)
	if s := decodeSnapshot(t, w); s.View.Mode != dashboard.ViewMap {
		t.Errorf("expected map mode, got %s", s.View.Mode)
	}

	w = env.do("PUT", "/api/view/mode", `{"mode": "cube"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown mode, got %d", w.Code)
	}

	w = env.do("POST", "/api/view/drag", `{"dx": 0, "dy": 10}`)
	if s := decodeSnapshot(t, w); s.View.MapTranslateY != 260 {
		t.Errorf("expected translate 260, got %v", s.View.MapTranslateY)
	}

	w = env.do("POST", "/api/view/zoom", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad body, got %d", w.Code)
	}
}

func TestAnimation_PlayPause(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/animation/play", `{"speed": 2000}`)
	s := decodeSnapshot(t, w)
	if !s.Animation.Playing || s.Animation.Speed != 2000 {
		t.Errorf("expected playing at 2000, got %+v", s.Animation)
	}

	w = env.do("POST", "/api/animation/pause", "")
	if s := decodeSnapshot(t, w); s.Animation.Playing {
		t.Error("expected animation paused")
	}
}

func TestPresets(t *testing.T) {
	env := setupTestRouter(t)

	env.do("PUT", "/api/filters/hazards", `{"tsunami": true}`)
	w := env.do("POST", "/api/presets", `{"name": "tsunamis"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	var created models.Preset
	json.Unmarshal(w.Body.Bytes(), &created)

	env.do("PUT", "/api/filters/hazards", `{}`)
	if env.sync.Current().Effective != 3 {
		t.Fatal("expected hazards cleared")
	}

	w = env.do("POST", "/api/presets/"+created.ID+"/apply", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if s := decodeSnapshot(t, w); s.Effective != 2 || !s.Filters.Hazards.Tsunami {
		t.Errorf("expected preset to restore the tsunami filter, got %d records", s.Effective)
	}

	w = env.do("GET", "/api/presets", "")
	var list []models.Preset
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 preset, got %d", len(list))
	}

	if w := env.do("GET", "/api/presets/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if w := env.do("POST", "/api/presets", `{"name": "  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for blank name, got %d", w.Code)
	}
}

func TestPresets_Unavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sync := dashboard.New(testCatalog())
	defer sync.Close()

	router := gin.New()
	NewHandler(sync, nil, nil, nil).RegisterRoutes(router)

	for _, path := range []string{"/api/presets", "/api/geo/world", "/api/geo/plates", "/api/stream"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected status 503, got %d", path, w.Code)
		}
	}
}

func TestGeo_NotLoaded(t *testing.T) {
	env := setupTestRouter(t)

	if w := env.do("GET", "/api/geo/plates", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/export/top.xlsx", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("expected a zip container")
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sync := dashboard.New(testCatalog())
	defer sync.Close()

	router := NewRouter(NewHandler(sync, nil, nil, nil), 1)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK {
		t.Errorf("expected first request to pass, got %d", codes[0])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected status 429 once the bucket is empty, got %d", codes[2])
	}
}

func TestStream_PushesSnapshots(t *testing.T) {
	env := setupTestRouter(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first dashboard.Snapshot
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("failed to read initial snapshot: %v", err)
	}
	if first.Effective != 3 {
		t.Errorf("expected initial snapshot with 3 records, got %d", first.Effective)
	}

	// wait for the subscription before triggering a render
	deadline := time.Now().Add(2 * time.Second)
	for env.broadcaster.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	env.sync.SetYearRange(context.Background(), 2010, 2011)

	var next dashboard.Snapshot
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("failed to read pushed snapshot: %v", err)
	}
	if next.Effective != 2 {
		t.Errorf("expected pushed snapshot with 2 records, got %d", next.Effective)
	}
	if next.Fingerprint == first.Fingerprint {
		t.Error("expected a new fingerprint after the filter changed")
	}
}
