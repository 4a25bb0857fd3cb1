package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/trip-hazards/internal/config"
	"github.com/jengzang/trip-hazards/internal/database"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/middleware"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    *Services
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.JWTSecret = testSecret
	cfg.RateLimit = 0

	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	svc := NewServices(cfg, db, collector)
	token, err := middleware.IssueToken([]byte(testSecret), "tester", time.Hour)
	require.NoError(t, err)

	return &testServer{t: t, router: SetupRouter(cfg, svc), svc: svc, token: token}
}

func (s *testServer) do(method, target string, body io.Reader, authed bool, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) decode(w *httptest.ResponseRecorder, wantStatus int, into interface{}) envelope {
	s.t.Helper()
	require.Equal(s.t, wantStatus, w.Code, w.Body.String())
	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	if into != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, into))
	}
	return env
}

// leftTurn drives 100 m east and then 100 m north in 10 m steps.
func leftTurn(speed float64) string {
	frame := spatial.NewYorkFrame
	at := func(x, y float64) models.Sample {
		return models.Sample{Lon: -77.5 + x/frame.LonMeters, Lat: 43.1 + y/frame.LatMeters, Speed: speed}
	}
	var path models.Path
	for i := 0; i <= 10; i++ {
		path = append(path, at(float64(i)*10, 0))
	}
	for i := 1; i <= 10; i++ {
		path = append(path, at(100, float64(i)*10))
	}

	var buf bytes.Buffer
	if err := kml.Write(&buf, kml.NewDocument("", path, kml.DefaultStyles())); err != nil {
		panic(err)
	}
	return buf.String()
}

func (s *testServer) upload(query string, speed float64) models.Trip {
	s.t.Helper()
	var trip models.Trip
	w := s.do(http.MethodPost, "/api/v1/trips"+query, strings.NewReader(leftTurn(speed)), true, "application/xml")
	s.decode(w, http.StatusCreated, &trip)
	return trip
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", nil, false, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestUploadTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/trips", strings.NewReader(leftTurn(10)), false, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	trip := s.upload("?name=monday", 10)
	assert.Equal(t, "monday", trip.Name)
	assert.Equal(t, 21, trip.SampleCount)

	var page models.TripsResponse
	s.decode(s.do(http.MethodGet, "/api/v1/trips", nil, false, ""), http.StatusOK, &page)
	assert.EqualValues(t, 1, page.Total)

	var got models.Trip
	s.decode(s.do(http.MethodGet, "/api/v1/trips/1", nil, false, ""), http.StatusOK, &got)
	assert.Equal(t, trip.ID, got.ID)

	w = s.do(http.MethodGet, "/api/v1/trips/1/path", nil, false, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"samples":[{`)
}

func TestUploadTrip_Multipart(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "tuesday.kml")
	require.NoError(t, err)
	_, err = io.WriteString(part, leftTurn(10))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	var trip models.Trip
	s.decode(s.do(http.MethodPost, "/api/v1/trips", &body, true, mw.FormDataContentType()), http.StatusCreated, &trip)
	assert.Equal(t, "tuesday", trip.Name)
	assert.Equal(t, "tuesday.kml", trip.Source)
}

func TestUploadTrip_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"not kml", "", "{}", http.StatusBadRequest},
		{"no track", "", `<kml><Document/></kml>`, http.StatusBadRequest},
		{"bad coordinates", "", `<kml><Document><Placemark><LineString><coordinates>1,x,0</coordinates></LineString></Placemark></Document></kml>`, http.StatusBadRequest},
		{"unknown format", "?format=gpx", leftTurn(10), http.StatusBadRequest},
		{"bad clean flag", "?clean=maybe", leftTurn(10), http.StatusBadRequest},
		{"rejected by cleaning", "?clean=true", leftTurn(10), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/trips"+tt.query, strings.NewReader(tt.body), true, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestGetTrip_Errors(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/trips/abc", nil, false, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/trips/99", nil, false, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/trips/99/hazards.kml", nil, false, "").Code)
}

func TestHazards(t *testing.T) {
	s := newTestServer(t)
	s.upload("", 10)

	var listed struct {
		Hazards []models.StoredHazard `json:"hazards"`
	}
	s.decode(s.do(http.MethodGet, "/api/v1/trips/1/hazards", nil, false, ""), http.StatusOK, &listed)
	assert.Empty(t, listed.Hazards)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/trips/1/hazards", nil, false, "").Code)

	var detected struct {
		Hazards []models.Hazard `json:"hazards"`
	}
	s.decode(s.do(http.MethodPost, "/api/v1/trips/1/hazards", nil, true, ""), http.StatusOK, &detected)
	require.Len(t, detected.Hazards, 1)
	assert.Equal(t, models.HazardLeftTurn, detected.Hazards[0].Kind)

	w := s.do(http.MethodGet, "/api/v1/trips/1/hazards.kml", nil, false, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", w.Header().Get("Content-Type"))
	path, err := kml.Decode(w.Body)
	require.NoError(t, err)
	assert.Len(t, path, 21)

	w = s.do(http.MethodGet, "/api/v1/trips/1/hazards?format=geojson&simplify=1", nil, false, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "left_turn", fc.Features[1].Properties["kind"])

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/trips/1/hazards?format=svg", nil, false, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/trips/1/hazards?format=geojson&simplify=-1", nil, false, "").Code)

	var totals models.HazardTotals
	s.decode(s.do(http.MethodGet, "/api/v1/stats", nil, false, ""), http.StatusOK, &totals)
	assert.Equal(t, 1, totals.Trips)
	assert.Equal(t, 1, totals.Hazards[models.HazardLeftTurn])
}

func TestBestTrip(t *testing.T) {
	s := newTestServer(t)
	s.upload("?batch=commute&name=slow", 10)
	s.upload("?batch=commute&name=fast", 25)
	s.upload("?batch=other&name=fastest", 60)

	for _, workers := range []string{"", "?workers=1", "?workers=8"} {
		var best models.BestTrip
		s.decode(s.do(http.MethodGet, "/api/v1/batches/commute/best"+workers, nil, false, ""), http.StatusOK, &best)
		assert.Equal(t, "fast", best.Trip.Name)
		assert.Equal(t, 2, best.Candidates)
	}

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/batches/commute/best?workers=0", nil, false, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/batches/missing/best", nil, false, "").Code)

	var summary models.BatchStats
	s.decode(s.do(http.MethodGet, "/api/v1/batches/commute/stats", nil, false, ""), http.StatusOK, &summary)
	assert.Equal(t, 2, summary.Trips)
	assert.Equal(t, 0, summary.Scored)
}

func TestAnalysisTasks(t *testing.T) {
	s := newTestServer(t)
	s.upload("?batch=b", 10)

	body := `{"skill_name":"trip_cost","task_type":"FULL_RECOMPUTE"}`
	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodPost, "/api/admin/analysis/tasks", strings.NewReader(body), false, "application/json").Code)

	var task models.AnalysisTask
	s.decode(s.do(http.MethodPost, "/api/admin/analysis/tasks", strings.NewReader(body), true, "application/json"), http.StatusCreated, &task)
	assert.Equal(t, "tester", task.CreatedBy)

	unknown := `{"skill_name":"nope","task_type":"FULL_RECOMPUTE"}`
	assert.Equal(t, http.StatusBadRequest,
		s.do(http.MethodPost, "/api/admin/analysis/tasks", strings.NewReader(unknown), true, "application/json").Code)

	var chain struct {
		TaskIDs []int64 `json:"task_ids"`
	}
	s.decode(s.do(http.MethodPost, "/api/admin/analysis/trigger-chain", strings.NewReader(`{"task_type":"INCREMENTAL"}`), true, "application/json"),
		http.StatusCreated, &chain)
	assert.Len(t, chain.TaskIDs, 3)
	s.svc.Tasks.Wait()

	var got models.AnalysisTask
	s.decode(s.do(http.MethodGet, "/api/admin/analysis/tasks/1", nil, true, ""), http.StatusOK, &got)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)

	var listed struct {
		Tasks []models.AnalysisTask `json:"tasks"`
	}
	s.decode(s.do(http.MethodGet, "/api/admin/analysis/tasks?skill_name=trip_cost", nil, true, ""), http.StatusOK, &listed)
	assert.Len(t, listed.Tasks, 2)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/admin/analysis/tasks/1", nil, true, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/admin/analysis/tasks/99", nil, true, "").Code)

	var summary models.BatchStats
	s.decode(s.do(http.MethodGet, "/api/v1/batches/b/stats", nil, false, ""), http.StatusOK, &summary)
	assert.Equal(t, 1, summary.Scored)
}

func TestImportBatch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/admin/batches", strings.NewReader(`{"dir":"/definitely/not/here"}`), true, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/admin/batches", strings.NewReader(`{}`), true, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.upload("", 10)

	w := s.do(http.MethodGet, "/metrics", nil, false, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "trips_imported_total 1")
	assert.Contains(t, w.Body.String(), `route="/api/v1/trips"`)
}
