package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aurimar-Mr/backend-nube/internal/analysis"
	"github.com/Aurimar-Mr/backend-nube/internal/models"
	"github.com/Aurimar-Mr/backend-nube/internal/process"
	"github.com/Aurimar-Mr/backend-nube/internal/readings"
	"github.com/Aurimar-Mr/backend-nube/internal/storage"
	"github.com/Aurimar-Mr/backend-nube/internal/users"
	"github.com/Aurimar-Mr/backend-nube/internal/voice"
)

type stubClassifier struct {
	flag  int
	label string
}

func (c stubClassifier) Predict(analysis.Features) (int, string, error) {
	return c.flag, c.label, nil
}

type testServer struct {
	router http.Handler
	db     *gorm.DB
}

func newTestServer(t *testing.T, clf analysis.Classifier) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := storage.Migrate(db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tracker := process.NewTracker(db, logger)
	lecturas := readings.NewService(db, tracker, logger)
	h := &Handlers{
		Log:       logger,
		Tracker:   tracker,
		Lecturas:  lecturas,
		Predictor: analysis.NewPredictor(clf, tracker, lecturas, logger),
		Usuarios:  users.NewService(db, logger),
		Voz:       voice.NewService(db, logger),
		Alertas:   nil, // publishing disabled, as in deployments without Kafka
	}
	health := NewHealthState()
	health.SetReady(true)
	return &testServer{router: NewRouter(h, health), db: db}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// startProcessAt inserts an ACTIVO process with a controlled start time.
func (ts *testServer) startProcessAt(t *testing.T, start time.Time) *models.Proceso {
	t.Helper()
	marker := true
	p := &models.Proceso{FechaInicio: start, Estado: models.EstadoActivo, ActivoUnico: &marker}
	if err := ts.db.Create(p).Error; err != nil {
		t.Fatalf("insert process: %v", err)
	}
	return p
}

func (ts *testServer) insertLectura(t *testing.T, sensorID uint, procesoID uint, at time.Time, valor float64) {
	t.Helper()
	l := models.Lectura{SensorID: sensorID, ProcesoID: &procesoID, FechaHora: at, Valor: valor}
	if err := ts.db.Create(&l).Error; err != nil {
		t.Fatalf("insert lectura: %v", err)
	}
}

func TestProcesoLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})

	rec := ts.do(t, http.MethodPost, "/proceso/iniciar", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("iniciar status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/proceso/iniciar", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second iniciar status = %d, want 409", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/proceso/finalizar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalizar status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/proceso/finalizar", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("finalizar without active status = %d, want 404", rec.Code)
	}
}

func TestEstadoIsIdempotent(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})
	var first, second map[string]any
	rec := ts.do(t, http.MethodGet, "/proceso/estado", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("estado status = %d", rec.Code)
	}
	decode(t, rec, &first)
	decode(t, ts.do(t, http.MethodGet, "/proceso/estado", nil), &second)
	if first["proceso_activo"] != second["proceso_activo"] || first["mensaje"] != second["mensaje"] {
		t.Fatalf("estado changed without writes: %v vs %v", first, second)
	}
	if first["proceso_activo"] != false {
		t.Fatalf("expected inactive estado, got %v", first)
	}
}

func TestCrearLecturaValidation(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})

	rec := ts.do(t, http.MethodPost, "/lecturas", map[string]any{"valor": 12.5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing sensor_id status = %d, want 400", rec.Code)
	}

	// No active process: conflict, nothing persisted.
	rec = ts.do(t, http.MethodPost, "/lecturas", map[string]any{"sensor_id": 1, "valor": 12.5})
	if rec.Code != http.StatusConflict {
		t.Fatalf("no-process status = %d, want 409", rec.Code)
	}
	var count int64
	if err := ts.db.Model(&models.Lectura{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected reading persisted %d rows", count)
	}
}

func TestLecturaRoundTrip(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})
	if rec := ts.do(t, http.MethodPost, "/proceso/iniciar", nil); rec.Code != http.StatusCreated {
		t.Fatalf("iniciar status = %d", rec.Code)
	}

	rec := ts.do(t, http.MethodPost, "/lecturas", map[string]any{
		"sensor_id": 1, "valor": 120.0, "observaciones": "prueba",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("crear lectura status = %d body %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decode(t, rec, &created)

	rec = ts.do(t, http.MethodGet, "/lecturas/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("listar status = %d", rec.Code)
	}
	var listed []models.Lectura
	decode(t, rec, &listed)
	if len(listed) == 0 {
		t.Fatal("round trip returned no readings")
	}
	if float64(listed[0].ID) != created["id"].(float64) {
		t.Fatalf("just-created reading must be first, got id %d", listed[0].ID)
	}
}

func TestLecturasPorSensorEmptyWithoutProcess(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})
	rec := ts.do(t, http.MethodGet, "/lecturas/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with empty list", rec.Code)
	}
	var listed []models.Lectura
	decode(t, rec, &listed)
	if len(listed) != 0 {
		t.Fatalf("expected empty list, got %d", len(listed))
	}
}

func TestLecturasBadSensorID(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})
	if rec := ts.do(t, http.MethodGet, "/lecturas/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalizarNoProcess(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})
	rec := ts.do(t, http.MethodGet, "/analizar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analizar without process must answer 200, got %d", rec.Code)
	}
	var res analysis.Result
	decode(t, rec, &res)
	if res.AlertaIA != 0 || res.DiaProceso != 0 {
		t.Fatalf("expected flag 0 day 0, got %+v", res)
	}
	if res.MensajeLectura == "" || res.Recomendacion == "" {
		t.Fatalf("inactive payload must explain itself: %+v", res)
	}
}

func TestAnalizarPendingData(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})
	p := ts.startProcessAt(t, time.Now().UTC().Add(-time.Hour))
	now := time.Now().UTC()
	ts.insertLectura(t, models.SensorTemperatura, p.ID, now, 34.5)
	ts.insertLectura(t, models.SensorPresion, p.ID, now, 30.0)

	rec := ts.do(t, http.MethodGet, "/analizar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res analysis.Result
	decode(t, rec, &res)
	if res.AlertaIA != 0 || res.DiaProceso != 0 {
		t.Fatalf("pending payload must carry flag 0 day 0, got %+v", res)
	}
	if res.TipoEstado != "Datos pendientes" {
		t.Fatalf("expected pending-data payload, got %+v", res)
	}
}

func TestAnalizarCompleteScenario(t *testing.T) {
	ts := newTestServer(t, stubClassifier{flag: 1, label: "riesgo_metano"})
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	p := ts.startProcessAt(t, start)

	at := time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC)
	ts.insertLectura(t, models.SensorGas, p.ID, at, 120.0)
	ts.insertLectura(t, models.SensorTemperatura, p.ID, at, 950.0)
	ts.insertLectura(t, models.SensorPresion, p.ID, at, 34.5)

	rec := ts.do(t, http.MethodGet, "/analizar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var res analysis.Result
	decode(t, rec, &res)
	if res.DiaProceso != 2 {
		t.Fatalf("expected day 2, got %d", res.DiaProceso)
	}
	if res.AlertaIA != 1 || res.TipoAlertaModelo != "riesgo_metano" {
		t.Fatalf("classification missing from payload: %+v", res)
	}
	if res.TipoEstado == "" || res.Recomendacion == "" {
		t.Fatalf("recommendation fields missing: %+v", res)
	}
}

func TestAnalizarModelUnavailable(t *testing.T) {
	ts := newTestServer(t, nil)
	p := ts.startProcessAt(t, time.Now().UTC().Add(-time.Hour))
	now := time.Now().UTC()
	ts.insertLectura(t, models.SensorGas, p.ID, now, 120.0)
	ts.insertLectura(t, models.SensorTemperatura, p.ID, now, 34.5)
	ts.insertLectura(t, models.SensorPresion, p.ID, now, 30.0)

	rec := ts.do(t, http.MethodGet, "/analizar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded mode must still answer 200, got %d", rec.Code)
	}
	var res analysis.Result
	decode(t, rec, &res)
	if res.TipoEstado != "Error de Sistema" {
		t.Fatalf("expected system-error payload, got %+v", res)
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})

	rec := ts.do(t, http.MethodPost, "/register", map[string]any{
		"nombre": "Aurimar", "telefono": "70000001",
		"password": "secreta123", "confirm_password": "secreta123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/register", map[string]any{
		"nombre": "Otra", "telefono": "70000001",
		"password": "x12345", "confirm_password": "x12345",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate phone status = %d, want 409", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/register", map[string]any{
		"nombre": "Mal", "telefono": "70000002",
		"password": "uno", "confirm_password": "dos",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("password mismatch status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/login", map[string]any{
		"telefono": "70000001", "password": "secreta123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/login", map[string]any{
		"telefono": "70000001", "password": "incorrecta",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/password/reset-request", map[string]any{"telefono": "70000001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset-request status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodPost, "/password/reset-request", map[string]any{"telefono": "79999999"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown phone status = %d, want 404", rec.Code)
	}

	rec = ts.do(t, http.MethodPatch, "/password", map[string]any{
		"telefono": "70000001", "nueva_contrasena": "nueva123", "confirmar_contrasena": "nueva123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("password change status = %d body %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, "/login", map[string]any{
		"telefono": "70000001", "password": "nueva123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password status = %d", rec.Code)
	}
}

func TestVoiceConfigEndpoints(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})

	var cfg models.VoiceConfig
	rec := ts.do(t, http.MethodGet, "/voice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get voice status = %d", rec.Code)
	}
	decode(t, rec, &cfg)
	if cfg.VoiceGender != "FEMALE" || cfg.VoicePitch != 1.0 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	rec = ts.do(t, http.MethodPost, "/voice", map[string]any{"voice_gender": "MALE", "voice_pitch": 0.8})
	if rec.Code != http.StatusOK {
		t.Fatalf("save voice status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/voice", map[string]any{"voice_gender": "MALE"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing pitch status = %d, want 400", rec.Code)
	}

	decode(t, ts.do(t, http.MethodGet, "/voice", nil), &cfg)
	if cfg.VoiceGender != "MALE" || cfg.VoicePitch != 0.8 {
		t.Fatalf("saved config not visible: %+v", cfg)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, stubClassifier{})
	if rec := ts.do(t, http.MethodGet, "/health/live", nil); rec.Code != http.StatusOK {
		t.Fatalf("live status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/health/ready", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}
