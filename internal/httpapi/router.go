// Package httpapi exposes the service over HTTP: process lifecycle,
// reading ingestion and queries, analysis, authentication, and the
// voice preference, plus health and metrics surfaces.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/Aurimar-Mr/backend-nube/internal/analysis"
	"github.com/Aurimar-Mr/backend-nube/internal/events"
	"github.com/Aurimar-Mr/backend-nube/internal/metrics"
	"github.com/Aurimar-Mr/backend-nube/internal/process"
	"github.com/Aurimar-Mr/backend-nube/internal/readings"
	"github.com/Aurimar-Mr/backend-nube/internal/users"
	"github.com/Aurimar-Mr/backend-nube/internal/voice"
)

// Handlers bundles the dependencies of all HTTP endpoints.
type Handlers struct {
	Log       *slog.Logger
	Tracker   *process.Tracker
	Lecturas  *readings.Service
	Predictor *analysis.Predictor
	Usuarios  *users.Service
	Voz       *voice.Service
	Alertas   *events.Publisher
}

// NewRouter wires every route exposed by the backend. Method-qualified
// patterns make the mux itself reject wrong verbs with 405.
func NewRouter(h *Handlers, health *HealthState) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /health", healthLiveHandler())
	mux.Handle("GET /health/live", healthLiveHandler())
	mux.Handle("GET /health/ready", healthReadyHandler(health))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /proceso/iniciar", h.IniciarProceso)
	mux.HandleFunc("POST /proceso/finalizar", h.FinalizarProceso)
	mux.HandleFunc("GET /proceso/estado", h.EstadoProceso)

	mux.HandleFunc("POST /lecturas", h.CrearLectura)
	mux.HandleFunc("GET /lecturas", h.ListarLecturas)
	mux.HandleFunc("GET /lecturas/{sensor_id}", h.LecturasPorSensor)
	mux.HandleFunc("DELETE /lecturas/{sensor_id}", h.EliminarLecturasSensor)

	mux.HandleFunc("GET /analizar", h.Analizar)

	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /password/reset-request", h.VerificarTelefono)
	mux.HandleFunc("PATCH /password", h.CambiarContrasena)

	mux.HandleFunc("GET /voice", h.GetVoiceConfig)
	mux.HandleFunc("POST /voice", h.SaveVoiceConfig)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "recurso no encontrado")
	})
	return mux
}
