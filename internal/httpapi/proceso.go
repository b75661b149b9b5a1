package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Aurimar-Mr/backend-nube/internal/metrics"
	"github.com/Aurimar-Mr/backend-nube/internal/process"
)

// IniciarProceso starts a new biodigestor run.
func (h *Handlers) IniciarProceso(w http.ResponseWriter, r *http.Request) {
	p, err := h.Tracker.Start(r.Context())
	if errors.Is(err, process.ErrActiveExists) {
		writeError(w, http.StatusConflict, "Ya existe un proceso activo.")
		return
	}
	if err != nil {
		h.Log.Error("iniciar_proceso_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error interno al iniciar el proceso.")
		return
	}
	metrics.SetProcesoActivo(true)
	writeJSON(w, http.StatusCreated, p)
}

// FinalizarProceso finishes the active run.
func (h *Handlers) FinalizarProceso(w http.ResponseWriter, r *http.Request) {
	p, err := h.Tracker.Finish(r.Context())
	if errors.Is(err, process.ErrNoActive) {
		writeError(w, http.StatusNotFound, "No hay procesos activos para finalizar.")
		return
	}
	if err != nil {
		h.Log.Error("finalizar_proceso_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error interno al finalizar el proceso.")
		return
	}
	metrics.SetProcesoActivo(false)
	writeJSON(w, http.StatusOK, p)
}

// EstadoProceso reports whether a run is currently active.
func (h *Handlers) EstadoProceso(w http.ResponseWriter, r *http.Request) {
	_, err := h.Tracker.Active(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"proceso_activo": true,
			"mensaje":        "Proceso activo.",
		})
	case errors.Is(err, process.ErrNoActive):
		writeJSON(w, http.StatusOK, map[string]any{
			"proceso_activo": false,
			"mensaje":        "Proceso inactivo o finalizado.",
		})
	default:
		h.Log.Error("estado_proceso_failed", slog.Any("err", err))
		writeErrorDetail(w, http.StatusInternalServerError,
			"Error interno del servidor al verificar el estado.", "consulta de proceso fallida")
	}
}
