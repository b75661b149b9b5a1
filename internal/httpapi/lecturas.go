package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Aurimar-Mr/backend-nube/internal/metrics"
	"github.com/Aurimar-Mr/backend-nube/internal/readings"
)

type crearLecturaRequest struct {
	SensorID      *uint    `json:"sensor_id"`
	Valor         *float64 `json:"valor"`
	Observaciones string   `json:"observaciones"`
}

// CrearLectura registers one sensor reading against the active process.
func (h *Handlers) CrearLectura(w http.ResponseWriter, r *http.Request) {
	var req crearLecturaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo JSON inválido.")
		return
	}
	if req.SensorID == nil || *req.SensorID == 0 || req.Valor == nil {
		writeError(w, http.StatusBadRequest, "Faltan datos obligatorios")
		return
	}

	l, err := h.Lecturas.Register(r.Context(), *req.SensorID, *req.Valor, req.Observaciones)
	if errors.Is(err, readings.ErrNoActiveProcess) {
		writeError(w, http.StatusConflict, "No hay proceso biodigestor activo. No se puede registrar lectura.")
		return
	}
	if err != nil {
		h.Log.Error("crear_lectura_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error interno al registrar la lectura.")
		return
	}
	metrics.IncLectura(strconv.FormatUint(uint64(l.SensorID), 10))
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Lectura registrada exitosamente",
		"id":            l.ID,
		"sensor_id":     l.SensorID,
		"valor":         l.Valor,
		"fecha_hora":    l.FechaHora,
		"observaciones": l.Observaciones,
	})
}

// ListarLecturas returns every stored reading, newest first.
func (h *Handlers) ListarLecturas(w http.ResponseWriter, r *http.Request) {
	lecturas, err := h.Lecturas.All(r.Context())
	if err != nil {
		h.Log.Error("listar_lecturas_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error interno al obtener las lecturas.")
		return
	}
	writeJSON(w, http.StatusOK, lecturas)
}

// LecturasPorSensor returns the newest readings of one sensor, scoped
// to the active process and capped at 20 items.
func (h *Handlers) LecturasPorSensor(w http.ResponseWriter, r *http.Request) {
	sensorID, ok := sensorIDFromPath(w, r)
	if !ok {
		return
	}
	lecturas, err := h.Lecturas.LatestBySensor(r.Context(), sensorID, readings.ListLimit)
	if err != nil {
		h.Log.Error("lecturas_por_sensor_failed", slog.Any("err", err), slog.Int("sensor_id", int(sensorID)))
		writeError(w, http.StatusInternalServerError, "Error interno al obtener lecturas del sensor.")
		return
	}
	writeJSON(w, http.StatusOK, lecturas)
}

// EliminarLecturasSensor bulk-deletes one sensor's readings.
func (h *Handlers) EliminarLecturasSensor(w http.ResponseWriter, r *http.Request) {
	sensorID, ok := sensorIDFromPath(w, r)
	if !ok {
		return
	}
	n, err := h.Lecturas.PurgeSensor(r.Context(), sensorID)
	if err != nil {
		h.Log.Error("eliminar_lecturas_failed", slog.Any("err", err), slog.Int("sensor_id", int(sensorID)))
		writeError(w, http.StatusInternalServerError, "Error interno al eliminar lecturas del sensor.")
		return
	}
	metrics.AddLecturasPurgadas(strconv.FormatUint(uint64(sensorID), 10), n)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Lecturas eliminadas.",
		"sensor_id":  sensorID,
		"eliminadas": n,
	})
}

func sensorIDFromPath(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.PathValue("sensor_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "sensor_id inválido")
		return 0, false
	}
	return uint(id), true
}
