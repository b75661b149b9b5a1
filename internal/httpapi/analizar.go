package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Aurimar-Mr/backend-nube/internal/analysis"
	"github.com/Aurimar-Mr/backend-nube/internal/events"
	"github.com/Aurimar-Mr/backend-nube/internal/metrics"
)

// Analizar runs the alert classification over the latest combined
// snapshot. Domain states (no process, pending data, model missing) are
// normal outcomes and answer 200 with an explanatory payload; only
// unexpected storage failures produce 500.
func (h *Handlers) Analizar(w http.ResponseWriter, r *http.Request) {
	res, err := h.Predictor.Analyze(r.Context())
	if err != nil {
		h.Log.Error("analizar_failed", slog.Any("err", err))
		writeErrorDetail(w, http.StatusInternalServerError,
			"Error interno del servidor al procesar la predicción.", "análisis fallido")
		return
	}
	metrics.IncAnalisis(res.TipoEstado)

	if res.AlertaIA == 1 {
		metrics.IncAlerta(res.TipoEstado)
		// Detached from the request context: a slow broker must not
		// delay or cancel the publish once the response is committed.
		ctx := context.WithoutCancel(r.Context())
		go h.publishAlert(ctx, res)
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) publishAlert(ctx context.Context, res analysis.Result) {
	procesoID := uint(0)
	if p, err := h.Tracker.Active(ctx); err == nil {
		procesoID = p.ID
	}
	h.Alertas.Publish(ctx, events.Alert{
		ProcesoID:        procesoID,
		AlertaIA:         res.AlertaIA,
		TipoAlertaModelo: res.TipoAlertaModelo,
		TipoEstado:       res.TipoEstado,
		MensajeLectura:   res.MensajeLectura,
		Recomendacion:    res.Recomendacion,
		DiaProceso:       res.DiaProceso,
		Temperatura:      res.Temperatura,
		Presion:          res.Presion,
		Gas:              res.Gas,
		EmitidoEn:        time.Now().UTC(),
	})
}
