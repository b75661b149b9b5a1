package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
	"github.com/Aurimar-Mr/backend-nube/internal/process"
	"github.com/Aurimar-Mr/backend-nube/internal/readings"
)

// Result is the payload returned by the analyze operation. The same
// shape serves all four observable states; informational states carry
// alert flag 0 and day 0.
type Result struct {
	AlertaIA         int     `json:"alerta_ia"`
	TipoAlertaModelo string  `json:"tipo_alerta_modelo,omitempty"`
	TipoEstado       string  `json:"tipo_estado"`
	MensajeLectura   string  `json:"mensaje_lectura"`
	Recomendacion    string  `json:"recomendacion"`
	DiaProceso       int     `json:"dia_proceso"`
	Temperatura      float64 `json:"temperatura_celsius,omitempty"`
	Presion          float64 `json:"presion_biogas_kpa,omitempty"`
	Gas              float64 `json:"mq4_ppm,omitempty"`
}

// processSource and snapshotSource expose the slices of the tracker and
// reading service the predictor needs, keeping tests free of a database.
type processSource interface {
	Active(ctx context.Context) (*models.Proceso, error)
}

type snapshotSource interface {
	LatestCombinedSnapshot(ctx context.Context) (*readings.Snapshot, error)
}

// Predictor drives the analyze flow: resolve the active process, build
// the feature snapshot, invoke the classifier, and attach the matching
// recommendation. The classifier is loaded once at startup; when it is
// absent the predictor keeps serving a fixed degraded payload instead of
// failing requests.
type Predictor struct {
	clf   Classifier
	procs processSource
	snaps snapshotSource
	log   *slog.Logger
}

func NewPredictor(clf Classifier, procs processSource, snaps snapshotSource, log *slog.Logger) *Predictor {
	return &Predictor{clf: clf, procs: procs, snaps: snaps, log: log.With(slog.String("component", "predictor"))}
}

// ModelLoaded reports whether classification artifacts were available at
// startup.
func (p *Predictor) ModelLoaded() bool { return p.clf != nil }

// Fixed payloads for the informational states.
func inactiveResult() Result {
	return Result{
		TipoEstado:     "Proceso finalizado",
		MensajeLectura: "No hay proceso activo. No se generan predicciones.",
		Recomendacion:  "Inicie un nuevo proceso biodigestor.",
	}
}

func pendingDataResult() Result {
	return Result{
		TipoEstado:     "Datos pendientes",
		MensajeLectura: "El proceso está activo pero aún no registra lecturas de todos los sensores.",
		Recomendacion:  "Verifique la conexión de los sensores de gas, temperatura y presión.",
	}
}

func systemErrorResult() Result {
	return Result{
		TipoEstado:     "Error de Sistema",
		MensajeLectura: "Modelos de predicción no cargados. Revisar logs del servidor.",
		Recomendacion:  "Ejecute el script de entrenamiento de modelos.",
	}
}

func internalErrorResult() Result {
	return Result{
		TipoEstado:     "Error de Sistema",
		MensajeLectura: "Error interno al evaluar el modelo de predicción.",
		Recomendacion:  "Revise los logs del servidor y reintente el análisis.",
	}
}

// Analyze runs one classification over the latest combined snapshot.
// Domain states (no process, incomplete data, model unavailable) are
// normal outcomes and never return an error; only storage failures do.
func (p *Predictor) Analyze(ctx context.Context) (Result, error) {
	activo, err := p.procs.Active(ctx)
	if errors.Is(err, process.ErrNoActive) {
		return inactiveResult(), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("resolve active process: %w", err)
	}

	snap, err := p.snaps.LatestCombinedSnapshot(ctx)
	switch {
	case errors.Is(err, readings.ErrNoActiveProcess):
		// The process finished between the two queries.
		return inactiveResult(), nil
	case errors.Is(err, readings.ErrIncompleteData):
		return pendingDataResult(), nil
	case err != nil:
		return Result{}, fmt.Errorf("combined snapshot: %w", err)
	}

	if p.clf == nil {
		return systemErrorResult(), nil
	}

	dia := DayNumber(snap.Timestamp, activo.FechaInicio)
	if dia < 1 {
		p.log.Warn("dia_proceso_anomalo",
			slog.Time("lectura", snap.Timestamp),
			slog.Time("inicio", activo.FechaInicio),
			slog.Int("dia", dia),
		)
		dia = 1
	}

	features := Features{
		TemperaturaCelsius: snap.Temperatura,
		PresionBiogasKPa:   snap.Presion,
		MQ4PPM:             snap.Gas,
		DiaProceso:         dia,
	}
	flag, label, err := p.predict(features)
	if err != nil {
		p.log.Error("prediccion_fallida", slog.Any("err", err))
		return internalErrorResult(), nil
	}

	rec := Recommend(flag, snap.Temperatura, snap.Presion, snap.Gas)
	return Result{
		AlertaIA:         flag,
		TipoAlertaModelo: label,
		TipoEstado:       rec.Tipo,
		MensajeLectura:   rec.Mensaje,
		Recomendacion:    rec.Recomendacion,
		DiaProceso:       dia,
		Temperatura:      snap.Temperatura,
		Presion:          snap.Presion,
		Gas:              snap.Gas,
	}, nil
}

// predict contains the model invocation so a panicking artifact is
// reported as an internal-error payload instead of killing the request.
func (p *Predictor) predict(f Features) (flag int, label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()
	return p.clf.Predict(f)
}
