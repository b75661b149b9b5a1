// Package process tracks the lifecycle of biodigestor runs and owns the
// single-active-process invariant.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
)

var (
	// ErrActiveExists reports an attempt to start a process while one is
	// already ACTIVO.
	ErrActiveExists = errors.New("ya existe un proceso activo")
	// ErrNoActive reports that no ACTIVO process exists.
	ErrNoActive = errors.New("no hay proceso biodigestor activo")
)

// Tracker mediates all process state transitions. Correctness under
// concurrent callers comes from the storage layer: starts run inside a
// transaction and the unique index on the active marker column rejects a
// second ACTIVO row even if two checks race.
type Tracker struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTracker(db *gorm.DB, log *slog.Logger) *Tracker {
	return &Tracker{db: db, log: log.With(slog.String("component", "process_tracker"))}
}

// Active returns the current ACTIVO process, or ErrNoActive.
func (t *Tracker) Active(ctx context.Context) (*models.Proceso, error) {
	var p models.Proceso
	err := t.db.WithContext(ctx).Where("estado = ?", models.EstadoActivo).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActive
	}
	if err != nil {
		return nil, fmt.Errorf("query active process: %w", err)
	}
	return &p, nil
}

// Start creates a new ACTIVO process with FechaInicio set to now. It
// fails with ErrActiveExists when a process is already running; a
// concurrent double start is caught by the unique active marker and
// reported the same way.
func (t *Tracker) Start(ctx context.Context) (*models.Proceso, error) {
	marker := true
	p := &models.Proceso{
		FechaInicio: time.Now().UTC(),
		Estado:      models.EstadoActivo,
		ActivoUnico: &marker,
	}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Proceso{}).Where("estado = ?", models.EstadoActivo).Count(&count).Error; err != nil {
			return fmt.Errorf("count active processes: %w", err)
		}
		if count > 0 {
			return ErrActiveExists
		}
		return tx.Create(p).Error
	})
	if errors.Is(err, ErrActiveExists) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrActiveExists
	}
	if err != nil {
		return nil, fmt.Errorf("start process: %w", err)
	}
	t.log.Info("proceso_iniciado", slog.Int("id", int(p.ID)))
	return p, nil
}

// Finish transitions the ACTIVO process to FINALIZADO, stamping
// FechaFin and clearing the active marker. Fails with ErrNoActive when
// nothing is running. The read and the update share one transaction so
// a partial failure leaves no half-finished row.
func (t *Tracker) Finish(ctx context.Context) (*models.Proceso, error) {
	var p models.Proceso
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("estado = ?", models.EstadoActivo).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActive
		}
		if err != nil {
			return fmt.Errorf("query active process: %w", err)
		}
		now := time.Now().UTC()
		updates := map[string]any{
			"estado":       models.EstadoFinalizado,
			"fecha_fin":    now,
			"activo_unico": nil,
		}
		if err := tx.Model(&models.Proceso{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("finish process %d: %w", p.ID, err)
		}
		p.Estado = models.EstadoFinalizado
		p.FechaFin = &now
		p.ActivoUnico = nil
		return nil
	})
	if errors.Is(err, ErrNoActive) {
		return nil, ErrNoActive
	}
	if err != nil {
		return nil, err
	}
	t.log.Info("proceso_finalizado", slog.Int("id", int(p.ID)))
	return &p, nil
}
