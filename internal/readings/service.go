// Package readings is the append-only store of sensor observations and
// the aggregator that combines them into analysis snapshots.
package readings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
	"github.com/Aurimar-Mr/backend-nube/internal/process"
)

// ListLimit caps per-sensor listings served to clients.
const ListLimit = 20

var (
	// ErrNoActiveProcess reports that a reading operation requires an
	// ACTIVO process and none exists.
	ErrNoActiveProcess = errors.New("no hay proceso biodigestor activo")
	// ErrIncompleteData reports that at least one required sensor has no
	// reading within the active process.
	ErrIncompleteData = errors.New("faltan lecturas de sensores para el proceso activo")
)

// Snapshot is the latest-per-sensor feature vector for the active
// process. Timestamp is the newest of the three reading timestamps, so
// it reflects true data staleness rather than the query time.
type Snapshot struct {
	Temperatura float64
	Presion     float64
	Gas         float64
	Timestamp   time.Time
}

// Service persists readings and answers scoped queries over them.
type Service struct {
	db      *gorm.DB
	tracker *process.Tracker
	log     *slog.Logger
}

func NewService(db *gorm.DB, tracker *process.Tracker, log *slog.Logger) *Service {
	return &Service{db: db, tracker: tracker, log: log.With(slog.String("component", "readings"))}
}

// Register appends one reading tagged with the active process. It fails
// with ErrNoActiveProcess when nothing is running, in which case no row
// is written.
func (s *Service) Register(ctx context.Context, sensorID uint, valor float64, observaciones string) (*models.Lectura, error) {
	activo, err := s.tracker.Active(ctx)
	if errors.Is(err, process.ErrNoActive) {
		return nil, ErrNoActiveProcess
	}
	if err != nil {
		return nil, err
	}
	l := &models.Lectura{
		SensorID:      sensorID,
		ProcesoID:     &activo.ID,
		FechaHora:     time.Now().UTC(),
		Valor:         valor,
		Observaciones: observaciones,
	}
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, fmt.Errorf("register reading: %w", err)
	}
	return l, nil
}

// LatestBySensor returns up to limit readings for one sensor, newest
// first, scoped to the active process. With no active process the result
// is an empty slice, not an error: a client polling a chart simply sees
// no data.
func (s *Service) LatestBySensor(ctx context.Context, sensorID uint, limit int) ([]models.Lectura, error) {
	if limit <= 0 || limit > ListLimit {
		limit = ListLimit
	}
	activo, err := s.tracker.Active(ctx)
	if errors.Is(err, process.ErrNoActive) {
		return []models.Lectura{}, nil
	}
	if err != nil {
		return nil, err
	}
	lecturas := []models.Lectura{}
	err = s.db.WithContext(ctx).
		Where("sensor_id = ? AND proceso_id = ?", sensorID, activo.ID).
		Order("fecha_hora DESC, id DESC").
		Limit(limit).
		Find(&lecturas).Error
	if err != nil {
		return nil, fmt.Errorf("list readings for sensor %d: %w", sensorID, err)
	}
	return lecturas, nil
}

// All returns every stored reading, newest first.
func (s *Service) All(ctx context.Context) ([]models.Lectura, error) {
	lecturas := []models.Lectura{}
	err := s.db.WithContext(ctx).Order("fecha_hora DESC, id DESC").Find(&lecturas).Error
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return lecturas, nil
}

// PurgeSensor deletes every reading belonging to one sensor and reports
// the number of rows removed. This is the only deletion path for
// readings.
func (s *Service) PurgeSensor(ctx context.Context, sensorID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("sensor_id = ?", sensorID).Delete(&models.Lectura{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge readings for sensor %d: %w", sensorID, res.Error)
	}
	s.log.Info("lecturas_eliminadas", slog.Int("sensor_id", int(sensorID)), slog.Int64("filas", res.RowsAffected))
	return res.RowsAffected, nil
}

// LatestCombinedSnapshot resolves the newest reading of each required
// sensor within the active process and combines them. Readings tagged to
// finished processes never contribute, no matter how recent. The query
// runs fresh on every call; readings arrive continuously and a cached
// snapshot would serve stale features.
func (s *Service) LatestCombinedSnapshot(ctx context.Context) (*Snapshot, error) {
	activo, err := s.tracker.Active(ctx)
	if errors.Is(err, process.ErrNoActive) {
		return nil, ErrNoActiveProcess
	}
	if err != nil {
		return nil, err
	}

	temp, err := s.latestFor(ctx, models.SensorTemperatura, activo.ID)
	if err != nil {
		return nil, err
	}
	pres, err := s.latestFor(ctx, models.SensorPresion, activo.ID)
	if err != nil {
		return nil, err
	}
	gas, err := s.latestFor(ctx, models.SensorGas, activo.ID)
	if err != nil {
		return nil, err
	}
	if temp == nil || pres == nil || gas == nil {
		return nil, ErrIncompleteData
	}

	snap := &Snapshot{
		Temperatura: temp.Valor,
		Presion:     pres.Valor,
		Gas:         gas.Valor,
		Timestamp:   temp.FechaHora,
	}
	if pres.FechaHora.After(snap.Timestamp) {
		snap.Timestamp = pres.FechaHora
	}
	if gas.FechaHora.After(snap.Timestamp) {
		snap.Timestamp = gas.FechaHora
	}
	return snap, nil
}

// latestFor returns the newest reading of one sensor inside one process,
// or nil when the sensor has none.
func (s *Service) latestFor(ctx context.Context, sensorID, procesoID uint) (*models.Lectura, error) {
	var l models.Lectura
	err := s.db.WithContext(ctx).
		Where("sensor_id = ? AND proceso_id = ?", sensorID, procesoID).
		Order("fecha_hora DESC, id DESC").
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading for sensor %d: %w", sensorID, err)
	}
	return &l, nil
}
