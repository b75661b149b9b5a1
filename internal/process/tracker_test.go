package process

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
	"github.com/Aurimar-Mr/backend-nube/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := storage.Migrate(db, testLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestStartAndActive(t *testing.T) {
	tr := NewTracker(openTestDB(t), testLogger())
	ctx := context.Background()

	if _, err := tr.Active(ctx); !errors.Is(err, ErrNoActive) {
		t.Fatalf("expected ErrNoActive before any start, got %v", err)
	}

	p, err := tr.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.Estado != models.EstadoActivo {
		t.Fatalf("started process estado = %q", p.Estado)
	}
	if p.FechaInicio.IsZero() {
		t.Fatal("started process has no start timestamp")
	}

	got, err := tr.Active(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("active returned id %d, want %d", got.ID, p.ID)
	}
}

func TestStartConflictLeavesStateUntouched(t *testing.T) {
	db := openTestDB(t)
	tr := NewTracker(db, testLogger())
	ctx := context.Background()

	first, err := tr.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := tr.Start(ctx); !errors.Is(err, ErrActiveExists) {
		t.Fatalf("second start must conflict, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Proceso{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("conflicting start must not persist a row, have %d", count)
	}
	var stored models.Proceso
	if err := db.First(&stored, first.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Estado != models.EstadoActivo {
		t.Fatalf("existing process mutated by failed start: %q", stored.Estado)
	}
}

func TestFinish(t *testing.T) {
	db := openTestDB(t)
	tr := NewTracker(db, testLogger())
	ctx := context.Background()

	if _, err := tr.Finish(ctx); !errors.Is(err, ErrNoActive) {
		t.Fatalf("finish with nothing active must fail, got %v", err)
	}

	started, err := tr.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	finished, err := tr.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.ID != started.ID {
		t.Fatalf("finished id %d, want %d", finished.ID, started.ID)
	}
	if finished.Estado != models.EstadoFinalizado || finished.FechaFin == nil {
		t.Fatalf("finish did not close the process: %+v", finished)
	}

	if _, err := tr.Active(ctx); !errors.Is(err, ErrNoActive) {
		t.Fatalf("no process should remain active, got %v", err)
	}

	// A new run can start once the previous one finished.
	again, err := tr.Start(ctx)
	if err != nil {
		t.Fatalf("restart after finish: %v", err)
	}
	if again.ID == started.ID {
		t.Fatal("restart must create a new process row")
	}
}

func TestActiveMarkerUniqueIndexBacksInvariant(t *testing.T) {
	db := openTestDB(t)
	tr := NewTracker(db, testLogger())
	if _, err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Bypass the tracker and insert a second ACTIVO row directly: the
	// schema itself must reject it.
	marker := true
	dup := models.Proceso{Estado: models.EstadoActivo, ActivoUnico: &marker}
	err := db.Create(&dup).Error
	if err == nil {
		t.Fatal("schema accepted a second active process row")
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated key error, got %v", err)
	}
}
