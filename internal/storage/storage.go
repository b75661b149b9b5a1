// Package storage owns database connectivity, schema migration, and the
// seeding of static reference data.
package storage

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
)

// MySQLDSN builds the connection string for the production database.
func MySQLDSN(user, password, host, name string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, password, host, name)
}

// Open connects to MySQL and verifies the connection before returning.
// TranslateError is enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func Open(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("database_connected")
	return db, nil
}

// Migrate applies the schema and seeds the three required sensors when
// they are absent. Existing sensor rows are left untouched so operators
// can rename units without migrations reverting them.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	err := db.AutoMigrate(
		&models.Proceso{},
		&models.Sensor{},
		&models.Lectura{},
		&models.Usuario{},
		&models.VoiceConfig{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, s := range seedSensors() {
		var existing models.Sensor
		res := db.Limit(1).Find(&existing, "id = ?", s.ID)
		if res.Error != nil {
			return fmt.Errorf("check sensor %d: %w", s.ID, res.Error)
		}
		if res.RowsAffected > 0 {
			continue
		}
		if err := db.Create(&s).Error; err != nil {
			return fmt.Errorf("seed sensor %q: %w", s.Nombre, err)
		}
		log.Info("sensor_seeded", slog.Int("id", int(s.ID)), slog.String("nombre", s.Nombre))
	}
	return nil
}

func seedSensors() []models.Sensor {
	return []models.Sensor{
		{ID: models.SensorGas, Nombre: "mq4", Tipo: "gas", Unidad: "ppm", Activo: true},
		{ID: models.SensorTemperatura, Nombre: "temperatura", Tipo: "temperatura", Unidad: "celsius", Activo: true},
		{ID: models.SensorPresion, Nombre: "presion", Tipo: "presion", Unidad: "kpa", Activo: true},
	}
}
