// Package models declares the persisted entities of the biodigestor
// backend. Table and column names mirror the production MySQL schema,
// which predates this service.
package models

import "time"

// Estados de un proceso biodigestor.
const (
	EstadoActivo     = "ACTIVO"
	EstadoFinalizado = "FINALIZADO"
)

// Well-known sensor identifiers. The three required sensors are seeded
// at migration time and referenced by ID throughout the analysis flow.
const (
	SensorGas         uint = 1
	SensorTemperatura uint = 2
	SensorPresion     uint = 3
)

// Proceso is one operational run of the biodigestor, bounded by a start
// event and an optional finish event.
type Proceso struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	FechaInicio   time.Time  `gorm:"not null;index" json:"fecha_inicio"`
	FechaFin      *time.Time `json:"fecha_fin"`
	Estado        string     `gorm:"size:20;not null;default:ACTIVO" json:"estado"`
	Observaciones string     `gorm:"size:255" json:"observaciones,omitempty"`

	// ActivoUnico is non-nil exactly while Estado is ACTIVO and NULL once
	// the process finishes. NULLs never collide in a unique index, so the
	// schema itself rejects a second concurrent ACTIVO row.
	ActivoUnico *bool `gorm:"uniqueIndex" json:"-"`
}

func (Proceso) TableName() string { return "proceso_biodigestor" }

// Sensor is static reference data describing one measurement source.
type Sensor struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Nombre string `gorm:"size:50;not null;uniqueIndex" json:"nombre"`
	Tipo   string `gorm:"size:50;not null" json:"tipo"`
	Unidad string `gorm:"size:20;not null" json:"unidad"`
	Activo bool   `gorm:"not null;default:true" json:"activo"`
}

func (Sensor) TableName() string { return "sensores" }

// Lectura is one timestamped measurement from one sensor. Rows are
// append-only; ProcesoID is NULL for readings recorded while no process
// was active.
type Lectura struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SensorID      uint      `gorm:"not null;index" json:"sensor_id"`
	ProcesoID     *uint     `gorm:"index" json:"proceso_id"`
	FechaHora     time.Time `gorm:"not null;index" json:"fecha_hora"`
	Valor         float64   `gorm:"not null" json:"valor"`
	Observaciones string    `gorm:"size:255" json:"observaciones,omitempty"`
}

func (Lectura) TableName() string { return "lecturas" }

// Roles y estados válidos de un usuario.
const (
	RolUsuario = "usuario"
	RolAdmin   = "admin"

	UsuarioActivo    = "activo"
	UsuarioInactivo  = "inactivo"
	UsuarioBloqueado = "bloqueado"
)

// Usuario is an application account identified by phone number. Password
// holds a bcrypt hash and is never serialized.
type Usuario struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Nombre         string     `gorm:"size:50;not null" json:"nombre"`
	Telefono       string     `gorm:"size:20;not null;uniqueIndex" json:"telefono"`
	Password       string     `gorm:"size:255;not null" json:"-"`
	Rol            string     `gorm:"size:20;not null;default:usuario" json:"rol"`
	Estado         string     `gorm:"size:20;not null;default:activo" json:"estado"`
	Conectado      bool       `gorm:"not null;default:false" json:"conectado"`
	UltimaConexion *time.Time `json:"ultima_conexion"`
}

func (Usuario) TableName() string { return "usuarios" }

// VoiceConfigID is the fixed primary key of the single voice_config row.
const VoiceConfigID uint = 1

// VoiceConfig stores the global text-to-speech preference. The table
// holds at most one row, always with ID VoiceConfigID.
type VoiceConfig struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	VoiceGender string  `gorm:"size:10;not null;default:FEMALE" json:"voice_gender"`
	VoicePitch  float64 `gorm:"not null;default:1.0" json:"voice_pitch"`
}

func (VoiceConfig) TableName() string { return "voice_config" }
