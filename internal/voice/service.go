// Package voice stores the global text-to-speech preference used by the
// companion app.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
)

// Defaults served while no configuration row exists.
const (
	DefaultGender = "FEMALE"
	DefaultPitch  = 1.0
)

type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log.With(slog.String("component", "voice"))}
}

// Get returns the stored configuration, or the defaults when the table
// is still empty. Absence is not an error: the app always has a voice.
func (s *Service) Get(ctx context.Context) (*models.VoiceConfig, error) {
	var cfg models.VoiceConfig
	err := s.db.WithContext(ctx).First(&cfg, models.VoiceConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.VoiceConfig{
			ID:          models.VoiceConfigID,
			VoiceGender: DefaultGender,
			VoicePitch:  DefaultPitch,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load voice config: %w", err)
	}
	return &cfg, nil
}

// Save upserts the single configuration row. The fixed primary key keeps
// the table at one row no matter how often the admin saves.
func (s *Service) Save(ctx context.Context, gender string, pitch float64) (*models.VoiceConfig, error) {
	cfg := &models.VoiceConfig{ID: models.VoiceConfigID, VoiceGender: gender, VoicePitch: pitch}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.VoiceConfig
		err := tx.First(&existing, models.VoiceConfigID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(cfg).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]any{
			"voice_gender": gender,
			"voice_pitch":  pitch,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save voice config: %w", err)
	}
	s.log.Info("voice_config_guardada", slog.String("gender", gender), slog.Float64("pitch", pitch))
	return cfg, nil
}
