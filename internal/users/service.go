// Package users implements account registration, login, and password
// recovery over phone-number identities.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
)

var (
	// ErrPhoneTaken reports a registration with an already-used phone.
	ErrPhoneTaken = errors.New("el teléfono ya está registrado")
	// ErrInvalidCredentials reports a failed login.
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	// ErrNotFound reports that no user matches the given phone.
	ErrNotFound = errors.New("no se encontró el usuario")
)

type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log.With(slog.String("component", "users"))}
}

// Create registers a new account with the default role and state. The
// phone uniqueness check is backed by the unique index, so a racing
// duplicate registration also resolves to ErrPhoneTaken.
func (s *Service) Create(ctx context.Context, nombre, telefono, password string) (*models.Usuario, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.Usuario{
		Nombre:   nombre,
		Telefono: telefono,
		Password: string(hash),
		Rol:      models.RolUsuario,
		Estado:   models.UsuarioActivo,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Usuario{}).Where("telefono = ?", telefono).Count(&count).Error; err != nil {
			return fmt.Errorf("check phone: %w", err)
		}
		if count > 0 {
			return ErrPhoneTaken
		}
		return tx.Create(u).Error
	})
	if errors.Is(err, ErrPhoneTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrPhoneTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("usuario_creado", slog.Int("id", int(u.ID)))
	return u, nil
}

// Login verifies credentials and, on success, marks the user connected
// and stamps the connection time. Unknown phones and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, telefono, password string) (*models.Usuario, error) {
	u, err := s.byPhone(ctx, telefono)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	now := time.Now().UTC()
	updates := map[string]any{"conectado": true, "ultima_conexion": now}
	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	u.Conectado = true
	u.UltimaConexion = &now
	return u, nil
}

// PhoneExists reports whether an account with the phone exists.
func (s *Service) PhoneExists(ctx context.Context, telefono string) (bool, error) {
	_, err := s.byPhone(ctx, telefono)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword replaces the password of the account with the phone.
func (s *Service) ResetPassword(ctx context.Context, telefono, nueva string) error {
	u, err := s.byPhone(ctx, telefono)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(nueva), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(u).Update("password", string(hash)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info("contrasena_restablecida", slog.Int("id", int(u.ID)))
	return nil
}

func (s *Service) byPhone(ctx context.Context, telefono string) (*models.Usuario, error) {
	var u models.Usuario
	err := s.db.WithContext(ctx).Where("telefono = ?", telefono).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by phone: %w", err)
	}
	return &u, nil
}
