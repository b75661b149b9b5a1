package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Aurimar-Mr/backend-nube/internal/models"
	"github.com/Aurimar-Mr/backend-nube/internal/users"
)

type registerRequest struct {
	Nombre          string `json:"nombre"`
	Telefono        string `json:"telefono"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Register creates a new account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cuerpo de la solicitud no puede estar vacío.")
		return
	}
	required := []struct{ name, value string }{
		{"nombre", req.Nombre},
		{"telefono", req.Telefono},
		{"password", req.Password},
		{"confirm_password", req.ConfirmPassword},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			writeError(w, http.StatusBadRequest, "Falta el campo requerido: '"+f.name+"'.")
			return
		}
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "Las contraseñas no coinciden.")
		return
	}

	u, err := h.Usuarios.Create(r.Context(), req.Nombre, req.Telefono, req.Password)
	if errors.Is(err, users.ErrPhoneTaken) {
		writeError(w, http.StatusConflict, "El teléfono ya está registrado.")
		return
	}
	if err != nil {
		h.Log.Error("register_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Usuario creado exitosamente.",
		"id":      u.ID,
		"rol":     u.Rol,
		"estado":  u.Estado,
	})
}

type loginRequest struct {
	Telefono string `json:"telefono"`
	Password string `json:"password"`
}

// Login verifies credentials and reports the account profile.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cuerpo de la solicitud no puede estar vacío.")
		return
	}
	if strings.TrimSpace(req.Telefono) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "Faltan campos requeridos: 'telefono', 'password'.")
		return
	}

	u, err := h.Usuarios.Login(r.Context(), req.Telefono, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Teléfono o contraseña incorrecta.")
		return
	}
	if err != nil {
		h.Log.Error("login_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error de base de datos durante el login.")
		return
	}
	if u.Estado == models.UsuarioBloqueado {
		writeErrorDetail(w, http.StatusForbidden, "El usuario está bloqueado.", "Comuníquese con el administrador.")
		return
	}

	var ultima *string
	if u.UltimaConexion != nil {
		s := u.UltimaConexion.Format("2006-01-02 15:04:05")
		ultima = &s
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Login exitoso.",
		"usuario":         u.Nombre,
		"rol":             u.Rol,
		"ultima_conexion": ultima,
	})
}

type phoneRequest struct {
	Telefono string `json:"telefono"`
}

// VerificarTelefono checks that a phone belongs to an account before a
// password reset proceeds.
func (h *Handlers) VerificarTelefono(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Telefono) == "" {
		writeError(w, http.StatusBadRequest, "Falta el campo requerido: 'telefono'.")
		return
	}
	exists, err := h.Usuarios.PhoneExists(r.Context(), req.Telefono)
	if err != nil {
		h.Log.Error("verificar_telefono_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error de base de datos al verificar teléfono.")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "No existe un usuario con ese número.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mensaje": "Teléfono válido. Procede con el cambio de contraseña.",
	})
}

type resetPasswordRequest struct {
	Telefono            string `json:"telefono"`
	NuevaContrasena     string `json:"nueva_contrasena"`
	ConfirmarContrasena string `json:"confirmar_contrasena"`
}

// CambiarContrasena replaces the password of an existing account.
func (h *Handlers) CambiarContrasena(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cuerpo de la solicitud no puede estar vacío.")
		return
	}
	required := []struct{ name, value string }{
		{"telefono", req.Telefono},
		{"nueva_contrasena", req.NuevaContrasena},
		{"confirmar_contrasena", req.ConfirmarContrasena},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			writeError(w, http.StatusBadRequest, "Falta el campo requerido: '"+f.name+"'.")
			return
		}
	}
	if req.NuevaContrasena != req.ConfirmarContrasena {
		writeError(w, http.StatusBadRequest, "Las contraseñas no coinciden.")
		return
	}

	err := h.Usuarios.ResetPassword(r.Context(), req.Telefono, req.NuevaContrasena)
	if errors.Is(err, users.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No se encontró el usuario.")
		return
	}
	if err != nil {
		h.Log.Error("cambiar_contrasena_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error de base de datos al actualizar contraseña.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mensaje": "Contraseña actualizada correctamente."})
}
