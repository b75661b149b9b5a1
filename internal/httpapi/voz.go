package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// GetVoiceConfig returns the stored TTS preference, or the defaults
// when none was saved yet.
func (h *Handlers) GetVoiceConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Voz.Get(r.Context())
	if err != nil {
		h.Log.Error("get_voice_config_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error interno al obtener la configuración de voz.")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type voiceConfigRequest struct {
	VoiceGender *string  `json:"voice_gender"`
	VoicePitch  *float64 `json:"voice_pitch"`
}

// SaveVoiceConfig upserts the global TTS preference.
func (h *Handlers) SaveVoiceConfig(w http.ResponseWriter, r *http.Request) {
	var req voiceConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo JSON inválido.")
		return
	}
	if req.VoiceGender == nil || strings.TrimSpace(*req.VoiceGender) == "" || req.VoicePitch == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Faltan parámetros: voice_gender y voice_pitch",
		})
		return
	}
	cfg, err := h.Voz.Save(r.Context(), *req.VoiceGender, *req.VoicePitch)
	if err != nil {
		h.Log.Error("save_voice_config_failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message": "Error al guardar la configuración.",
		})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
