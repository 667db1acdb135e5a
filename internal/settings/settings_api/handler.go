package settings_api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-attendance/internal/models"
	"ms-attendance/internal/settings"
	"ms-attendance/internal/utils"
)

type Handler struct {
	Settings *settings.Service
}

func NewHandler(svc *settings.Service) *Handler {
	return &Handler{Settings: svc}
}

type SettingRequest struct {
	Value string `json:"value"`
}

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.ListSettings)
		r.Get("/{key}", h.GetSetting)
		r.Put("/{key}", h.PutSetting)
	})
}

func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.Settings.ListConfig(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list settings", err)
		return
	}
	if all == nil {
		all = []models.Setting{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Settings", all)
}

func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.Settings.GetConfig(r.Context(), key)
	if err != nil {
		if errors.Is(err, models.ErrSettingNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Setting not found", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to read setting", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Setting", SettingResponse{Key: key, Value: value})
}

func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req SettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Settings.SetConfig(r.Context(), key, req.Value); err != nil {
		if errors.Is(err, settings.ErrInvalidValue) {
			utils.WriteError(w, http.StatusBadRequest, "Invalid setting value", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to store setting", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Setting updated", SettingResponse{Key: key, Value: req.Value})
}
