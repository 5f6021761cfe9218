package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ajitashwath/qr-code-generator/render"
	"github.com/ajitashwath/qr-code-generator/settings"
)

// maxImportBytes bounds an uploaded settings document.
const maxImportBytes = 1 << 20

type themeBody struct {
	Theme settings.Theme `json:"theme"`
}

func (h *handler) getTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeBody{Theme: h.settings.Theme()})
}

func (h *handler) putTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.settings.SetTheme(body.Theme); err != nil {
		if errors.Is(err, settings.ErrInvalidTheme) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error("set theme", zap.Error(err))
		http.Error(w, "failed to save theme", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: h.settings.Theme()})
}

func (h *handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.settings.ToggleTheme()
	if err != nil {
		h.log.Error("toggle theme", zap.Error(err))
		http.Error(w, "failed to save theme", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}

func (h *handler) getDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Defaults())
}

func (h *handler) putDefaults(w http.ResponseWriter, r *http.Request) {
	var d settings.Defaults
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.settings.SetDefaults(d); err != nil {
		if errors.Is(err, render.ErrInvalidSize) || errors.Is(err, render.ErrInvalidColor) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error("set defaults", zap.Error(err))
		http.Error(w, "failed to save defaults", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.settings.Defaults())
}

func (h *handler) exportSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.settings.Export()
	if err != nil {
		h.log.Error("export settings", zap.Error(err))
		http.Error(w, "failed to export settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", settings.ExportFilename(h.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *handler) importSettings(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(data) > maxImportBytes {
		http.Error(w, "settings document too large", http.StatusRequestEntityTooLarge)
		return
	}

	res, err := h.settings.Import(data)
	if err != nil {
		var ferr *settings.FormatError
		if errors.As(err, &ferr) {
			http.Error(w, "invalid settings file", http.StatusBadRequest)
			return
		}
		// Fields before the failure are already applied.
		h.log.Error("import settings", zap.Error(err),
			zap.Strings("applied", res.Applied))
		http.Error(w, "failed to import settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
