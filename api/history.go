package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ajitashwath/qr-code-generator/history"
	"github.com/ajitashwath/qr-code-generator/render"
)

type addHistoryRequest struct {
	Text       string `json:"text"`
	Size       int    `json:"size"`
	LightColor string `json:"lightColor"`
	DarkColor  string `json:"darkColor"`
}

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.history.List())
}

func (h *handler) addHistory(w http.ResponseWriter, r *http.Request) {
	var req addHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Missing style fields take the user's defaults.
	d := h.settings.Defaults()
	if req.Size == 0 {
		req.Size = d.Size
	}
	if req.LightColor == "" {
		req.LightColor = d.LightColor
	}
	if req.DarkColor == "" {
		req.DarkColor = d.DarkColor
	}

	// Add silently ignores empty text.
	if err := h.history.Add(req.Text, req.Size, req.LightColor, req.DarkColor); err != nil {
		switch {
		case errors.Is(err, history.ErrTextTooLong):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case errors.Is(err, render.ErrInvalidSize), errors.Is(err, render.ErrInvalidColor):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error("add history", zap.Error(err))
		http.Error(w, "failed to save history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.history.List())
}

func (h *handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(); err != nil {
		h.log.Error("clear history", zap.Error(err))
		http.Error(w, "failed to clear history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.history.List())
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	rec, err := h.history.Get(idx)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			http.Error(w, "history record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) removeHistory(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	// Remove is a no-op for indexes out of range.
	if err := h.history.Remove(idx); err != nil {
		h.log.Error("remove history", zap.Int("index", idx), zap.Error(err))
		http.Error(w, "failed to remove history record", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.history.List())
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "index must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}
