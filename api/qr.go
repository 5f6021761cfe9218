package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ajitashwath/qr-code-generator/render"
)

// renderQR draws the code for ?text= and remembers the request in history.
// size, light and dark fall back to the user's defaults.
func (h *handler) renderQR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := h.settings.Defaults()

	opts := render.Options{
		Text:  q.Get("text"),
		Size:  d.Size,
		Light: d.LightColor,
		Dark:  d.DarkColor,
		Level: h.level,
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "size must be an integer", http.StatusBadRequest)
			return
		}
		opts.Size = size
	}
	if v := q.Get("light"); v != "" {
		opts.Light = v
	}
	if v := q.Get("dark"); v != "" {
		opts.Dark = v
	}

	img, err := render.PNG(opts)
	if err != nil {
		switch {
		case errors.Is(err, render.ErrEmptyText):
			http.Error(w, "Please enter text or URL!", http.StatusBadRequest)
		case errors.Is(err, render.ErrInvalidSize), errors.Is(err, render.ErrInvalidColor):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, render.ErrEncode):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.log.Error("render qr", zap.Error(err))
			http.Error(w, "Failed to generate QR code. Please try again", http.StatusInternalServerError)
		}
		return
	}

	// The image is still served if remembering it fails.
	if err := h.history.Add(opts.Text, opts.Size, opts.Light, opts.Dark); err != nil {
		h.log.Warn("record history", zap.Error(err))
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	if q.Get("download") != "" {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", render.Filename(h.now())))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

type payloadResponse struct {
	Text string `json:"text"`
}

func (h *handler) wifiPayload(w http.ResponseWriter, r *http.Request) {
	var req render.WiFi
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text, err := req.Payload()
	if err != nil {
		http.Error(w, "ssid is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, payloadResponse{Text: text})
}

func (h *handler) vcardPayload(w http.ResponseWriter, r *http.Request) {
	var req render.VCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text, err := req.Payload()
	if err != nil {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, payloadResponse{Text: text})
}
