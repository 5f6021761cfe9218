package api

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ajitashwath/qr-code-generator/history"
	"github.com/ajitashwath/qr-code-generator/render"
	"github.com/ajitashwath/qr-code-generator/settings"
	"github.com/ajitashwath/qr-code-generator/store"
)

// Options tunes the handlers. Zero values are replaced with defaults.
type Options struct {
	Level  render.Level
	Logger *zap.Logger
	Now    func() time.Time
	// Static holds the browser page. Without it only /api is served.
	Static fs.FS
}

func RegisterRoutes(sm *settings.Manager, hub *store.Hub, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Level == "" {
		opts.Level = render.LevelH
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	h := &handler{
		settings: sm,
		history:  sm.History(),
		hub:      hub,
		level:    opts.Level,
		log:      opts.Logger,
		now:      opts.Now,
	}

	// History API
	r.Get("/api/history", h.listHistory)
	r.Post("/api/history", h.addHistory)
	r.Delete("/api/history", h.clearHistory)
	r.Get("/api/history/{index}", h.getHistory)
	r.Delete("/api/history/{index}", h.removeHistory)

	// Settings API
	r.Get("/api/theme", h.getTheme)
	r.Put("/api/theme", h.putTheme)
	r.Post("/api/theme/toggle", h.toggleTheme)
	r.Get("/api/defaults", h.getDefaults)
	r.Put("/api/defaults", h.putDefaults)
	r.Get("/api/settings/export", h.exportSettings)
	r.Post("/api/settings/import", h.importSettings)

	// Rendering
	r.Get("/api/qr", h.renderQR)
	r.Post("/api/payload/wifi", h.wifiPayload)
	r.Post("/api/payload/vcard", h.vcardPayload)

	// WebSocket change feed
	r.Get("/api/events", h.handleEvents)

	if opts.Static != nil {
		// Strip the "static/" prefix present in the embed.FS.
		staticSub, err := fs.Sub(opts.Static, "static")
		if err != nil {
			staticSub = opts.Static
		} else if _, statErr := fs.Stat(staticSub, "index.html"); statErr != nil {
			staticSub = opts.Static
		}

		// Read index.html directly; http.FileServer redirects it to "./".
		r.Get("/", serveFile(staticSub, "index.html"))

		fileServer := http.FileServer(http.FS(staticSub))
		r.Get("/css/*", fileServer.ServeHTTP)
		r.Get("/js/*", fileServer.ServeHTTP)
	}

	return r
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

type handler struct {
	settings *settings.Manager
	history  *history.Manager
	hub      *store.Hub
	level    render.Level
	log      *zap.Logger
	now      func() time.Time
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request once the response is written.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
