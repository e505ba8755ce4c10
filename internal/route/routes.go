package route

import (
	"net/http"
	"os"
	"strings"

	"lyricmirror/internal/config"
	"lyricmirror/internal/handler"
	"lyricmirror/internal/logger"
	"lyricmirror/internal/middleware"
	"lyricmirror/internal/repository"
	"lyricmirror/internal/service/websocket"
	"lyricmirror/internal/web/static"
)

// pageHandler serves /path as the embedded path.html if it exists, and
// any other embedded asset (app.js, style.css) as is.
func pageHandler(files http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" {
			name = "index"
		}

		if !strings.Contains(name, ".") {
			if !static.HasPage(name) {
				http.NotFound(w, r)
				return
			}
			// the file server redirects /index.html to /
			if name == "index" {
				r.URL.Path = "/"
			} else {
				r.URL.Path = "/" + name + ".html"
			}
		}
		files.ServeHTTP(w, r)
	}
}

// logoHandler serves the configured logo image; without one the page hides the slot.
func logoHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if path == "" {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// SetupRoutes registers the kiosk page, viewer websocket, operator endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(cfg *config.Config, log *logger.Logger, hub *websocket.HubService,
	status handler.StatusSource, assignmentRepo repository.AssignmentRepository) http.Handler {
	mux := http.NewServeMux()

	// Kiosk
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, log))
	mux.HandleFunc("/api/status", handler.StatusHandler(status, hub, log))
	mux.HandleFunc("/logo.png", logoHandler(cfg.LogoPath))

	// Play history
	mux.HandleFunc("/api/stats", handler.StatsHandler(assignmentRepo, log))
	mux.HandleFunc("/api/stats/clear", handler.ClearStatsHandler(assignmentRepo, log))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogHandler(log.Dir(), logger.InfoFile))
	mux.HandleFunc("/logs/warning", handler.ShowLogHandler(log.Dir(), logger.WarningFile))
	mux.HandleFunc("/logs/error", handler.ShowLogHandler(log.Dir(), logger.ErrorFile))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogHandler(log, logger.InfoFile))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogHandler(log, logger.WarningFile))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogHandler(log, logger.ErrorFile))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, log))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Pages and assets: / -> index.html, /admin -> admin.html, /app.js
	mux.HandleFunc("/", pageHandler(http.FileServer(static.GetFileSystem())))

	return middleware.AuthMiddleware(cfg.Password, mux)
}
