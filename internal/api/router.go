package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/haesinais/aisdash/internal/account"
	"github.com/haesinais/aisdash/internal/config"
	"github.com/haesinais/aisdash/internal/dashboard"
	"github.com/haesinais/aisdash/internal/websocket"
	"github.com/haesinais/aisdash/pkg/logger"
)

// Router wires the API handlers, the WebSocket endpoint and static files
type Router struct {
	handler  *Handler
	static   http.Handler
	wsServer *websocket.Server
	config   *config.Config
	logger   *logger.Logger
}

// NewRouter creates a new router
func NewRouter(home *dashboard.Home, accounts *account.Service, cfg *config.Config, loggerObj *logger.Logger, wsServer *websocket.Server) *Router {
	r := &Router{
		handler:  NewHandler(home, accounts, cfg, loggerObj, wsServer),
		wsServer: wsServer,
		config:   cfg,
		logger:   loggerObj.Named("router"),
	}
	if cfg.Server.StaticFilesDir != "" {
		r.static = NewStaticFileHandler(cfg.Server.StaticFilesDir, loggerObj)
	}
	return r
}

// Routes returns the HTTP handler for all routes
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.requestLogger)
	r.Use(corsMiddleware(rt.config.Server.CORSAllowedOrigins))

	h := rt.handler
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.GetHealth)
		r.Get("/config", h.GetConfig)
		r.Get("/view", h.GetView)
		r.Get("/vessels", h.GetVessels)
		r.Get("/vessels/{mmsi}", h.GetVesselByMMSI)
		r.Get("/charts", h.GetCharts)

		r.Post("/search", h.Search)
		r.Post("/page", h.ChangePage)
		r.Post("/select", h.Select)

		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})

	if rt.wsServer != nil && rt.config.Server.WebSocketUpdates {
		r.Get("/ws", rt.wsServer.HandleConnection)
	}

	if rt.static != nil {
		r.Handle("/*", rt.static)
	}

	return r
}

// requestLogger logs each request at debug level
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		rt.logger.Debug("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// corsMiddleware answers preflight requests and sets CORS headers for
// allowed origins. ["*"] allows every origin.
func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	allowAll := slices.Contains(allowed, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.ContainsFunc(allowed, func(a string) bool {
				return strings.EqualFold(a, origin)
			})) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
