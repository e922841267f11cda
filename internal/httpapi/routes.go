package httpapi

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbomb-backend/internal/hub"
	"github.com/DoyleJ11/wordbomb-backend/internal/lobby"
	"github.com/DoyleJ11/wordbomb-backend/internal/store"
	"github.com/DoyleJ11/wordbomb-backend/internal/ws"
)

type Options struct {
	// Origins are host patterns allowed for CORS and websocket upgrades.
	Origins      []string
	HistoryLimit int
	Log          *zap.Logger
}

func SetupRoutes(lb *lobby.Lobby, h *hub.Hub, archive store.Archive, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.HistoryLimit < 1 {
		opts.HistoryLimit = 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log.Named("http")))
	r.Use(cors.Handler(corsOptions(opts.Origins)))

	// Public routes
	r.Get("/get_state", GetState(lb))
	r.Post("/start", Start(lb))
	r.Get("/history", History(archive, opts.HistoryLimit, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(lb, h, ws.Options{OriginPatterns: opts.Origins, Log: log.Named("ws")}))
	return r
}

func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// corsOptions lets browsers from an allowed origin call the API. Origins are
// matched on host the same way websocket.AcceptOptions.OriginPatterns are.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return originAllowed(origin, origins)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}
}

func originAllowed(origin string, patterns []string) bool {
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	for _, p := range patterns {
		if ok, _ := path.Match(strings.ToLower(p), strings.ToLower(host)); ok {
			return true
		}
	}
	return false
}
