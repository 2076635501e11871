package http

import (
	"log/slog"
	"net/http"

	"formula-trivia/internal/app"
)

// RouterConfig tunes the middleware chain.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter registers every endpoint behind request id and logging
// middleware. Rate limiting is enabled when RateLimitRPS is positive.
func NewRouter(service *app.GameService, logger *slog.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ws := NewWSHandler(service, logger)
	rest := NewRESTHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rest.Health)
	mux.HandleFunc("GET /levels", rest.Levels)
	mux.HandleFunc("GET /leaderboard", rest.Leaderboard)
	mux.HandleFunc("/ws", ws.ServeWS)

	var handler http.Handler = mux
	if cfg.RateLimitRPS > 0 {
		handler = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware(handler)
	}
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}
