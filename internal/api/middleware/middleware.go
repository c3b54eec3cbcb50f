package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/wordlobby/internal/api/apierr"
	"github.com/mcoot/wordlobby/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// Returns JSON error responses on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

// Logging creates request logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "http")))
}

// CORS creates cross-origin middleware for the API
func CORS(cfg middleware.CORSConfig) func(http.Handler) http.Handler {
	return middleware.CORS(cfg)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
