package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the dashboard to be served from another origin. With no
// origins configured it is a pass-through.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "X-Team-ID", "X-Request-Id", "HX-Request", "HX-Target", "HX-Current-URL"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return c.Handler
}
