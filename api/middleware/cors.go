package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/omanfreight/quote-service/pkg/config"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"http://localhost:5173", // vite dev server
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", idempotencyHeader, requestIDHeader, adminKeyHeader, "X-Requested-With"},
		ExposedHeaders:   []string{"Location", "Retry-After", requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
