package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CORS allows read-only cross-origin access from the given origins.
// Preflight requests get their CORS headers here and then continue to the
// router, which answers them with 404 or 405 like any other OPTIONS request.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{
			"Accept",
			chimiddleware.RequestIDHeader,
			"traceparent",
		},
		ExposedHeaders:     []string{chimiddleware.RequestIDHeader},
		MaxAge:             600,
		OptionsPassthrough: true,
	})
}
