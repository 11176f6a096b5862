package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS wraps the router with the allowed origins. An empty list allows any
// origin without credentials.
func CORS(allowedOrigins []string) *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}
	if len(allowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = allowedOrigins
		opts.AllowCredentials = true
	}
	return cors.New(opts)
}
