package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS builds the cross-origin middleware for the browser frontend.
// frontendURL is a comma-separated origin list; localhost is always allowed
// for development.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000"}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		exists := false
		for _, existing := range origins {
			if existing == trimmed {
				exists = true
				break
			}
		}
		if !exists {
			origins = append(origins, trimmed)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}
