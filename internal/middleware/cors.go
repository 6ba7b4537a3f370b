package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/benvon/portfolio-api/internal/request"
	"github.com/rs/cors"
)

const defaultFrontendOrigin = "http://localhost:3000"

// CORS allows the portfolio frontend origins to read the API. frontendURL is
// a comma-separated list; the local development origin is always allowed.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: ParseOrigins(frontendURL),
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", request.RequestIDHeader},
		ExposedHeaders: []string{
			request.RequestIDHeader,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 86400,
	})
	return c.Handler
}

// ParseOrigins splits a comma-separated origin list, dropping blanks and
// duplicates
func ParseOrigins(frontendURL string) []string {
	origins := []string{defaultFrontendOrigin}
	for o := range strings.SplitSeq(frontendURL, ",") {
		o = strings.TrimSpace(o)
		if o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	return origins
}
