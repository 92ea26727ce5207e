package gateway

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware allows the control API to be driven from any origin, such as a control
// page opened from disk.
func CORSMiddleware(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	})
	return c.Handler(next)
}
