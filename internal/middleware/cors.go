package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors lets browsers on origins call the game server and the placement
// service. No origins means any origin.
func Cors(origins ...string) Middleware {
	options := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		// echo the origin back instead of "*"
		options.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(options).Handler
}
