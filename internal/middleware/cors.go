package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets browser clients on any origin call the API and the MCP endpoint.
// Preflight requests are answered before authentication runs.
var CORS = cors.Handler(cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	AllowedHeaders: []string{"Content-Type", "Authorization", "Mcp-Session-Id", "Mcp-Protocol-Version"},
	ExposedHeaders: []string{"Mcp-Session-Id"},
	MaxAge:         86400,
})
