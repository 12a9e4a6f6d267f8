// Package home serves the endpoints that are not tied to a resource.
package home

import (
	"net/http"

	"github.com/aanand-mishra/school-api/internal/messages"
	"github.com/aanand-mishra/school-api/internal/utils/response"
)

// Welcome handles GET /api
func Welcome(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, response.Message{Message: messages.Welcome})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
}
