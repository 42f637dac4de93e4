package http

import (
	"net/http"

	"blogsmith/internal/handler/http/respond"
)

// RootHandler serves the greeting on GET /. It predates the health
// endpoints and is kept because clients use it as a cheap connectivity
// probe.
type RootHandler struct{}

// ServeHTTP returns the API greeting
// @Summary      API greeting
// @Description  Returns a greeting message confirming the API is reachable.
// @Tags         root
// @Produce      json
// @Success      200 {object} map[string]string "Greeting"
// @Router       / [get]
func (h RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// ServeMux treats "/" as a catch-all; anything else under it is a 404.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Hello from the blogsmith API!"})
}
