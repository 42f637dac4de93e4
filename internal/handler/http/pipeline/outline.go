package pipeline

import (
	"encoding/json"
	"net/http"

	"blogsmith/internal/handler/http/respond"
	pipeUC "blogsmith/internal/usecase/pipeline"
)

type OutlineHandler struct{ Svc *pipeUC.Service }

// ServeHTTP generates an outline for an idea
// @Summary      Generate an outline
// @Description  Generates an SEO-optimized outline for the selected idea, sized to the requested length type (short, medium, long).
// @Tags         pipeline
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body object true "Idea and length type"
// @Success      200 {object} OutlineResponse "Outline text"
// @Failure      400 {string} string "Bad request - idea is required"
// @Failure      502 {string} string "Upstream failure - text generation provider errored"
// @Router       /generate_outline [post]
func (h OutlineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Idea       string `json:"idea"`
		LengthType string `json:"length_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	outline, err := h.Svc.GenerateOutline(r.Context(), req.Idea, req.LengthType)
	if err != nil {
		respondError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, OutlineResponse{Outline: outline})
}
