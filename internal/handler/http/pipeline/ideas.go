package pipeline

import (
	"encoding/json"
	"net/http"

	"blogsmith/internal/handler/http/respond"
	pipeUC "blogsmith/internal/usecase/pipeline"
)

type IdeasHandler struct{ Svc *pipeUC.Service }

// ServeHTTP generates blog post ideas
// @Summary      Generate blog post ideas
// @Description  Generates SEO-optimized blog post ideas for the given genre.
// @Tags         pipeline
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body object true "Genre to generate ideas for"
// @Success      200 {object} IdeasResponse "Parsed idea list"
// @Failure      400 {string} string "Bad request - genre is required"
// @Failure      502 {string} string "Upstream failure - text generation provider errored"
// @Router       /generate_ideas [post]
func (h IdeasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Genre string `json:"genre"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	ideas, err := h.Svc.GenerateIdeas(r.Context(), req.Genre)
	if err != nil {
		respondError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, IdeasResponse{Ideas: ideas})
}
