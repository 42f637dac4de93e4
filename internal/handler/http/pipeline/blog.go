package pipeline

import (
	"encoding/json"
	"net/http"

	"blogsmith/internal/handler/http/respond"
	pipeUC "blogsmith/internal/usecase/pipeline"
)

type BlogHandler struct{ Svc *pipeUC.Service }

// ServeHTTP generates the full blog post
// @Summary      Generate the full article
// @Description  Expands the outline into a complete blog post in the requested writing style and length. An empty writing style falls back to the professional default.
// @Tags         pipeline
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body object true "Outline, optional writing style, and length type"
// @Success      200 {object} BlogPostResponse "Article text"
// @Failure      400 {string} string "Bad request - outline is required"
// @Failure      502 {string} string "Upstream failure - text generation provider errored"
// @Router       /generate_blog [post]
func (h BlogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Outline      string `json:"outline"`
		WritingStyle string `json:"writing_style"`
		LengthType   string `json:"length_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	post, err := h.Svc.GenerateArticle(r.Context(), req.Outline, req.WritingStyle, req.LengthType)
	if err != nil {
		respondError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, BlogPostResponse{BlogPost: post})
}
