package pipeline

import (
	"encoding/json"
	"net/http"

	"blogsmith/internal/handler/http/respond"
	pipeUC "blogsmith/internal/usecase/pipeline"
)

type SelectHandler struct{ Svc *pipeUC.Service }

// ServeHTTP selects the most promising idea
// @Summary      Select the best idea
// @Description  Asks the provider to pick the most promising idea from the list. A single-element list is returned as-is without a provider call.
// @Tags         pipeline
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body object true "Candidate ideas"
// @Success      200 {object} SelectionResponse "The chosen idea"
// @Failure      400 {string} string "Bad request - at least one idea is required"
// @Failure      502 {string} string "Upstream failure - text generation provider errored"
// @Router       /select_idea [post]
func (h SelectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ideas []string `json:"ideas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	selected, err := h.Svc.SelectIdea(r.Context(), req.Ideas)
	if err != nil {
		respondError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, SelectionResponse{SelectedIdea: selected})
}
