// Package photo provides the HTTP handler for the random featured-photo
// lookup endpoint. The returned candidate is previewed by the client and
// echoed back unchanged in a later publish request.
package photo

import (
	"errors"
	"net/http"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/handler/http/respond"
	photoUC "blogsmith/internal/usecase/photo"
)

// DTO represents the JSON structure for a photo candidate.
type DTO struct {
	ImageURL         string `json:"image_url" example:"https://images.unsplash.com/photo-1"`
	PhotographerName string `json:"photographer_name" example:"Jane Doe"`
	PhotographerLink string `json:"photographer_link" example:"https://unsplash.com/@jane"`
}

type RandomHandler struct{ Svc *photoUC.Service }

// ServeHTTP fetches one random photo
// @Summary      Fetch a random photo
// @Description  Returns one random landscape photo matching the genre, with photographer attribution for the credit line.
// @Tags         photo
// @Security     BearerAuth
// @Produce      json
// @Param        genre query string true "Topic genre to match"
// @Success      200 {object} DTO "Photo candidate"
// @Failure      400 {string} string "Bad request - genre is required"
// @Failure      502 {string} string "Upstream failure - photo provider errored or returned no photo"
// @Router       /get_random_image [get]
func (h RandomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")

	candidate, err := h.Svc.RandomPhoto(r.Context(), genre)
	if err != nil {
		var vErr *entity.ValidationError
		switch {
		case errors.As(err, &vErr):
			respond.Error(w, http.StatusBadRequest, vErr)
		case errors.Is(err, photoUC.ErrPhotoLookupFailed):
			respond.JSON(w, http.StatusBadGateway, map[string]string{"error": respond.SanitizeError(err)})
		default:
			respond.SafeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	respond.JSON(w, http.StatusOK, DTO{
		ImageURL:         candidate.ImageURL,
		PhotographerName: candidate.PhotographerName,
		PhotographerLink: candidate.PhotographerLink,
	})
}

// Register registers the photo endpoint with the given mux.
func Register(mux *http.ServeMux, svc *photoUC.Service) {
	mux.Handle("GET /get_random_image", RandomHandler{Svc: svc})
}
