// Package publish provides the HTTP handler for the publish endpoint, the
// entry point of the post-creation and featured-image workflow.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/handler/http/respond"
	pubUC "blogsmith/internal/usecase/publish"
)

// Response is the publish result returned to the client. The camelCase keys
// are part of the public contract.
//
// FeaturedImageURL is null unless the image was actually attached as the
// post's featured media; ImageStatus tells "no image requested" (none) apart
// from "image requested but a step failed" (failed).
type Response struct {
	Detail           string  `json:"detail" example:"Post successfully draft to WordPress!"`
	PostID           int64   `json:"postId" example:"42"`
	FeaturedImageURL *string `json:"featuredImageUrl" example:"https://img/1.jpg"`
	ImageStatus      string  `json:"imageStatus" example:"attached"`
}

type Handler struct{ Svc *pubUC.Service }

// ServeHTTP publishes a post to the CMS
// @Summary      Publish a post
// @Description  Creates the post on the CMS with the given status and, when a featured image URL is supplied, runs the best-effort image workflow (download, upload, alt text, attach, credit). The post is never rolled back by an image failure.
// @Tags         publish
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body object true "Post fields plus optional featured image data"
// @Success      200 {object} Response "Publish result"
// @Failure      400 {string} string "Bad request - missing required field or malformed image URL"
// @Failure      502 {string} string "Upstream failure - the CMS rejected or was unreachable for the create call"
// @Router       /publish [post]
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title            string `json:"title"`
		Content          string `json:"content"`
		Status           string `json:"status"`
		FeaturedImageURL string `json:"featured_image_url"`
		PhotographerName string `json:"photographer_name"`
		PhotographerLink string `json:"photographer_link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	post, err := h.Svc.Publish(r.Context(), entity.PublishRequest{
		Title:            req.Title,
		Content:          req.Content,
		Status:           req.Status,
		FeaturedImageURL: req.FeaturedImageURL,
		PhotographerName: req.PhotographerName,
		PhotographerLink: req.PhotographerLink,
	})
	if err != nil {
		var vErr *entity.ValidationError
		switch {
		case errors.As(err, &vErr):
			respond.Error(w, http.StatusBadRequest, vErr)
		case errors.Is(err, pubUC.ErrPublishFailed):
			respond.JSON(w, http.StatusBadGateway, map[string]string{"error": respond.SanitizeError(err)})
		default:
			respond.SafeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	resp := Response{
		// The status is interpolated verbatim: "draft" reads a little odd
		// but matches the published contract.
		Detail:      fmt.Sprintf("Post successfully %s to WordPress!", req.Status),
		PostID:      post.PostID,
		ImageStatus: string(post.ImageStatus),
	}
	if post.FeaturedImageURL != "" {
		resp.FeaturedImageURL = &post.FeaturedImageURL
	}

	respond.JSON(w, http.StatusOK, resp)
}

// Register registers the publish endpoint with the given mux.
func Register(mux *http.ServeMux, svc *pubUC.Service) {
	mux.Handle("POST /publish", Handler{Svc: svc})
}
