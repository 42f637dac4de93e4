package pipeline

import (
	"errors"
	"net/http"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/handler/http/respond"
	pipeUC "blogsmith/internal/usecase/pipeline"
)

// respondError maps pipeline use case errors to HTTP responses. The error
// kinds are closed per endpoint: validation failures are client errors,
// provider failures are upstream errors with the sanitized message, and
// everything else is an internal error.
func respondError(w http.ResponseWriter, err error) {
	var vErr *entity.ValidationError
	switch {
	case errors.As(err, &vErr):
		respond.Error(w, http.StatusBadRequest, vErr)
	case errors.Is(err, pipeUC.ErrGenerationFailed):
		respond.JSON(w, http.StatusBadGateway, map[string]string{"error": respond.SanitizeError(err)})
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
