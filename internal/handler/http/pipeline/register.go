package pipeline

import (
	"net/http"

	pipeUC "blogsmith/internal/usecase/pipeline"
)

// Register registers the generation endpoints with the given mux.
// Authentication, rate limiting, and the rest of the middleware chain are
// applied by the caller; the handlers themselves are stateless.
func Register(mux *http.ServeMux, svc *pipeUC.Service) {
	mux.Handle("POST /generate_ideas", IdeasHandler{Svc: svc})
	mux.Handle("POST /select_idea", SelectHandler{Svc: svc})
	mux.Handle("POST /generate_outline", OutlineHandler{Svc: svc})
	mux.Handle("POST /generate_blog", BlogHandler{Svc: svc})
}
