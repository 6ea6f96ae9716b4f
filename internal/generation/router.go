package generation

import (
	"context"
	"fmt"

	"github.com/caselight/caselight-api/internal/domain"
)

// Router dispatches generation requests to the backend registered for
// the request's artifact kind. It implements Service itself so the
// orchestration core stays agnostic of how many backends exist.
type Router struct {
	backends map[domain.ArtifactKind]Service
}

// NewRouter creates a router with no registered backends.
func NewRouter() *Router {
	return &Router{backends: make(map[domain.ArtifactKind]Service)}
}

// Register binds a backend to an artifact kind, replacing any previous
// binding for that kind.
func (r *Router) Register(kind domain.ArtifactKind, svc Service) {
	r.backends[kind] = svc
}

// Generate implements Service.
func (r *Router) Generate(ctx context.Context, req Request) (*Response, error) {
	svc, ok := r.backends[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, req.Kind)
	}
	return svc.Generate(ctx, req)
}

var _ Service = (*Router)(nil)
