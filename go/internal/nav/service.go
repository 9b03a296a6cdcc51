package nav

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
)

// AuthChecker reports whether the profile is signed in
type AuthChecker interface {
	Authenticated(ctx context.Context) bool
}

// Service exposes the route table over HTTP
type Service struct {
	auth AuthChecker
}

// NewService creates a new nav service
func NewService(auth AuthChecker) *Service {
	return &Service{auth: auth}
}

// RegisterRoutes mounts the navigation routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/routes", s.list).Methods(http.MethodGet)
	r.HandleFunc("/routes/resolve", s.resolve).Methods(http.MethodGet)
}

type routesResponse struct {
	Routes []Route `json:"routes"`
	Menu   []Route `json:"menu"`
}

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, routesResponse{Routes: Routes(), Menu: Menu()})
}

func (s *Service) resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	httputil.JSON(w, http.StatusOK, Resolve(q.Get("path"), s.auth.Authenticated(r.Context()), q.Get("from")))
}
