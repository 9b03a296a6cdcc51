package gateway

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/httputil"
)

// Service exposes the websocket endpoint and its statistics
type Service struct {
	manager *ConnectionManager
}

// NewService creates a new gateway service
func NewService(manager *ConnectionManager) *Service {
	return &Service{manager: manager}
}

// RegisterRoutes mounts the websocket routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/timer", s.connect).Methods(http.MethodGet)
	r.HandleFunc("/ws/stats", s.stats).Methods(http.MethodGet)
}

func (s *Service) connect(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Upgrade(w, r); err != nil {
		// the upgrader has already written the HTTP error
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
	}
}

func (s *Service) stats(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.manager.Stats())
}
