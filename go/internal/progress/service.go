package progress

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
)

// Service exposes progress over HTTP
type Service struct {
	app *App
}

// NewService creates a new progress service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the progress routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/progress", s.getProgress).Methods(http.MethodGet)
	r.HandleFunc("/progress/goals", s.putGoals).Methods(http.MethodPut)
	r.HandleFunc("/progress/active", s.touchActive).Methods(http.MethodPost)
}

func (s *Service) getProgress(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.app.View(r.Context()))
}

func (s *Service) putGoals(w http.ResponseWriter, r *http.Request) {
	current := s.app.View(r.Context())
	goals := Goals{DailyGoal: current.DailyGoal, WeeklyGoal: current.WeeklyGoal}
	if err := httputil.DecodeJSON(r, &goals); err != nil {
		httputil.Error(w, err, nil)
		return
	}
	p, err := s.app.SetGoals(r.Context(), goals)
	if err != nil {
		httputil.Error(w, err, nil)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

func (s *Service) touchActive(w http.ResponseWriter, r *http.Request) {
	if err := s.app.TouchActive(r.Context()); err != nil {
		httputil.Error(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
