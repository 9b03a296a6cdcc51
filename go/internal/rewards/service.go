package rewards

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
)

var statuses = map[error]int{
	ErrRewardNotFound:     http.StatusNotFound,
	ErrRewardUnavailable:  http.StatusConflict,
	ErrAlreadyRedeemed:    http.StatusConflict,
	ErrInsufficientPoints: http.StatusUnprocessableEntity,
	ErrUnknownCategory:    http.StatusBadRequest,
}

// Service exposes rewards and achievements over HTTP
type Service struct {
	app *App
}

// NewService creates a new rewards service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the rewards routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/rewards", s.catalog).Methods(http.MethodGet)
	r.HandleFunc("/rewards/{id:[0-9]+}/redeem", s.redeem).Methods(http.MethodPost)
	r.HandleFunc("/rewards/badges", s.badges).Methods(http.MethodGet)
	r.HandleFunc("/rewards/achievements", s.achievements).Methods(http.MethodGet)
	r.HandleFunc("/rewards/achievements/check", s.checkAchievements).Methods(http.MethodPost)
	r.HandleFunc("/rewards/celebration", s.celebration).Methods(http.MethodPost)
	r.HandleFunc("/rewards/dashboard", s.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/rewards/stats", s.stats).Methods(http.MethodGet)
}

func (s *Service) catalog(w http.ResponseWriter, r *http.Request) {
	view, err := s.app.Catalog(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

func (s *Service) redeem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, fmt.Errorf("%w: invalid reward id", httputil.ErrBadRequest), statuses)
		return
	}
	res, err := s.app.Redeem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (s *Service) badges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.app.Badges(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, badges)
}

func (s *Service) achievements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.Error(w, fmt.Errorf("%w: limit must be an integer", httputil.ErrBadRequest), statuses)
			return
		}
		limit = n
	}
	httputil.JSON(w, http.StatusOK, s.app.RecentAchievements(r.Context(), limit))
}

func (s *Service) checkAchievements(w http.ResponseWriter, r *http.Request) {
	earned, err := s.app.CheckAchievements(r.Context())
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, earned)
}

func (s *Service) celebration(w http.ResponseWriter, r *http.Request) {
	c, err := s.app.CheckCelebration(r.Context())
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, c)
}

func (s *Service) dashboard(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.app.Dashboard(r.Context()))
}

func (s *Service) stats(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.app.Stats(r.Context()))
}
