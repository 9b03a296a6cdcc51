package focus

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/timer"
)

// DefaultTodayLimit is how many of today's sessions the modes screen lists.
const DefaultTodayLimit = 3

var statuses = map[error]int{
	ErrUnknownMode:          http.StatusNotFound,
	ErrNoActiveSession:      http.StatusConflict,
	ErrSessionInProgress:    http.StatusConflict,
	timer.ErrAlreadyRunning: http.StatusConflict,
	timer.ErrNotRunning:     http.StatusConflict,
	timer.ErrClosed:         http.StatusConflict,
}

// Service exposes focus modes and the session timer over HTTP
type Service struct {
	app *App
}

// NewService creates a new focus service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the focus routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/focus/modes", s.listModes).Methods(http.MethodGet)
	r.HandleFunc("/focus/select", s.selectMode).Methods(http.MethodPost)
	r.HandleFunc("/focus/state", s.getState).Methods(http.MethodGet)
	r.HandleFunc("/focus/start", s.start).Methods(http.MethodPost)
	r.HandleFunc("/focus/pause", s.pause).Methods(http.MethodPost)
	r.HandleFunc("/focus/stop", s.stop).Methods(http.MethodPost)
	r.HandleFunc("/focus/sessions/today", s.todaySessions).Methods(http.MethodGet)
	r.HandleFunc("/focus/stats", s.stats).Methods(http.MethodGet)
}

type modesResponse struct {
	Modes   []models.FocusMode `json:"modes"`
	Presets []Preset           `json:"custom_presets"`
}

func (s *Service) listModes(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, modesResponse{Modes: Modes(), Presets: Presets()})
}

// SelectRequest picks a built-in mode, or builds a custom one from name, hours and minutes.
type SelectRequest struct {
	Type    models.FocusModeType `json:"type"`
	Name    string               `json:"name"`
	Hours   int                  `json:"hours"`
	Minutes int                  `json:"minutes"`
}

type stateResponse struct {
	Mode     models.FocusMode `json:"mode"`
	Snapshot timer.Snapshot   `json:"timer"`
}

func (s *Service) selectMode(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}

	var (
		mode models.FocusMode
		err  error
	)
	if req.Type == models.FocusModeCustom {
		mode, err = ValidateCustomMode(req.Name, req.Hours, req.Minutes)
	} else {
		mode, err = ModeByType(req.Type)
	}
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}

	snap, err := s.app.Select(r.Context(), mode)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, stateResponse{Mode: mode, Snapshot: snap})
}

func (s *Service) getState(w http.ResponseWriter, r *http.Request) {
	mode, err := s.app.Selected()
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	snap, err := s.app.Snapshot()
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, stateResponse{Mode: mode, Snapshot: snap})
}

func (s *Service) start(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.app.Start)
}

func (s *Service) pause(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.app.Pause)
}

func (s *Service) stop(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.app.Stop)
}

func (s *Service) control(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) (timer.Snapshot, error)) {
	snap, err := fn(r.Context())
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, snap)
}

func (s *Service) todaySessions(w http.ResponseWriter, r *http.Request) {
	limit := DefaultTodayLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.Error(w, fmt.Errorf("%w: limit must be a non-negative integer", httputil.ErrBadRequest), statuses)
			return
		}
		limit = n
	}
	httputil.JSON(w, http.StatusOK, s.app.TodaySessions(r.Context(), limit))
}

func (s *Service) stats(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.app.Stats(r.Context()))
}
