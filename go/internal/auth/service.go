package auth

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
)

var statuses = map[error]int{
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrNotAuthenticated:   http.StatusUnauthorized,
	ErrSessionExpired:     http.StatusUnauthorized,
	ErrEmailTaken:         http.StatusConflict,
	ErrAuthFailed:         http.StatusInternalServerError,
}

// Service exposes authentication over HTTP
type Service struct {
	app   *App
	guard *Guard
}

// NewService creates a new auth service
func NewService(app *App, guard *Guard) *Service {
	return &Service{app: app, guard: guard}
}

// RegisterRoutes mounts the public auth routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/session", s.session).Methods(http.MethodGet)
	r.HandleFunc("/auth/username-available", s.usernameAvailable).Methods(http.MethodGet)
	r.HandleFunc("/auth/user-types", s.userTypes).Methods(http.MethodGet)
}

func (s *Service) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	session, err := s.app.Login(r.Context(), req)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, session)
}

func (s *Service) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	session, err := s.app.Register(r.Context(), req)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusCreated, session)
}

func (s *Service) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Logout(r.Context()); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) session(w http.ResponseWriter, r *http.Request) {
	session, ok := s.guard.Session(r.Context())
	if !ok {
		httputil.Error(w, ErrNotAuthenticated, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, session)
}

type availability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

func (s *Service) usernameAvailable(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("username")
	httputil.JSON(w, http.StatusOK, availability{Username: name, Available: s.app.UsernameAvailable(r.Context(), name)})
}

func (s *Service) userTypes(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, UserTypes)
}
