package notifications

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
	"github.com/mcdev12/nexora/go/internal/models"
)

var statuses = map[error]int{
	ErrUnknownCategory:  http.StatusNotFound,
	ErrCriticalAlwaysOn: http.StatusConflict,
}

// Service exposes notification management over HTTP
type Service struct {
	app *App
}

// NewService creates a new notifications service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the notification routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/notifications/preferences", s.getPreferences).Methods(http.MethodGet)
	r.HandleFunc("/notifications/preferences", s.putPreferences).Methods(http.MethodPut)
	r.HandleFunc("/notifications/toggles/{category}", s.toggle).Methods(http.MethodPost)
	r.HandleFunc("/notifications/quiet-hours", s.putQuietHours).Methods(http.MethodPut)
	r.HandleFunc("/notifications/sound", s.putSound).Methods(http.MethodPut)
	r.HandleFunc("/notifications/sounds", s.listSounds).Methods(http.MethodGet)
	r.HandleFunc("/notifications/history", s.getHistory).Methods(http.MethodGet)
	r.HandleFunc("/notifications/history", s.clearHistory).Methods(http.MethodDelete)
	r.HandleFunc("/notifications/test", s.sendTest).Methods(http.MethodPost)
}

func (s *Service) getPreferences(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.app.Preferences(r.Context()))
}

func (s *Service) putPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := s.app.Preferences(r.Context())
	if err := httputil.DecodeJSON(r, &prefs); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	updated, err := s.app.Update(r.Context(), prefs)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

func (s *Service) toggle(w http.ResponseWriter, r *http.Request) {
	category := models.NotificationCategory(mux.Vars(r)["category"])
	updated, err := s.app.Toggle(r.Context(), category)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

func (s *Service) putQuietHours(w http.ResponseWriter, r *http.Request) {
	q := s.app.Preferences(r.Context()).QuietHours
	if err := httputil.DecodeJSON(r, &q); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	updated, err := s.app.SetQuietHours(r.Context(), q)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

func (s *Service) putSound(w http.ResponseWriter, r *http.Request) {
	snd := s.app.Preferences(r.Context()).Sound
	if err := httputil.DecodeJSON(r, &snd); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	updated, err := s.app.SetSound(r.Context(), snd)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

func (s *Service) listSounds(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, SoundOptions)
}

func (s *Service) getHistory(w http.ResponseWriter, r *http.Request) {
	category := models.NotificationCategory(r.URL.Query().Get("category"))
	httputil.JSON(w, http.StatusOK, s.app.History(r.Context(), category))
}

func (s *Service) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.app.ClearHistory(r.Context()); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type testRequest struct {
	Category models.NotificationCategory `json:"category"`
	Title    string                      `json:"title"`
	Body     string                      `json:"body"`
}

func (s *Service) sendTest(w http.ResponseWriter, r *http.Request) {
	req := testRequest{
		Category: models.NotificationFocusSessionAlerts,
		Title:    "Test Notification",
		Body:     "This is how your notifications will look.",
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	if _, err := toggleField(&models.NotificationToggles{}, req.Category); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	entry, err := s.app.Notify(r.Context(), req.Category, req.Title, req.Body)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusCreated, entry)
}
