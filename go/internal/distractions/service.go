package distractions

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
	"github.com/mcdev12/nexora/go/internal/models"
)

var statuses = map[error]int{
	ErrUnknownCategory: http.StatusBadRequest,
}

// Service exposes distraction tracking over HTTP
type Service struct {
	app *App
}

// NewService creates a new distractions service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the distraction routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/distractions", s.tracking).Methods(http.MethodGet)
	r.HandleFunc("/distractions", s.record).Methods(http.MethodPost)
	r.HandleFunc("/distractions", s.reset).Methods(http.MethodDelete)
	r.HandleFunc("/distractions/recent", s.recent).Methods(http.MethodGet)
	r.HandleFunc("/distractions/categories", s.categories).Methods(http.MethodGet)
	r.HandleFunc("/distractions/export", s.export).Methods(http.MethodGet)
	r.HandleFunc("/distractions/insights", s.insights).Methods(http.MethodGet)
}

func (s *Service) tracking(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.app.Tracking(r.Context()))
}

func (s *Service) record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	d, err := s.app.Record(r.Context(), req)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusCreated, d)
}

func (s *Service) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Reset(r.Context()); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) recent(w http.ResponseWriter, r *http.Request) {
	view, err := s.app.Recent(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

func (s *Service) categories(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, Categories)
}

func (s *Service) export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.app.ExportFilename()+`"`)
	httputil.JSON(w, http.StatusOK, s.app.Export(r.Context()))
}

type insightsResponse struct {
	Insights []models.Insight              `json:"insights"`
	Weekly   models.WeeklyDistractionStats `json:"weekly_stats"`
}

func (s *Service) insights(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, insightsResponse{Insights: s.app.Insights(), Weekly: s.app.WeeklyStats()})
}
