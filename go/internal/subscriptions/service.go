package subscriptions

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcdev12/nexora/go/internal/httputil"
	"github.com/mcdev12/nexora/go/internal/models"
)

var statuses = map[error]int{
	ErrPlanNotFound:          http.StatusNotFound,
	ErrInvalidBillingCycle:   http.StatusBadRequest,
	ErrAlreadySubscribed:     http.StatusConflict,
	ErrNoPaymentMethod:       http.StatusUnprocessableEntity,
	ErrNoSubscription:        http.StatusConflict,
	ErrAlreadyCancelled:      http.StatusConflict,
	ErrPaymentMethodNotFound: http.StatusNotFound,
	ErrPaymentMethodInUse:    http.StatusConflict,
	ErrInvalidPlanPeriod:     http.StatusUnprocessableEntity,
}

// Service exposes subscription management over HTTP
type Service struct {
	app *App
}

// NewService creates a new subscriptions service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the subscription routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/subscription", s.current).Methods(http.MethodGet)
	r.HandleFunc("/subscription/plans", s.plans).Methods(http.MethodGet)
	r.HandleFunc("/subscription/upgrade", s.upgrade).Methods(http.MethodPost)
	r.HandleFunc("/subscription/cancel", s.cancel).Methods(http.MethodPost)
	r.HandleFunc("/subscription/history", s.history).Methods(http.MethodGet)
	r.HandleFunc("/subscription/payment-methods", s.listPaymentMethods).Methods(http.MethodGet)
	r.HandleFunc("/subscription/payment-methods", s.addPaymentMethod).Methods(http.MethodPost)
	r.HandleFunc("/subscription/payment-methods/{id}/default", s.setDefault).Methods(http.MethodPut)
	r.HandleFunc("/subscription/payment-methods/{id}", s.removePaymentMethod).Methods(http.MethodDelete)
}

func (s *Service) current(w http.ResponseWriter, r *http.Request) {
	v, err := s.app.Current(r.Context())
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, v)
}

func (s *Service) plans(w http.ResponseWriter, r *http.Request) {
	offers, err := s.app.Plans(models.BillingCycle(r.URL.Query().Get("cycle")))
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, offers)
}

// UpgradeRequest picks a plan and billing cycle
type UpgradeRequest struct {
	Plan         string              `json:"plan"`
	BillingCycle models.BillingCycle `json:"billing_cycle"`
}

func (s *Service) upgrade(w http.ResponseWriter, r *http.Request) {
	var req UpgradeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	v, err := s.app.Upgrade(r.Context(), req.Plan, req.BillingCycle)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, v)
}

// CancelRequest carries the optional cancellation feedback
type CancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Service) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	v, err := s.app.Cancel(r.Context(), req.Reason)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, v)
}

func (s *Service) history(w http.ResponseWriter, r *http.Request) {
	h, err := s.app.History(r.Context())
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, h)
}

func (s *Service) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.app.PaymentMethods(r.Context()))
}

func (s *Service) addPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req CardRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	card, err := s.app.AddPaymentMethod(r.Context(), req)
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusCreated, card)
}

func (s *Service) setDefault(w http.ResponseWriter, r *http.Request) {
	methods, err := s.app.SetDefaultPaymentMethod(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	httputil.JSON(w, http.StatusOK, methods)
}

func (s *Service) removePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.app.RemovePaymentMethod(r.Context(), mux.Vars(r)["id"]); err != nil {
		httputil.Error(w, err, statuses)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
