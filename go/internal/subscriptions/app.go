package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/validation"
)

var (
	ErrPlanNotFound          = errors.New("plan not found")
	ErrInvalidBillingCycle   = errors.New("invalid billing cycle")
	ErrAlreadySubscribed     = errors.New("already subscribed to this plan")
	ErrNoPaymentMethod       = errors.New("no payment method on file")
	ErrNoSubscription        = errors.New("no active subscription")
	ErrAlreadyCancelled      = errors.New("subscription already cancelled")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrPaymentMethodInUse    = errors.New("payment method is needed for the active subscription")
	ErrInvalidPlanPeriod     = errors.New("plan has no billing period")
)

// MaxCancelReason bounds the cancellation feedback.
const MaxCancelReason = 500

// MaxMissedPeriods is how many overdue periods are charged on catch-up.
// A subscription further behind than this expires instead.
const MaxMissedPeriods = 12

// Actions reported on subscription.changed events
const (
	ActionUpgraded  = "upgraded"
	ActionCancelled = "cancelled"
	ActionRenewed   = "renewed"
	ActionExpired   = "expired"
)

// Emitter defines what the app needs to publish domain events
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload any)
}

// App manages the subscription plan and payment methods
type App struct {
	repo    *state.Repository
	plans   PlanProvider
	emitter Emitter
	clock   clockwork.Clock
}

// NewApp creates a new subscriptions App. emitter may be nil.
func NewApp(repo *state.Repository, plans PlanProvider, emitter Emitter, clock clockwork.Clock) *App {
	if plans == nil {
		plans = StaticPlans{}
	}
	return &App{repo: repo, plans: plans, emitter: emitter, clock: clock}
}

// PlanOffer is a plan with its price for the requested billing cycle
type PlanOffer struct {
	models.Plan
	Quote Quote `json:"quote"`
}

// Plans lists the plans priced for cycle.
func (a *App) Plans(cycle models.BillingCycle) ([]PlanOffer, error) {
	if cycle == "" {
		cycle = models.BillingMonthly
	}
	if !validCycle(cycle) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBillingCycle, cycle)
	}
	plans := a.plans.Plans()
	offers := make([]PlanOffer, 0, len(plans))
	for _, p := range plans {
		offers = append(offers, PlanOffer{Plan: p, Quote: Price(p, cycle)})
	}
	return offers, nil
}

func (a *App) plan(id string) (models.Plan, bool) {
	for _, p := range a.plans.Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}

// View is the subscription as shown on the management screen
type View struct {
	State         models.SubscriptionState `json:"subscription"`
	Plan          *models.Plan             `json:"plan,omitempty"`
	Active        bool                     `json:"active"`
	DaysRemaining int                      `json:"days_remaining"`
}

// Current returns the subscription after settling any period that has ended:
// cancelled plans fall back to free and the rest renew.
func (a *App) Current(ctx context.Context) (View, error) {
	s, err := a.settle(ctx)
	if err != nil {
		return View{}, err
	}
	return a.view(s), nil
}

func (a *App) view(s models.SubscriptionState) View {
	v := View{State: s}
	if p, ok := a.plan(s.Plan); ok {
		v.Plan = &p
		v.Active = true
	}
	if v.Active && s.RenewalDate != nil {
		left := s.RenewalDate.Sub(a.clock.Now())
		v.DaysRemaining = int(math.Ceil(left.Hours() / 24))
	}
	return v
}

func (a *App) settle(ctx context.Context) (models.SubscriptionState, error) {
	now := a.clock.Now()
	if cur := a.repo.Subscription(ctx); cur.RenewalDate == nil || now.Before(*cur.RenewalDate) {
		return cur, nil
	}
	action := ""
	s, err := a.repo.UpdateSubscription(ctx, func(s *models.SubscriptionState) error {
		if s.RenewalDate == nil || now.Before(*s.RenewalDate) {
			return nil
		}
		p, ok := a.plan(s.Plan)
		if !ok || s.CancelledAt != nil {
			expire(s)
			action = ActionExpired
			return nil
		}
		renewal, history := *s.RenewalDate, s.History
		for due := 0; !now.Before(renewal); due++ {
			next := periodEnd(p, s.BillingCycle, renewal)
			if due == MaxMissedPeriods || !next.After(renewal) {
				log.Warn().
					Str("plan", p.ID).
					Time("renewal_date", *s.RenewalDate).
					Msg("subscription cannot be renewed, expiring")
				expire(s)
				action = ActionExpired
				return nil
			}
			history = append([]models.Transaction{charge(p, s.BillingCycle, renewal, history)}, history...)
			renewal = next
		}
		s.RenewalDate = &renewal
		s.History = history
		action = ActionRenewed
		return nil
	})
	if err != nil {
		return models.SubscriptionState{}, fmt.Errorf("failed to settle subscription: %w", err)
	}
	if action != "" {
		a.changed(ctx, s, action)
	}
	return s, nil
}

func expire(s *models.SubscriptionState) {
	s.Plan = models.FreePlanID
	s.BillingCycle = models.BillingMonthly
	s.StartedAt = nil
	s.RenewalDate = nil
	s.CancelledAt = nil
	s.CancelReason = ""
}

// charge builds the billing history entry for a period starting at at.
func charge(p models.Plan, cycle models.BillingCycle, at time.Time, history []models.Transaction) models.Transaction {
	n := 1
	for _, t := range history {
		if t.Date.Year() == at.Year() {
			n++
		}
	}
	return models.Transaction{
		ID:          uuid.New().String(),
		Date:        at,
		Description: p.Name,
		Amount:      Price(p, cycle).Price,
		Status:      models.TransactionCompleted,
		Invoice:     fmt.Sprintf("INV-%d-%03d", at.Year(), n),
	}
}

// Upgrade moves the profile onto plan billed every cycle, charging the default card.
func (a *App) Upgrade(ctx context.Context, planID string, cycle models.BillingCycle) (View, error) {
	p, ok := a.plan(planID)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	if cycle == "" {
		cycle = models.BillingMonthly
	}
	if !validCycle(cycle) {
		return View{}, fmt.Errorf("%w: %s", ErrInvalidBillingCycle, cycle)
	}
	if _, err := a.settle(ctx); err != nil {
		return View{}, err
	}

	now := a.clock.Now()
	s, err := a.repo.UpdateSubscription(ctx, func(s *models.SubscriptionState) error {
		if s.Plan == p.ID && s.BillingCycle == cycle && s.CancelledAt == nil {
			return ErrAlreadySubscribed
		}
		if len(s.PaymentMethods) == 0 {
			return ErrNoPaymentMethod
		}
		renewal := periodEnd(p, cycle, now)
		if !renewal.After(now) {
			return fmt.Errorf("%w: %s", ErrInvalidPlanPeriod, p.ID)
		}
		s.Plan = p.ID
		s.BillingCycle = cycle
		s.StartedAt = &now
		s.RenewalDate = &renewal
		s.CancelledAt = nil
		s.CancelReason = ""
		s.History = append([]models.Transaction{charge(p, cycle, now, s.History)}, s.History...)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	a.changed(ctx, s, ActionUpgraded)
	return a.view(s), nil
}

// Cancel stops renewal. The plan stays active until the end of the paid period.
func (a *App) Cancel(ctx context.Context, reason string) (View, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxCancelReason {
		return View{}, validation.Errors{"reason": fmt.Sprintf("Reason must be at most %d characters", MaxCancelReason)}
	}
	if _, err := a.settle(ctx); err != nil {
		return View{}, err
	}

	now := a.clock.Now()
	s, err := a.repo.UpdateSubscription(ctx, func(s *models.SubscriptionState) error {
		if s.Plan == models.FreePlanID {
			return ErrNoSubscription
		}
		if s.CancelledAt != nil {
			return ErrAlreadyCancelled
		}
		s.CancelledAt = &now
		s.CancelReason = reason
		return nil
	})
	if err != nil {
		return View{}, err
	}
	a.changed(ctx, s, ActionCancelled)
	return a.view(s), nil
}

// History returns the billing history newest first.
func (a *App) History(ctx context.Context) ([]models.Transaction, error) {
	s, err := a.settle(ctx)
	if err != nil {
		return nil, err
	}
	return s.History, nil
}

func (a *App) changed(ctx context.Context, s models.SubscriptionState, action string) {
	log.Info().
		Str("plan", s.Plan).
		Str("billing_cycle", string(s.BillingCycle)).
		Str("action", action).
		Msg("subscription changed")
	if a.emitter == nil {
		return
	}
	a.emitter.Emit(ctx, events.TypeSubscriptionChanged, events.SubscriptionChangedPayload{
		Plan:         s.Plan,
		BillingCycle: string(s.BillingCycle),
		Action:       action,
		At:           a.clock.Now(),
	})
}

// PaymentMethods lists the stored cards.
func (a *App) PaymentMethods(ctx context.Context) []models.PaymentMethod {
	return a.repo.Subscription(ctx).PaymentMethods
}

// AddPaymentMethod validates and stores a card. The first card becomes the default.
func (a *App) AddPaymentMethod(ctx context.Context, req CardRequest) (models.PaymentMethod, error) {
	card, err := validateCard(req, a.clock.Now())
	if err != nil {
		return models.PaymentMethod{}, err
	}
	card.ID = uuid.New().String()
	_, err = a.repo.UpdateSubscription(ctx, func(s *models.SubscriptionState) error {
		card.IsDefault = len(s.PaymentMethods) == 0
		s.PaymentMethods = append(s.PaymentMethods, card)
		return nil
	})
	if err != nil {
		return models.PaymentMethod{}, fmt.Errorf("failed to add payment method: %w", err)
	}
	log.Info().Str("type", card.Type).Str("last4", card.Last4).Msg("payment method added")
	return card, nil
}

func indexOf(methods []models.PaymentMethod, id string) int {
	for i, m := range methods {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// SetDefaultPaymentMethod makes id the card charged on renewal.
func (a *App) SetDefaultPaymentMethod(ctx context.Context, id string) ([]models.PaymentMethod, error) {
	s, err := a.repo.UpdateSubscription(ctx, func(s *models.SubscriptionState) error {
		i := indexOf(s.PaymentMethods, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrPaymentMethodNotFound, id)
		}
		for j := range s.PaymentMethods {
			s.PaymentMethods[j].IsDefault = j == i
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.PaymentMethods, nil
}

// RemovePaymentMethod deletes a card. The last card cannot be removed while a
// paid plan is set to renew; removing the default promotes the first remaining card.
func (a *App) RemovePaymentMethod(ctx context.Context, id string) error {
	_, err := a.repo.UpdateSubscription(ctx, func(s *models.SubscriptionState) error {
		i := indexOf(s.PaymentMethods, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrPaymentMethodNotFound, id)
		}
		if len(s.PaymentMethods) == 1 && s.Plan != models.FreePlanID && s.CancelledAt == nil {
			return ErrPaymentMethodInUse
		}
		wasDefault := s.PaymentMethods[i].IsDefault
		s.PaymentMethods = append(s.PaymentMethods[:i], s.PaymentMethods[i+1:]...)
		if wasDefault && len(s.PaymentMethods) > 0 {
			s.PaymentMethods[0].IsDefault = true
		}
		return nil
	})
	return err
}
