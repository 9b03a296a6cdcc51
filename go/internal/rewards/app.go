package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/progress"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/telemetry"
)

var (
	ErrRewardNotFound     = errors.New("reward not found")
	ErrRewardUnavailable  = errors.New("reward is not available")
	ErrAlreadyRedeemed    = errors.New("reward already redeemed")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrUnknownCategory    = errors.New("unknown category")
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

// CelebrationInterval is how long the celebration waits before showing again.
const CelebrationInterval = 24 * time.Hour

// Notifier defines what the app needs to raise notifications
type Notifier interface {
	Notify(ctx context.Context, category models.NotificationCategory, title, body string) (models.NotificationEntry, error)
}

// Emitter defines what the app needs to publish domain events
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload any)
}

// App handles rewards, badges and achievements
type App struct {
	repo     *state.Repository
	catalog  CatalogProvider
	notifier Notifier
	emitter  Emitter
	metrics  telemetry.Collector
	clock    clockwork.Clock
}

// NewApp creates a new rewards App. notifier, emitter and metrics may be nil.
func NewApp(repo *state.Repository, catalog CatalogProvider, notifier Notifier, emitter Emitter, metrics telemetry.Collector, clock clockwork.Clock) *App {
	if catalog == nil {
		catalog = StaticCatalog{}
	}
	if metrics == nil {
		metrics = telemetry.NoOp{}
	}
	return &App{
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		emitter:  emitter,
		metrics:  metrics,
		clock:    clock,
	}
}

// CatalogView splits the catalog into rewards that can still be redeemed and ones already redeemed.
type CatalogView struct {
	Points    int             `json:"points"`
	Available []models.Reward `json:"available"`
	Redeemed  []models.Reward `json:"redeemed"`
}

func validRewardCategory(c string) bool {
	switch models.RewardCategory(c) {
	case models.RewardCategoryThemes, models.RewardCategoryFeatures,
		models.RewardCategoryCustomization, models.RewardCategoryPremium:
		return true
	}
	return c == "" || c == CategoryAll
}

// Catalog returns the rewards in category ("all" or "" for every category).
func (a *App) Catalog(ctx context.Context, category string) (CatalogView, error) {
	if !validRewardCategory(category) {
		return CatalogView{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	st := a.repo.RewardsState(ctx)
	view := CatalogView{
		Points:    a.repo.Progress(ctx).TotalPoints,
		Available: []models.Reward{},
		Redeemed:  []models.Reward{},
	}
	for _, r := range a.catalog.Rewards() {
		if category != "" && category != CategoryAll && string(r.Category) != category {
			continue
		}
		r = withRedemption(r, st)
		if r.Redeemed {
			view.Redeemed = append(view.Redeemed, r)
		} else {
			view.Available = append(view.Available, r)
		}
	}
	return view, nil
}

func withRedemption(r models.Reward, st models.RewardsState) models.Reward {
	if !st.IsRedeemed(r.ID) {
		return r
	}
	r.Redeemed = true
	for _, red := range st.Redemptions {
		if red.RewardID == r.ID {
			at := red.RedeemedAt
			r.RedeemedDate = &at
		}
	}
	return r
}

func (a *App) reward(id int) (models.Reward, error) {
	for _, r := range a.catalog.Rewards() {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Reward{}, fmt.Errorf("%w: %d", ErrRewardNotFound, id)
}

// RedeemResult is the outcome of a successful redemption
type RedeemResult struct {
	Reward          models.Reward `json:"reward"`
	RemainingPoints int           `json:"remaining_points"`
	Message         string        `json:"message"`
}

// Redeem spends points on reward id. The balance and the redeemed list change
// together or not at all.
func (a *App) Redeem(ctx context.Context, id int) (RedeemResult, error) {
	reward, err := a.reward(id)
	if err != nil {
		return RedeemResult{}, err
	}
	if !reward.Available {
		return RedeemResult{}, fmt.Errorf("%w: %s", ErrRewardUnavailable, reward.Name)
	}

	now := a.clock.Now()
	var remaining int
	err = a.repo.Atomic(func() error {
		st := a.repo.RewardsState(ctx)
		if st.IsRedeemed(id) {
			return fmt.Errorf("%w: %s", ErrAlreadyRedeemed, reward.Name)
		}
		p := a.repo.Progress(ctx)
		if !progress.SpendPoints(&p, reward.Cost) {
			return fmt.Errorf("%w: %s costs %d, balance is %d", ErrInsufficientPoints, reward.Name, reward.Cost, p.TotalPoints)
		}

		st.RedeemedRewards = append(st.RedeemedRewards, id)
		st.Redemptions = append(st.Redemptions, models.Redemption{RewardID: id, Cost: reward.Cost, RedeemedAt: now})
		if err := a.repo.SaveRewardsState(ctx, st); err != nil {
			return err
		}
		if err := a.repo.SaveProgress(ctx, p); err != nil {
			// keep the two records consistent
			st.RedeemedRewards = st.RedeemedRewards[:len(st.RedeemedRewards)-1]
			st.Redemptions = st.Redemptions[:len(st.Redemptions)-1]
			if rbErr := a.repo.SaveRewardsState(ctx, st); rbErr != nil {
				return errors.Join(err, rbErr)
			}
			return err
		}
		remaining = p.TotalPoints
		return nil
	})
	if err != nil {
		return RedeemResult{}, err
	}

	a.metrics.RecordRewardRedeemed(id, reward.Cost)
	if a.emitter != nil {
		a.emitter.Emit(ctx, events.TypeRewardRedeemed, events.RewardRedeemedPayload{
			RewardID:        id,
			Name:            reward.Name,
			Cost:            reward.Cost,
			RemainingPoints: remaining,
			RedeemedAt:      now,
		})
	}
	log.Info().Int("reward_id", id).Str("reward", reward.Name).Int("cost", reward.Cost).Int("remaining", remaining).Msg("reward redeemed")

	reward.Redeemed = true
	reward.RedeemedDate = &now
	return RedeemResult{
		Reward:          reward,
		RemainingPoints: remaining,
		Message:         fmt.Sprintf("Successfully redeemed %s! Check your settings to activate it.", reward.Name),
	}, nil
}

func (a *App) metricsFor(ctx context.Context, p models.Progress) Metrics {
	history := a.repo.SessionHistory(ctx)
	return Metrics{
		TotalSessions:       p.TotalSessions,
		PomodoroSessions:    p.ModeSessions[string(models.FocusModePomodoro)],
		BestStreak:          p.BestStreak,
		TotalFocusMinutes:   p.TotalFocusTime,
		LongestSession:      p.LongestSession,
		BlockedDistractions: a.repo.DistractionTracking(ctx).BlockedCount,
		WeeklyGoalsMet:      weeklyGoalsMet(history, p.WeeklyGoal),
		MonthFocusMinutes:   monthMinutes(history, a.clock.Now()),
	}
}

func validBadgeCategory(c string) bool {
	switch models.BadgeCategory(c) {
	case models.BadgeCategoryMilestone, models.BadgeCategoryStreak,
		models.BadgeCategoryTime, models.BadgeCategoryFocus:
		return true
	}
	return c == "" || c == CategoryAll
}

// Badges evaluates every badge in category against the current progress.
func (a *App) Badges(ctx context.Context, category string) ([]models.Badge, error) {
	if !validBadgeCategory(category) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	m := a.metricsFor(ctx, a.repo.Progress(ctx))
	badges := []models.Badge{}
	for _, rule := range a.catalog.Badges() {
		if category != "" && category != CategoryAll && string(rule.Badge.Category) != category {
			continue
		}
		badges = append(badges, rule.Evaluate(m))
	}
	return badges, nil
}

// CheckAchievements records every badge earned since the last check in the
// progress record and the achievements feed, and notifies about each.
func (a *App) CheckAchievements(ctx context.Context) ([]models.Achievement, error) {
	now := a.clock.Now()
	earned := []models.Achievement{}
	err := a.repo.Atomic(func() error {
		p := a.repo.Progress(ctx)
		m := a.metricsFor(ctx, p)

		known := make(map[string]bool, len(p.Achievements))
		for _, id := range p.Achievements {
			known[id] = true
		}
		for _, rule := range a.catalog.Badges() {
			badge := rule.Evaluate(m)
			key := badgeKey(badge)
			if !badge.Earned || known[key] {
				continue
			}
			p.Achievements = append(p.Achievements, key)
			earned = append(earned, models.Achievement{
				Title:       badge.Name + " Badge Earned",
				Description: badge.Description,
				Type:        "badge",
				EarnedAt:    now,
			})
		}
		if len(earned) == 0 {
			return nil
		}

		feed := append(append([]models.Achievement(nil), earned...), a.repo.Achievements(ctx)...)
		if err := a.repo.SaveAchievements(ctx, feed); err != nil {
			return err
		}
		return a.repo.SaveProgress(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check achievements: %w", err)
	}

	for _, ach := range earned {
		log.Info().Str("achievement", ach.Title).Msg("achievement earned")
		if a.notifier != nil {
			if _, err := a.notifier.Notify(ctx, models.NotificationAchievementNotifications, ach.Title, ach.Description); err != nil {
				log.Warn().Err(err).Msg("failed to send achievement notification")
			}
		}
	}
	return earned, nil
}

func badgeKey(b models.Badge) string {
	return fmt.Sprintf("badge:%d", b.ID)
}

// RecentAchievements returns the newest achievements first, at most limit (all when limit <= 0).
func (a *App) RecentAchievements(ctx context.Context, limit int) []models.Achievement {
	feed := a.repo.Achievements(ctx)
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

// Celebration is the outcome of the daily celebration check
type Celebration struct {
	Show         bool                 `json:"show"`
	Achievements []models.Achievement `json:"achievements"`
}

// CheckCelebration reports whether the celebration should be shown. It shows at most
// once per CelebrationInterval and only when there is something to celebrate; the
// check itself is recorded either way.
func (a *App) CheckCelebration(ctx context.Context) (Celebration, error) {
	now := a.clock.Now()
	last := a.repo.LastAchievementCheck(ctx)
	if last != nil && now.Sub(*last) <= CelebrationInterval {
		return Celebration{Achievements: []models.Achievement{}}, nil
	}
	if err := a.repo.SaveLastAchievementCheck(ctx, now); err != nil {
		return Celebration{}, fmt.Errorf("failed to save achievement check: %w", err)
	}
	recent := a.RecentAchievements(ctx, 4)
	return Celebration{Show: len(recent) > 0, Achievements: recent}, nil
}

// Earning is one entry of the recent earnings list
type Earning struct {
	Activity string               `json:"activity"`
	Points   int                  `json:"points"`
	Mode     models.FocusModeType `json:"mode"`
	At       time.Time            `json:"at"`
}

// Dashboard is the points overview
type Dashboard struct {
	CurrentPoints   int       `json:"current_points"`
	TotalEarned     int       `json:"total_earned"`
	CurrentStreak   int       `json:"current_streak"`
	BestStreak      int       `json:"best_streak"`
	Level           int       `json:"level"`
	NextLevelPoints int       `json:"next_level_points"`
	LevelProgress   float64   `json:"level_progress"`
	RecentEarnings  []Earning `json:"recent_earnings"`
}

// Dashboard returns the points overview with the four latest earnings.
func (a *App) Dashboard(ctx context.Context) Dashboard {
	p := a.repo.Progress(ctx)
	earnings := []Earning{}
	for _, s := range a.repo.SessionHistory(ctx) {
		if len(earnings) == 4 {
			break
		}
		earnings = append(earnings, Earning{
			Activity: fmt.Sprintf("Completed %d-min %s", s.Duration, s.Name),
			Points:   s.Points,
			Mode:     s.Mode,
			At:       s.CompletedAt,
		})
	}
	return Dashboard{
		CurrentPoints:   p.TotalPoints,
		TotalEarned:     p.TotalEarned,
		CurrentStreak:   p.CurrentStreak,
		BestStreak:      p.BestStreak,
		Level:           p.Level,
		NextLevelPoints: p.NextLevelPoints,
		LevelProgress:   progress.LevelProgress(p.TotalPoints, p.NextLevelPoints),
		RecentEarnings:  earnings,
	}
}

// Stats is the long-term progress summary
type Stats struct {
	TotalFocusTime       int     `json:"total_focus_time"`
	CompletedSessions    int     `json:"completed_sessions"`
	AverageSessionLength int     `json:"average_session_length"`
	LongestStreak        int     `json:"longest_streak"`
	CurrentLevel         int     `json:"current_level"`
	NextLevelProgress    float64 `json:"next_level_progress"`
	WeeklyGoal           int     `json:"weekly_goal"`
	WeeklyProgress       int     `json:"weekly_progress"`
}

// Stats summarises long-term progress. Weekly progress counts this calendar week's minutes.
func (a *App) Stats(ctx context.Context) Stats {
	p := a.repo.Progress(ctx)
	now := a.clock.Now()
	y, w := now.ISOWeek()
	week := 0
	for _, s := range a.repo.SessionHistory(ctx) {
		if sy, sw := s.CompletedAt.In(now.Location()).ISOWeek(); sy == y && sw == w {
			week += s.Duration
		}
	}
	return Stats{
		TotalFocusTime:       p.TotalFocusTime,
		CompletedSessions:    p.TotalSessions,
		AverageSessionLength: progress.AverageSession(p.TotalFocusTime, p.TotalSessions),
		LongestStreak:        p.BestStreak,
		CurrentLevel:         p.Level,
		NextLevelProgress:    progress.LevelProgress(p.TotalPoints, p.NextLevelPoints),
		WeeklyGoal:           p.WeeklyGoal,
		WeeklyProgress:       week,
	}
}
