package state

import (
	"context"
	"time"

	"github.com/mcdev12/nexora/go/internal/models"
)

// Atomic runs fn while holding the repository lock so several records can be
// read and written as one step. fn must use the plain read and Save methods;
// calling an Update method inside fn deadlocks.
func (r *Repository) Atomic(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// AuthToken returns the stored auth token or "".
func (r *Repository) AuthToken(ctx context.Context) string {
	return load(ctx, r, KeyAuthToken, func() string { return "" })
}

func (r *Repository) SaveAuthToken(ctx context.Context, token string) error {
	return save(ctx, r, KeyAuthToken, token)
}

// AuthSession returns the stored session, or nil when there is none or it lacks an identity.
func (r *Repository) AuthSession(ctx context.Context) *models.AuthSession {
	s := load(ctx, r, KeyAuthSession, func() *models.AuthSession { return nil })
	if s == nil || s.Email == "" {
		return nil
	}
	return s
}

func (r *Repository) SaveAuthSession(ctx context.Context, s models.AuthSession) error {
	return save(ctx, r, KeyAuthSession, s)
}

func (r *Repository) UserPreferences(ctx context.Context) models.UserPreferences {
	return load(ctx, r, KeyUserPreferences, func() models.UserPreferences { return models.UserPreferences{} })
}

func (r *Repository) UpdateUserPreferences(ctx context.Context, fn func(*models.UserPreferences) error) (models.UserPreferences, error) {
	return update(ctx, r, KeyUserPreferences, r.UserPreferences, fn)
}

func (r *Repository) RegisteredUsers(ctx context.Context) []models.RegisteredUser {
	users := load(ctx, r, KeyRegisteredUsers, func() []models.RegisteredUser { return nil })
	if users == nil {
		users = []models.RegisteredUser{}
	}
	return users
}

func (r *Repository) UpdateRegisteredUsers(ctx context.Context, fn func(*[]models.RegisteredUser) error) ([]models.RegisteredUser, error) {
	return update(ctx, r, KeyRegisteredUsers, r.RegisteredUsers, fn)
}

// Progress decodes the user progress record. Zero goals, levels and thresholds
// are replaced by defaults so derived percentages never divide by zero.
func (r *Repository) Progress(ctx context.Context) models.Progress {
	p := load(ctx, r, KeyUserProgress, r.defaultProgress)
	def := r.defaultProgress()
	if p.DailyGoal <= 0 {
		p.DailyGoal = def.DailyGoal
	}
	if p.WeeklyGoal <= 0 {
		p.WeeklyGoal = def.WeeklyGoal
	}
	if p.Level < 1 {
		p.Level = 1
	}
	if p.NextLevelPoints <= 0 {
		p.NextLevelPoints = def.NextLevelPoints
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	if p.BestStreak < p.CurrentStreak {
		p.BestStreak = p.CurrentStreak
	}
	return p
}

func (r *Repository) defaultProgress() models.Progress {
	p := models.DefaultProgress()
	if r.opts.DailyGoal > 0 {
		p.DailyGoal = r.opts.DailyGoal
	}
	if r.opts.WeeklyGoal > 0 {
		p.WeeklyGoal = r.opts.WeeklyGoal
	}
	return p
}

func (r *Repository) SaveProgress(ctx context.Context, p models.Progress) error {
	return save(ctx, r, KeyUserProgress, p)
}

func (r *Repository) UpdateProgress(ctx context.Context, fn func(*models.Progress) error) (models.Progress, error) {
	return update(ctx, r, KeyUserProgress, r.Progress, fn)
}

// SessionHistory returns completed sessions, most recent first, capped at the history limit.
func (r *Repository) SessionHistory(ctx context.Context) []models.SessionRecord {
	h := load(ctx, r, KeySessionHistory, func() []models.SessionRecord { return nil })
	if h == nil {
		return []models.SessionRecord{}
	}
	if len(h) > r.opts.HistoryLimit {
		h = h[:r.opts.HistoryLimit]
	}
	return h
}

func (r *Repository) SaveSessionHistory(ctx context.Context, h []models.SessionRecord) error {
	if len(h) > r.opts.HistoryLimit {
		h = h[:r.opts.HistoryLimit]
	}
	return save(ctx, r, KeySessionHistory, h)
}

// PrependSession stores rec as the newest history entry, dropping the oldest past the limit.
func (r *Repository) PrependSession(ctx context.Context, rec models.SessionRecord) ([]models.SessionRecord, error) {
	return update(ctx, r, KeySessionHistory, r.SessionHistory, func(h *[]models.SessionRecord) error {
		next := make([]models.SessionRecord, 0, len(*h)+1)
		next = append(next, rec)
		next = append(next, *h...)
		if len(next) > r.opts.HistoryLimit {
			next = next[:r.opts.HistoryLimit]
		}
		*h = next
		return nil
	})
}

// CurrentSession returns the in-progress marker, or nil.
func (r *Repository) CurrentSession(ctx context.Context) *models.CurrentSession {
	s := load(ctx, r, KeyCurrentSession, func() *models.CurrentSession { return nil })
	if s == nil || s.Mode == "" {
		return nil
	}
	return s
}

func (r *Repository) SaveCurrentSession(ctx context.Context, s models.CurrentSession) error {
	return save(ctx, r, KeyCurrentSession, s)
}

func (r *Repository) ClearCurrentSession(ctx context.Context) error {
	return r.Clear(ctx, KeyCurrentSession)
}

func (r *Repository) FocusStats(ctx context.Context) models.FocusStats {
	s := load(ctx, r, KeyFocusStats, r.defaultFocusStats)
	if s.WeeklyGoal <= 0 {
		s.WeeklyGoal = r.defaultFocusStats().WeeklyGoal
	}
	return s
}

func (r *Repository) defaultFocusStats() models.FocusStats {
	return models.FocusStats{WeeklyGoal: r.defaultProgress().WeeklyGoal}
}

func (r *Repository) UpdateFocusStats(ctx context.Context, fn func(*models.FocusStats) error) (models.FocusStats, error) {
	return update(ctx, r, KeyFocusStats, r.FocusStats, fn)
}

// NotificationPreferences decodes preferences. Critical alerts are always on and
// out-of-range sound settings are pulled back to defaults.
func (r *Repository) NotificationPreferences(ctx context.Context) models.NotificationPreferences {
	p := load(ctx, r, KeyNotificationPreferences, models.DefaultNotificationPreferences)
	def := models.DefaultNotificationPreferences()
	p.Toggles.CriticalAlerts = true
	if p.Sound.Volume < 0 || p.Sound.Volume > 100 {
		p.Sound.Volume = def.Sound.Volume
	}
	if p.Sound.SoundType == "" {
		p.Sound.SoundType = def.Sound.SoundType
	}
	if p.QuietHours.StartTime == "" {
		p.QuietHours.StartTime = def.QuietHours.StartTime
	}
	if p.QuietHours.EndTime == "" {
		p.QuietHours.EndTime = def.QuietHours.EndTime
	}
	return p
}

func (r *Repository) SaveNotificationPreferences(ctx context.Context, p models.NotificationPreferences) error {
	return save(ctx, r, KeyNotificationPreferences, p)
}

func (r *Repository) UpdateNotificationPreferences(ctx context.Context, fn func(*models.NotificationPreferences) error) (models.NotificationPreferences, error) {
	return update(ctx, r, KeyNotificationPreferences, r.NotificationPreferences, fn)
}

// NotificationHistory returns notifications newest first.
func (r *Repository) NotificationHistory(ctx context.Context) []models.NotificationEntry {
	h := load(ctx, r, KeyNotificationHistory, func() []models.NotificationEntry { return nil })
	if h == nil {
		return []models.NotificationEntry{}
	}
	return h
}

func (r *Repository) AppendNotification(ctx context.Context, n models.NotificationEntry) ([]models.NotificationEntry, error) {
	return update(ctx, r, KeyNotificationHistory, r.NotificationHistory, func(h *[]models.NotificationEntry) error {
		next := append([]models.NotificationEntry{n}, *h...)
		if len(next) > r.opts.NotificationHistoryLimit {
			next = next[:r.opts.NotificationHistoryLimit]
		}
		*h = next
		return nil
	})
}

func (r *Repository) RewardsState(ctx context.Context) models.RewardsState {
	s := load(ctx, r, KeyRedeemedRewards, func() models.RewardsState { return models.RewardsState{} })
	if s.RedeemedRewards == nil {
		s.RedeemedRewards = []int{}
	}
	if s.Redemptions == nil {
		s.Redemptions = []models.Redemption{}
	}
	return s
}

func (r *Repository) SaveRewardsState(ctx context.Context, s models.RewardsState) error {
	return save(ctx, r, KeyRedeemedRewards, s)
}

// AchievementFeedLimit caps the recent achievements feed.
const AchievementFeedLimit = 20

// Achievements returns the recent achievements feed, newest first.
func (r *Repository) Achievements(ctx context.Context) []models.Achievement {
	a := load(ctx, r, KeyAchievements, func() []models.Achievement { return nil })
	if a == nil {
		return []models.Achievement{}
	}
	return a
}

func (r *Repository) SaveAchievements(ctx context.Context, a []models.Achievement) error {
	if len(a) > AchievementFeedLimit {
		a = a[:AchievementFeedLimit]
	}
	return save(ctx, r, KeyAchievements, a)
}

func (r *Repository) DistractionTracking(ctx context.Context) models.DistractionTracking {
	d := load(ctx, r, KeyDistractionTracking, func() models.DistractionTracking { return models.DistractionTracking{} })
	if d.Recent == nil {
		d.Recent = []models.Distraction{}
	}
	return d
}

func (r *Repository) UpdateDistractionTracking(ctx context.Context, fn func(*models.DistractionTracking) error) (models.DistractionTracking, error) {
	return update(ctx, r, KeyDistractionTracking, r.DistractionTracking, fn)
}

func (r *Repository) Subscription(ctx context.Context) models.SubscriptionState {
	s := load(ctx, r, KeySubscription, models.DefaultSubscriptionState)
	if s.Plan == "" {
		s.Plan = models.FreePlanID
	}
	if s.BillingCycle == "" {
		s.BillingCycle = models.BillingMonthly
	}
	if s.PaymentMethods == nil {
		s.PaymentMethods = []models.PaymentMethod{}
	}
	if s.History == nil {
		s.History = []models.Transaction{}
	}
	return s
}

func (r *Repository) UpdateSubscription(ctx context.Context, fn func(*models.SubscriptionState) error) (models.SubscriptionState, error) {
	return update(ctx, r, KeySubscription, r.Subscription, fn)
}

// LastActiveDate is when the profile last completed focus, or nil.
func (r *Repository) LastActiveDate(ctx context.Context) *time.Time {
	return load(ctx, r, KeyLastActiveDate, func() *time.Time { return nil })
}

func (r *Repository) SaveLastActiveDate(ctx context.Context, t time.Time) error {
	return save(ctx, r, KeyLastActiveDate, t)
}

// LastAchievementCheck is when the daily celebration was last shown, or nil.
func (r *Repository) LastAchievementCheck(ctx context.Context) *time.Time {
	return load(ctx, r, KeyLastAchievementCheck, func() *time.Time { return nil })
}

func (r *Repository) SaveLastAchievementCheck(ctx context.Context, t time.Time) error {
	return save(ctx, r, KeyLastAchievementCheck, t)
}
