package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/kvstore"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/notifications"
	"github.com/mcdev12/nexora/go/internal/state"
)

var now = time.Date(2024, 12, 26, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx      context.Context
	clock    *clockwork.FakeClock
	repo     *state.Repository
	notifier *notifications.App
	app      *App
}

func newTestEnv(t *testing.T, catalog CatalogProvider) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	repo := state.NewRepository(kvstore.NewMemory(), nil, state.Options{})
	notifier := notifications.NewApp(repo, clock)
	return &testEnv{
		ctx:      context.Background(),
		clock:    clock,
		repo:     repo,
		notifier: notifier,
		app:      NewApp(repo, catalog, notifier, nil, nil, clock),
	}
}

func (e *testEnv) setPoints(t *testing.T, points int) {
	t.Helper()
	_, err := e.repo.UpdateProgress(e.ctx, func(p *models.Progress) error {
		p.TotalPoints = points
		return nil
	})
	require.NoError(t, err)
}

func TestRedeem(t *testing.T) {
	env := newTestEnv(t, nil)
	env.setPoints(t, 2450)

	res, err := env.app.Redeem(env.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1950, res.RemainingPoints)
	assert.True(t, res.Reward.Redeemed)
	assert.Equal(t, "Successfully redeemed Dark Theme! Check your settings to activate it.", res.Message)

	assert.Equal(t, 1950, env.repo.Progress(env.ctx).TotalPoints)
	st := env.repo.RewardsState(env.ctx)
	assert.Equal(t, []int{1}, st.RedeemedRewards)
	require.Len(t, st.Redemptions, 1)
	assert.Equal(t, 500, st.Redemptions[0].Cost)
	assert.True(t, st.Redemptions[0].RedeemedAt.Equal(now))

	_, err = env.app.Redeem(env.ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	assert.Equal(t, 1950, env.repo.Progress(env.ctx).TotalPoints)
}

func TestRedeemInsufficientPointsChangesNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	env.setPoints(t, 100)

	_, err := env.app.Redeem(env.ctx, 6)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 100, env.repo.Progress(env.ctx).TotalPoints)
	assert.Empty(t, env.repo.RewardsState(env.ctx).RedeemedRewards)

	// exactly enough is fine
	env.setPoints(t, 300)
	res, err := env.app.Redeem(env.ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, res.RemainingPoints)
}

func TestRedeemUnknownAndUnavailable(t *testing.T) {
	env := newTestEnv(t, limitedCatalog{})
	env.setPoints(t, 5000)

	_, err := env.app.Redeem(env.ctx, 99)
	assert.ErrorIs(t, err, ErrRewardNotFound)

	_, err = env.app.Redeem(env.ctx, 1)
	assert.ErrorIs(t, err, ErrRewardUnavailable)
	assert.Equal(t, 5000, env.repo.Progress(env.ctx).TotalPoints)
}

type limitedCatalog struct{ StaticCatalog }

func (limitedCatalog) Rewards() []models.Reward {
	return []models.Reward{{ID: 1, Name: "Retired", Cost: 10, Category: models.RewardCategoryThemes}}
}

func TestCatalogFiltersAndSplits(t *testing.T) {
	env := newTestEnv(t, nil)
	env.setPoints(t, 1000)

	view, err := env.app.Catalog(env.ctx, CategoryAll)
	require.NoError(t, err)
	assert.Len(t, view.Available, 10)
	assert.Empty(t, view.Redeemed)
	assert.Equal(t, 1000, view.Points)

	_, err = env.app.Redeem(env.ctx, 2)
	require.NoError(t, err)

	view, err = env.app.Catalog(env.ctx, "themes")
	require.NoError(t, err)
	assert.Len(t, view.Available, 2)
	require.Len(t, view.Redeemed, 1)
	assert.Equal(t, "Ocean Theme", view.Redeemed[0].Name)
	require.NotNil(t, view.Redeemed[0].RedeemedDate)
	assert.Equal(t, 250, view.Points)

	view, err = env.app.Catalog(env.ctx, "")
	require.NoError(t, err)
	assert.Len(t, view.Available, 9)

	_, err = env.app.Catalog(env.ctx, "snacks")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func seedProgress(t *testing.T, env *testEnv) {
	t.Helper()
	_, err := env.repo.UpdateProgress(env.ctx, func(p *models.Progress) error {
		p.TotalSessions = 3
		p.BestStreak = 7
		p.CurrentStreak = 7
		p.TotalFocusTime = 600
		p.LongestSession = 45
		p.ModeSessions = map[string]int{"pomodoro": 5}
		return nil
	})
	require.NoError(t, err)
}

func TestBadges(t *testing.T) {
	env := newTestEnv(t, nil)
	seedProgress(t, env)

	badges, err := env.app.Badges(env.ctx, CategoryAll)
	require.NoError(t, err)
	require.Len(t, badges, 10)

	byName := map[string]models.Badge{}
	for _, b := range badges {
		byName[b.Name] = b
	}
	assert.True(t, byName["First Focus"].Earned)
	assert.True(t, byName["Focus Streak"].Earned)
	assert.True(t, byName["Time Master"].Earned)
	assert.False(t, byName["Deep Work"].Earned)
	assert.Equal(t, 50, byName["Deep Work"].Progress)
	assert.Equal(t, 23, byName["Consistency King"].Progress)
	assert.Equal(t, 10, byName["Pomodoro Pro"].Progress)
	assert.Equal(t, 1, byName["Focus Legend"].Progress)

	streak, err := env.app.Badges(env.ctx, "streak")
	require.NoError(t, err)
	assert.Len(t, streak, 2)

	_, err = env.app.Badges(env.ctx, "speed")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCheckAchievementsOnlyOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	seedProgress(t, env)

	earned, err := env.app.CheckAchievements(env.ctx)
	require.NoError(t, err)
	require.Len(t, earned, 3)
	assert.Equal(t, "First Focus Badge Earned", earned[0].Title)

	again, err := env.app.CheckAchievements(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	assert.Len(t, env.app.RecentAchievements(env.ctx, 0), 3)
	assert.Len(t, env.app.RecentAchievements(env.ctx, 2), 2)
	assert.ElementsMatch(t, []string{"badge:1", "badge:2", "badge:3"}, env.repo.Progress(env.ctx).Achievements)
	assert.Len(t, env.notifier.History(env.ctx, models.NotificationAchievementNotifications), 3)
}

func TestCheckCelebration(t *testing.T) {
	env := newTestEnv(t, nil)

	c, err := env.app.CheckCelebration(env.ctx)
	require.NoError(t, err)
	assert.False(t, c.Show, "nothing to celebrate yet")
	require.NotNil(t, env.repo.LastAchievementCheck(env.ctx))

	seedProgress(t, env)
	_, err = env.app.CheckAchievements(env.ctx)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	c, err = env.app.CheckCelebration(env.ctx)
	require.NoError(t, err)
	assert.False(t, c.Show, "checked within the last day")

	env.clock.Advance(24 * time.Hour)
	c, err = env.app.CheckCelebration(env.ctx)
	require.NoError(t, err)
	assert.True(t, c.Show)
	assert.Len(t, c.Achievements, 3)
}

func TestDashboardAndStats(t *testing.T) {
	env := newTestEnv(t, nil)
	seedProgress(t, env)
	env.setPoints(t, 500)
	require.NoError(t, env.repo.SaveSessionHistory(env.ctx, []models.SessionRecord{
		{ID: "1", Mode: models.FocusModePomodoro, Name: "Pomodoro", Duration: 25, Points: 5, CompletedAt: now.Add(-time.Hour)},
		{ID: "2", Mode: models.FocusModeDeepWork, Name: "Deep Work", Duration: 75, Points: 15, CompletedAt: now.AddDate(0, 0, -1)},
		{ID: "3", Mode: models.FocusModePomodoro, Name: "Pomodoro", Duration: 25, Points: 5, CompletedAt: now.AddDate(0, 0, -14)},
	}))

	d := env.app.Dashboard(env.ctx)
	assert.Equal(t, 500, d.CurrentPoints)
	assert.Equal(t, 7, d.BestStreak)
	assert.Equal(t, 50.0, d.LevelProgress)
	require.Len(t, d.RecentEarnings, 3)
	assert.Equal(t, "Completed 25-min Pomodoro", d.RecentEarnings[0].Activity)

	s := env.app.Stats(env.ctx)
	assert.Equal(t, 600, s.TotalFocusTime)
	assert.Equal(t, 200, s.AverageSessionLength)
	assert.Equal(t, 100, s.WeeklyProgress)
}

func TestWeeklyGoalsMet(t *testing.T) {
	week := func(w int) time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, 7*w) }
	history := []models.SessionRecord{
		{Duration: 300, CompletedAt: week(0)},
		{Duration: 300, CompletedAt: week(0).Add(time.Hour)},
		{Duration: 599, CompletedAt: week(1)},
		{Duration: 600, CompletedAt: week(2)},
	}
	assert.Equal(t, 2, weeklyGoalsMet(history, 600))
	assert.Equal(t, 0, weeklyGoalsMet(history, 0))
	assert.Equal(t, 1799, monthMinutes(history, week(0)))
}
