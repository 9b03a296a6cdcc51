package state

// Keys of the persisted records, before namespacing.
const (
	KeyAuthToken               = "auth_token"
	KeyAuthSession             = "auth_session"
	KeyUserPreferences         = "user_preferences"
	KeyRegisteredUsers         = "registered_users"
	KeyUserProgress            = "user_progress"
	KeySessionHistory          = "session_history"
	KeyCurrentSession          = "current_session"
	KeyFocusStats              = "focus_stats"
	KeyNotificationPreferences = "notification_preferences"
	KeyNotificationHistory     = "notification_history"
	KeyRedeemedRewards         = "redeemed_rewards"
	KeyAchievements            = "achievements"
	KeyDistractionTracking     = "distraction_tracking"
	KeySubscription            = "subscription"
	KeyLastActiveDate          = "last_active_date"
	KeyLastAchievementCheck    = "last_achievement_check"
)
