package models

// Syncable table names.
const (
	TableUserPreferences = "user_preferences"
	TableAppSettings     = "app_settings"
	TableExercises       = "exercises"
	TableWorkouts        = "workouts"
	TableWorkoutSessions = "workout_sessions"
	TableActivityLogs    = "activity_logs"
)

// DefaultTableOrder is the fixed order in which a sync pass harvests and
// applies tables: preferences, then settings, then content, then logs.
var DefaultTableOrder = []string{
	TableUserPreferences,
	TableAppSettings,
	TableExercises,
	TableWorkouts,
	TableWorkoutSessions,
	TableActivityLogs,
}
