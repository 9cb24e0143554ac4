package fieldmap

import "github.com/MKhiriev/repcue-sync/models"

// DefaultTables maps the domain fields of the built-in tables whose local and
// wire names differ. Fields not listed here are passed through as is.
var DefaultTables = map[string][]Mapping{
	models.TableUserPreferences: {
		{LocalField: "weightUnit", WireField: "weight_unit"},
		{LocalField: "soundEnabled", WireField: "sound_enabled"},
		{LocalField: "hapticsEnabled", WireField: "haptics_enabled"},
		{LocalField: "restTimerSeconds", WireField: "rest_timer_seconds"},
	},
	models.TableAppSettings: {
		{LocalField: "darkMode", WireField: "dark_mode"},
		{LocalField: "autoSync", WireField: "auto_sync"},
		{LocalField: "lastSeenVersion", WireField: "last_seen_version"},
	},
	models.TableExercises: {
		{LocalField: "muscleGroup", WireField: "muscle_group"},
		{LocalField: "isFavorite", WireField: "is_favorite"},
		{LocalField: "defaultSets", WireField: "default_sets"},
		{LocalField: "defaultReps", WireField: "default_reps"},
	},
	models.TableWorkouts: {
		{LocalField: "exerciseIds", WireField: "exercise_ids"},
		{LocalField: "scheduledFor", WireField: "scheduled_for"},
	},
	models.TableWorkoutSessions: {
		{LocalField: "workoutId", WireField: "workout_id"},
		{LocalField: "startedAt", WireField: "started_at"},
		{LocalField: "completedAt", WireField: "completed_at"},
		{LocalField: "totalSets", WireField: "total_sets"},
	},
	models.TableActivityLogs: {
		{LocalField: "exerciseId", WireField: "exercise_id"},
		{LocalField: "sessionId", WireField: "session_id"},
		{LocalField: "setsCompleted", WireField: "sets_completed"},
		{LocalField: "loggedAt", WireField: "logged_at"},
	},
}
