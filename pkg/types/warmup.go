package types

// WarmupSection is one independently identified step of a warmup plan.
type WarmupSection struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// WarmupPlan is a per-principal singleton describing the pre-game routine.
type WarmupPlan struct {
	ID       string          `json:"id"`
	Sections []WarmupSection `json:"sections,omitempty"`
}

// Settings is a per-principal singleton. CurrentGameID references the game
// the application last had open.
type Settings struct {
	CurrentGameID string `json:"currentGameId,omitempty"`
	Language      string `json:"language,omitempty"`
}
