package types

// Player is an independent top-level entity: a person who can appear on
// rosters, in game lineups, and in game events.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Nickname     string `json:"nickname,omitempty"`
	JerseyNumber string `json:"jerseyNumber,omitempty"`
	Notes        string `json:"notes,omitempty"`
	IsGoalie     bool   `json:"isGoalie,omitempty"`
}

// Personnel is a non-player staff member (coach, manager, physio) that games
// reference by identifier.
type Personnel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// PlayerAdjustment is a manual correction to a player's accumulated
// statistics, scoped to an optional season, team, or tournament.
type PlayerAdjustment struct {
	ID           string `json:"id"`
	PlayerID     string `json:"playerId"`
	SeasonID     string `json:"seasonId,omitempty"`
	TeamID       string `json:"teamId,omitempty"`
	TournamentID string `json:"tournamentId,omitempty"`
	GamesDelta   int    `json:"gamesDelta,omitempty"`
	GoalsDelta   int    `json:"goalsDelta,omitempty"`
	AssistsDelta int    `json:"assistsDelta,omitempty"`
	Note         string `json:"note,omitempty"`
}
