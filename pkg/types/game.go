package types

// Game event kinds.
const (
	EventGoal         = "goal"
	EventOpponentGoal = "opponentGoal"
	EventSubstitution = "substitution"
	EventPeriodEnd    = "periodEnd"
	EventFairPlayCard = "fairPlayCard"
)

// GamePlayer is a player's in-game presence: identity plus field placement.
// The ID references a Player in the same partition.
type GamePlayer struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	RelX     float64 `json:"relX,omitempty"`
	RelY     float64 `json:"relY,omitempty"`
	IsGoalie bool    `json:"isGoalie,omitempty"`
}

// GameEvent is one timestamped occurrence within a game. ScorerID and
// AssisterID reference players; EntityID references whichever entity the
// event kind concerns (e.g. the carded player for fair-play cards).
type GameEvent struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	TimeSecs   int    `json:"timeSecs"`
	ScorerID   string `json:"scorerId,omitempty"`
	AssisterID string `json:"assisterId,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
}

// Assessment is a post-game per-player evaluation, keyed by player ID in the
// game's assessment map.
type Assessment struct {
	Overall int    `json:"overall"`
	Notes   string `json:"notes,omitempty"`
}

// Game is the central aggregate. Team, season, tournament, and series
// references are all optional; player and personnel references are held by
// identifier so export/import can remap them as a unit.
type Game struct {
	ID                string                `json:"id"`
	TeamID            string                `json:"teamId,omitempty"`
	SeasonID          string                `json:"seasonId,omitempty"`
	TournamentID      string                `json:"tournamentId,omitempty"`
	SeriesID          string                `json:"seriesId,omitempty"`
	OpponentName      string                `json:"opponentName,omitempty"`
	Date              string                `json:"date,omitempty"`
	HomeOrAway        string                `json:"homeOrAway,omitempty"`
	HomeScore         int                   `json:"homeScore"`
	AwayScore         int                   `json:"awayScore"`
	PlayersOnField    []GamePlayer          `json:"playersOnField,omitempty"`
	AvailablePlayers  []GamePlayer          `json:"availablePlayers,omitempty"`
	SelectedPlayerIDs []string              `json:"selectedPlayerIds,omitempty"`
	GameEvents        []GameEvent           `json:"gameEvents,omitempty"`
	PersonnelIDs      []string              `json:"personnelIds,omitempty"`
	Assessments       map[string]Assessment `json:"assessments,omitempty"`
}
