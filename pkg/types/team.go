package types

// Team groups players for scheduling and statistics. A team may be bound to
// a season, a tournament, or a specific tournament series; those bindings
// plus name and game type form the composite uniqueness key.
type Team struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Color             string `json:"color,omitempty"`
	BoundSeasonID     string `json:"boundSeasonId,omitempty"`
	BoundTournamentID string `json:"boundTournamentId,omitempty"`
	BoundSeriesID     string `json:"boundSeriesId,omitempty"`
	GameType          string `json:"gameType,omitempty"`
}

// RosterEntry is a single (team, player) membership record.
type RosterEntry struct {
	PlayerID     string `json:"playerId"`
	JerseyNumber string `json:"jerseyNumber,omitempty"`
}

// TeamRoster is the membership collection for one team, keyed by TeamID in
// the roster map.
type TeamRoster struct {
	TeamID  string        `json:"teamId"`
	Entries []RosterEntry `json:"entries"`
}
