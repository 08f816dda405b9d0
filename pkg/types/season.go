package types

// Season is a recurring competition period. Name, club-season flag, game
// type, gender, age group, and league form the composite uniqueness key.
// TeamPlacements records final standings keyed by team ID.
type Season struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ClubSeason     bool           `json:"clubSeason,omitempty"`
	GameType       string         `json:"gameType,omitempty"`
	Gender         string         `json:"gender,omitempty"`
	AgeGroup       string         `json:"ageGroup,omitempty"`
	LeagueID       string         `json:"leagueId,omitempty"`
	StartDate      string         `json:"startDate,omitempty"`
	EndDate        string         `json:"endDate,omitempty"`
	TeamPlacements map[string]int `json:"teamPlacements,omitempty"`
}

// TournamentSeries is a bracket or pool within a tournament, independently
// identified so teams and games can bind to it.
type TournamentSeries struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tournament is a bounded competition. Name, club-season flag, game type,
// gender, and age group form the composite uniqueness key.
type Tournament struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	ClubSeason      bool               `json:"clubSeason,omitempty"`
	GameType        string             `json:"gameType,omitempty"`
	Gender          string             `json:"gender,omitempty"`
	AgeGroup        string             `json:"ageGroup,omitempty"`
	LeagueID        string             `json:"leagueId,omitempty"`
	Series          []TournamentSeries `json:"series,omitempty"`
	AwardedPlayerID string             `json:"awardedPlayerId,omitempty"`
	TeamPlacements  map[string]int     `json:"teamPlacements,omitempty"`
}
