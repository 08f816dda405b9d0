package types

// Entity type tokens. These appear as the type component of every generated
// identifier and form a closed set: membership in this set is the sole
// signal used to tell a portable identifier from a namespaced one, so a new
// token must never collide with a plausible namespace prefix.
const (
	EntityPlayer     = "player"
	EntityTeam       = "team"
	EntitySeason     = "season"
	EntityTournament = "tournament"
	EntityPersonnel  = "personnel"
	EntityGame       = "game"
	EntityEvent      = "event"
	EntityAdjustment = "adjustment"
	EntityWarmup     = "warmup"
	EntitySection    = "section"
	EntitySeries     = "series"
)

// KnownEntityTypes is the set of recognized entity type tokens.
var KnownEntityTypes = map[string]bool{
	EntityPlayer:     true,
	EntityTeam:       true,
	EntitySeason:     true,
	EntityTournament: true,
	EntityPersonnel:  true,
	EntityGame:       true,
	EntityEvent:      true,
	EntityAdjustment: true,
	EntityWarmup:     true,
	EntitySection:    true,
	EntitySeries:     true,
}

// LeagueDefault is the predefined league identifier assigned to seasons and
// tournaments that are not bound to a specific league. It is a constant, not
// a generated identifier, and is therefore never remapped on export/import.
const LeagueDefault = "league_default"
