package types

import "time"

// SnapshotFormatVersion is the current portable snapshot format. Import
// rejects snapshots stamped with a different version.
const SnapshotFormatVersion = 1

// Snapshot is a principal's full partition in portable form: every
// identifier and cross-reference field has its namespace prefix stripped so
// the file can be imported by any principal without collision.
type Snapshot struct {
	FormatVersion     int                   `json:"formatVersion"`
	ExportedAt        time.Time             `json:"exportedAt"`
	Players           []Player              `json:"players"`
	Teams             []Team                `json:"teams"`
	TeamRosters       map[string]TeamRoster `json:"teamRosters"`
	Seasons           []Season              `json:"seasons"`
	Tournaments       []Tournament          `json:"tournaments"`
	Personnel         []Personnel           `json:"personnel"`
	Games             []Game                `json:"games"`
	PlayerAdjustments []PlayerAdjustment    `json:"playerAdjustments"`
	WarmupPlan        *WarmupPlan           `json:"warmupPlan"`
	Settings          Settings              `json:"settings"`
}

// EntityCount returns the total number of entities in the snapshot, used
// for operator-facing messages and quota estimates.
func (s *Snapshot) EntityCount() int {
	n := len(s.Players) + len(s.Teams) + len(s.TeamRosters) + len(s.Seasons) +
		len(s.Tournaments) + len(s.Personnel) + len(s.Games) + len(s.PlayerAdjustments)
	if s.WarmupPlan != nil {
		n++
	}
	return n
}
