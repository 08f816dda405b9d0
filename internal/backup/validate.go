package backup

import (
	"context"
	"fmt"

	"github.com/fieldside/rostervault/internal/store"
)

// Report is the outcome of a referential-integrity walk. Errors are
// integrity violations (a required reference points at nothing); warnings
// are advisory references that no longer resolve, which the application
// tolerates.
type Report struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *Report) errf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateReferences walks every cross-entity reference in the namespace
// behind r and confirms the referenced entity exists. Player membership in
// rosters, game lineups, and adjustments must resolve; bindings to seasons,
// tournaments, series, personnel, and the current-game setting are advisory
// and only produce warnings.
func ValidateReferences(ctx context.Context, r *store.Reader) (Report, error) {
	report := Report{}

	players, err := r.Players(ctx)
	if err != nil {
		return report, err
	}
	teams, err := r.Teams(ctx)
	if err != nil {
		return report, err
	}
	rosters, err := r.TeamRosters(ctx)
	if err != nil {
		return report, err
	}
	seasons, err := r.Seasons(ctx)
	if err != nil {
		return report, err
	}
	tournaments, err := r.Tournaments(ctx)
	if err != nil {
		return report, err
	}
	personnel, err := r.Personnel(ctx)
	if err != nil {
		return report, err
	}
	games, err := r.Games(ctx)
	if err != nil {
		return report, err
	}
	adjustments, err := r.PlayerAdjustments(ctx)
	if err != nil {
		return report, err
	}
	settings, err := r.Settings(ctx)
	if err != nil {
		return report, err
	}

	seriesIDs := map[string]bool{}
	for _, t := range tournaments {
		for _, s := range t.Series {
			seriesIDs[s.ID] = true
		}
	}

	for _, t := range teams {
		if t.BoundSeasonID != "" {
			if _, ok := seasons[t.BoundSeasonID]; !ok {
				report.warnf("team %s bound to missing season %s", t.ID, t.BoundSeasonID)
			}
		}
		if t.BoundTournamentID != "" {
			if _, ok := tournaments[t.BoundTournamentID]; !ok {
				report.warnf("team %s bound to missing tournament %s", t.ID, t.BoundTournamentID)
			}
		}
		if t.BoundSeriesID != "" && !seriesIDs[t.BoundSeriesID] {
			report.warnf("team %s bound to missing series %s", t.ID, t.BoundSeriesID)
		}
	}

	for teamID, roster := range rosters {
		if _, ok := teams[teamID]; !ok {
			report.errf("roster for missing team %s", teamID)
		}
		for _, e := range roster.Entries {
			if _, ok := players[e.PlayerID]; !ok {
				report.errf("roster of team %s lists missing player %s", teamID, e.PlayerID)
			}
		}
	}

	for _, s := range seasons {
		for teamID := range s.TeamPlacements {
			if _, ok := teams[teamID]; !ok {
				report.warnf("season %s placement for missing team %s", s.ID, teamID)
			}
		}
	}

	for _, t := range tournaments {
		if t.AwardedPlayerID != "" {
			if _, ok := players[t.AwardedPlayerID]; !ok {
				report.warnf("tournament %s award for missing player %s", t.ID, t.AwardedPlayerID)
			}
		}
		for teamID := range t.TeamPlacements {
			if _, ok := teams[teamID]; !ok {
				report.warnf("tournament %s placement for missing team %s", t.ID, teamID)
			}
		}
	}

	for _, g := range games {
		if g.TeamID != "" {
			if _, ok := teams[g.TeamID]; !ok {
				report.warnf("game %s references missing team %s", g.ID, g.TeamID)
			}
		}
		if g.SeasonID != "" {
			if _, ok := seasons[g.SeasonID]; !ok {
				report.warnf("game %s references missing season %s", g.ID, g.SeasonID)
			}
		}
		if g.TournamentID != "" {
			if _, ok := tournaments[g.TournamentID]; !ok {
				report.warnf("game %s references missing tournament %s", g.ID, g.TournamentID)
			}
		}
		if g.SeriesID != "" && !seriesIDs[g.SeriesID] {
			report.warnf("game %s references missing series %s", g.ID, g.SeriesID)
		}
		for _, p := range g.PlayersOnField {
			if _, ok := players[p.ID]; !ok {
				report.errf("game %s fields missing player %s", g.ID, p.ID)
			}
		}
		for _, p := range g.AvailablePlayers {
			if _, ok := players[p.ID]; !ok {
				report.errf("game %s lists missing available player %s", g.ID, p.ID)
			}
		}
		for _, id := range g.SelectedPlayerIDs {
			if _, ok := players[id]; !ok {
				report.errf("game %s selects missing player %s", g.ID, id)
			}
		}
		for _, id := range g.PersonnelIDs {
			if _, ok := personnel[id]; !ok {
				report.warnf("game %s references missing personnel %s", g.ID, id)
			}
		}
		for playerID := range g.Assessments {
			if _, ok := players[playerID]; !ok {
				report.errf("game %s assesses missing player %s", g.ID, playerID)
			}
		}
		for _, e := range g.GameEvents {
			if e.ScorerID != "" {
				if _, ok := players[e.ScorerID]; !ok {
					report.warnf("game %s event %s credits missing scorer %s", g.ID, e.ID, e.ScorerID)
				}
			}
			if e.AssisterID != "" {
				if _, ok := players[e.AssisterID]; !ok {
					report.warnf("game %s event %s credits missing assister %s", g.ID, e.ID, e.AssisterID)
				}
			}
		}
	}

	for _, a := range adjustments {
		if _, ok := players[a.PlayerID]; !ok {
			report.errf("adjustment %s for missing player %s", a.ID, a.PlayerID)
		}
		if a.SeasonID != "" {
			if _, ok := seasons[a.SeasonID]; !ok {
				report.warnf("adjustment %s scoped to missing season %s", a.ID, a.SeasonID)
			}
		}
		if a.TeamID != "" {
			if _, ok := teams[a.TeamID]; !ok {
				report.warnf("adjustment %s scoped to missing team %s", a.ID, a.TeamID)
			}
		}
		if a.TournamentID != "" {
			if _, ok := tournaments[a.TournamentID]; !ok {
				report.warnf("adjustment %s scoped to missing tournament %s", a.ID, a.TournamentID)
			}
		}
	}

	if settings.CurrentGameID != "" {
		if _, ok := games[settings.CurrentGameID]; !ok {
			report.warnf("settings reference missing current game %s", settings.CurrentGameID)
		}
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}
