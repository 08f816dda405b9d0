package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/internal/sqlite"
	"github.com/fieldside/rostervault/pkg/types"
)

type captureEnqueuer struct {
	ops []types.SyncOperation
}

func (c *captureEnqueuer) Enqueue(_ context.Context, op types.SyncOperation) error {
	c.ops = append(c.ops, op)
	return nil
}

func (c *captureEnqueuer) last(t *testing.T) types.SyncOperation {
	t.Helper()
	if len(c.ops) == 0 {
		t.Fatal("no sync operations enqueued")
	}
	return c.ops[len(c.ops)-1]
}

func newTestStore(t *testing.T, principalID string) (*DataStore, *captureEnqueuer) {
	t.Helper()
	mgr := sqlite.NewManager(t.TempDir(), slog.Default())
	kv, err := mgr.Open(context.Background(), principalID)
	if err != nil {
		t.Fatalf("open partition: %v", err)
	}
	t.Cleanup(func() { mgr.CloseActive() })

	enq := &captureEnqueuer{}
	ds, err := New(principalID, kv, enq, slog.Default())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return ds, enq
}

func TestStorageKeysFollowScopeLayout(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	if _, err := ds.CreatePlayer(ctx, types.Player{Name: "Mia"}); err != nil {
		t.Fatalf("create player: %v", err)
	}

	// The partition key is exactly what the scope package derives for this
	// principal, so key derivation has a single implementation.
	key, err := scope.ScopeKey(keyPlayers, "coach@example.com")
	if err != nil {
		t.Fatalf("scope key: %v", err)
	}
	if _, err := ds.kv.Get(ctx, key); err != nil {
		t.Errorf("players collection not stored under %q: %v", key, err)
	}
}

func TestCreatePlayerGeneratesScopedID(t *testing.T) {
	ds, enq := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	p, err := ds.CreatePlayer(ctx, types.Player{Name: "Mia"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if !strings.HasPrefix(p.ID, ds.Prefix()+"_"+types.EntityPlayer+"_") {
		t.Errorf("player ID %q not scoped to principal", p.ID)
	}

	got, err := ds.GetPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.Name != "Mia" {
		t.Errorf("got name %q, want Mia", got.Name)
	}

	op := enq.last(t)
	if op.Operation != types.OpCreate || op.EntityType != types.EntityPlayer || op.EntityID != p.ID {
		t.Errorf("unexpected sync op %+v", op)
	}
}

func TestCreatePlayerRejectsEmptyName(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")

	_, err := ds.CreatePlayer(context.Background(), types.Player{})
	if !errors.Is(err, types.ErrInvalidName) {
		t.Fatalf("got %v, want ErrInvalidName", err)
	}
}

func TestUpdateMissingPlayer(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")

	_, err := ds.UpdatePlayer(context.Background(), types.Player{ID: "nope", Name: "X"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestTeamCompositeUniqueness(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	base := types.Team{Name: "Falcons", BoundSeasonID: "s1", GameType: "outdoor"}
	if _, err := ds.CreateTeam(ctx, base); err != nil {
		t.Fatalf("create team: %v", err)
	}

	// Identical composite key is rejected.
	if _, err := ds.CreateTeam(ctx, base); !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("duplicate: got %v, want ErrAlreadyExists", err)
	}

	// Same name under a different season is a different team.
	other := base
	other.BoundSeasonID = "s2"
	if _, err := ds.CreateTeam(ctx, other); err != nil {
		t.Fatalf("same name, different season: %v", err)
	}

	// Same name, same season, different game type is also distinct.
	indoor := base
	indoor.GameType = "indoor"
	if _, err := ds.CreateTeam(ctx, indoor); err != nil {
		t.Fatalf("same name, different game type: %v", err)
	}
}

func TestUpdateTeamUniquenessExcludesSelf(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	created, err := ds.CreateTeam(ctx, types.Team{Name: "Falcons", GameType: "outdoor"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	created.Color = "blue"
	if _, err := ds.UpdateTeam(ctx, created); err != nil {
		t.Fatalf("update with unchanged key: %v", err)
	}

	second, err := ds.CreateTeam(ctx, types.Team{Name: "Hawks", GameType: "outdoor"})
	if err != nil {
		t.Fatalf("create second team: %v", err)
	}
	second.Name = "Falcons"
	if _, err := ds.UpdateTeam(ctx, second); !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("collision rename: got %v, want ErrAlreadyExists", err)
	}
}

func TestDeleteTeamRemovesRoster(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	team, err := ds.CreateTeam(ctx, types.Team{Name: "Falcons"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	roster := types.TeamRoster{TeamID: team.ID, Entries: []types.RosterEntry{{PlayerID: "p1"}}}
	if err := ds.SaveTeamRoster(ctx, roster); err != nil {
		t.Fatalf("save roster: %v", err)
	}
	if err := ds.DeleteTeam(ctx, team.ID); err != nil {
		t.Fatalf("delete team: %v", err)
	}

	roster, err = ds.GetTeamRoster(ctx, team.ID)
	if err != nil {
		t.Fatalf("get roster: %v", err)
	}
	if len(roster.Entries) != 0 {
		t.Errorf("roster survived team deletion: %+v", roster)
	}
}

func TestDeletePlayerCascadesRosters(t *testing.T) {
	ds, enq := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	team, err := ds.CreateTeam(ctx, types.Team{Name: "Falcons"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	p, err := ds.CreatePlayer(ctx, types.Player{Name: "Mia"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	other, err := ds.CreatePlayer(ctx, types.Player{Name: "Zoe"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if err := ds.SaveTeamRoster(ctx, types.TeamRoster{
		TeamID:  team.ID,
		Entries: []types.RosterEntry{{PlayerID: p.ID}, {PlayerID: other.ID}},
	}); err != nil {
		t.Fatalf("save roster: %v", err)
	}

	enq.ops = nil
	if err := ds.DeletePlayer(ctx, p.ID); err != nil {
		t.Fatalf("delete player: %v", err)
	}

	roster, err := ds.GetTeamRoster(ctx, team.ID)
	if err != nil {
		t.Fatalf("get roster: %v", err)
	}
	if len(roster.Entries) != 1 || roster.Entries[0].PlayerID != other.ID {
		t.Errorf("roster after cascade = %v, want only %s", roster.Entries, other.ID)
	}

	var sawRosterUpdate, sawDelete bool
	for _, op := range enq.ops {
		if op.Operation == types.OpUpdate && op.EntityType == syncTypeTeamRoster {
			sawRosterUpdate = true
		}
		if op.Operation == types.OpDelete && op.EntityID == p.ID {
			sawDelete = true
		}
	}
	if !sawRosterUpdate || !sawDelete {
		t.Errorf("cascade sync ops missing: rosterUpdate=%v delete=%v", sawRosterUpdate, sawDelete)
	}
}

func TestDeletePersonnelCascadesGames(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	staff, err := ds.CreatePersonnel(ctx, types.Personnel{Name: "Ref"})
	if err != nil {
		t.Fatalf("create personnel: %v", err)
	}
	g, err := ds.CreateGame(ctx, types.Game{TeamID: "t1", PersonnelIDs: []string{staff.ID, "other"}})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	if err := ds.DeletePersonnel(ctx, staff.ID); err != nil {
		t.Fatalf("delete personnel: %v", err)
	}
	got, err := ds.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(got.PersonnelIDs) != 1 || got.PersonnelIDs[0] != "other" {
		t.Errorf("game personnel after cascade = %v", got.PersonnelIDs)
	}
}

func TestDeleteGameClearsCurrentGameSetting(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	g, err := ds.CreateGame(ctx, types.Game{TeamID: "t1"})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if err := ds.SaveSettings(ctx, types.Settings{CurrentGameID: g.ID}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := ds.DeleteGame(ctx, g.ID); err != nil {
		t.Fatalf("delete game: %v", err)
	}

	s, err := ds.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if s.CurrentGameID != "" {
		t.Errorf("current game not cleared: %q", s.CurrentGameID)
	}
}

func TestGameEventIDsAssignedOnce(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	g, err := ds.CreateGame(ctx, types.Game{
		TeamID:     "t1",
		GameEvents: []types.GameEvent{{Kind: "goal"}, {Kind: "goal"}},
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g.GameEvents[0].ID == "" || g.GameEvents[1].ID == "" {
		t.Fatal("event IDs not assigned")
	}
	if g.GameEvents[0].ID == g.GameEvents[1].ID {
		t.Errorf("duplicate event IDs %q", g.GameEvents[0].ID)
	}

	firstID := g.GameEvents[0].ID
	g.GameEvents = append(g.GameEvents, types.GameEvent{Kind: "sub"})
	updated, err := ds.UpdateGame(ctx, g)
	if err != nil {
		t.Fatalf("update game: %v", err)
	}
	if updated.GameEvents[0].ID != firstID {
		t.Errorf("existing event ID regenerated: %q -> %q", firstID, updated.GameEvents[0].ID)
	}
	if updated.GameEvents[2].ID == "" {
		t.Error("new event left without ID")
	}
}

func TestSeasonCompositeUniqueness(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	s := types.Season{Name: "2026", GameType: "outdoor", Gender: "mixed", AgeGroup: "u12"}
	if _, err := ds.CreateSeason(ctx, s); err != nil {
		t.Fatalf("create season: %v", err)
	}
	if _, err := ds.CreateSeason(ctx, s); !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("duplicate season: got %v, want ErrAlreadyExists", err)
	}
	s.AgeGroup = "u14"
	if _, err := ds.CreateSeason(ctx, s); err != nil {
		t.Fatalf("distinct age group: %v", err)
	}
}

func TestWarmupPlanSectionIDs(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	plan, err := ds.SaveWarmupPlan(ctx, types.WarmupPlan{
		Sections: []types.WarmupSection{{Name: "stretch"}, {Name: "sprints"}},
	})
	if err != nil {
		t.Fatalf("save plan: %v", err)
	}
	if plan.ID == "" {
		t.Error("plan ID not assigned")
	}
	if plan.Sections[0].ID == plan.Sections[1].ID {
		t.Errorf("duplicate section IDs %q", plan.Sections[0].ID)
	}

	got, err := ds.GetWarmupPlan(ctx)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.ID != plan.ID {
		t.Errorf("got plan %q, want %q", got.ID, plan.ID)
	}
}

func TestGetWarmupPlanAbsent(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	if _, err := ds.GetWarmupPlan(context.Background()); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestNotInitializedAfterShutdown(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ds.shutdown()

	if ds.IsInitialized() {
		t.Error("store still reports initialized after shutdown")
	}
	if _, err := ds.ListPlayers(context.Background()); !errors.Is(err, types.ErrNotInitialized) {
		t.Fatalf("got %v, want ErrNotInitialized", err)
	}
}

func TestNilEnqueuerDisablesSync(t *testing.T) {
	mgr := sqlite.NewManager(t.TempDir(), slog.Default())
	kv, err := mgr.Open(context.Background(), "solo@example.com")
	if err != nil {
		t.Fatalf("open partition: %v", err)
	}
	defer mgr.CloseActive()

	ds, err := New("solo@example.com", kv, nil, slog.Default())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := ds.CreatePlayer(context.Background(), types.Player{Name: "Mia"}); err != nil {
		t.Fatalf("create without sync: %v", err)
	}
}

func TestPartitionRowsCoversAllCollections(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	if _, err := ds.CreatePlayer(ctx, types.Player{Name: "Mia"}); err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := ds.CreateTeam(ctx, types.Team{Name: "Falcons"}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := ds.SaveSettings(ctx, types.Settings{CurrentGameID: ""}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	rows, err := ds.PartitionRows(ctx)
	if err != nil {
		t.Fatalf("partition rows: %v", err)
	}
	byType := map[string]int{}
	for _, r := range rows {
		byType[r.EntityType]++
	}
	if byType[types.EntityPlayer] != 1 || byType[types.EntityTeam] != 1 || byType[syncTypeSettings] != 1 {
		t.Errorf("unexpected row distribution: %v", byType)
	}
}

func TestBulkWriteAndSwapFromTemp(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	if _, err := ds.CreatePlayer(ctx, types.Player{Name: "Old"}); err != nil {
		t.Fatalf("create player: %v", err)
	}

	temp := "tmp" + ds.Prefix()
	bw := ds.BulkAt(temp)
	newID, err := scope.GenerateID(types.EntityPlayer, ds.PrincipalID())
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}
	if err := bw.PutPlayers(ctx, map[string]types.Player{newID: {ID: newID, Name: "New"}}); err != nil {
		t.Fatalf("bulk put: %v", err)
	}

	// Staged data is invisible until the swap.
	players, err := ds.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 1 || players[0].Name != "Old" {
		t.Fatalf("staging leaked into live namespace: %+v", players)
	}

	if err := ds.SwapFromTemp(ctx, temp); err != nil {
		t.Fatalf("swap: %v", err)
	}
	players, err = ds.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("list players after swap: %v", err)
	}
	if len(players) != 1 || players[0].Name != "New" {
		t.Errorf("swap did not replace namespace: %+v", players)
	}
}

func TestDiscardTemp(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	temp := "tmp" + ds.Prefix()
	if err := ds.BulkAt(temp).PutPlayers(ctx, map[string]types.Player{"x": {ID: "x"}}); err != nil {
		t.Fatalf("bulk put: %v", err)
	}
	if err := ds.DiscardTemp(ctx, temp); err != nil {
		t.Fatalf("discard: %v", err)
	}
	got, err := ds.PartitionAt(temp).Players(ctx)
	if err != nil {
		t.Fatalf("read temp: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("temp namespace not cleared: %v", got)
	}
}

func TestPlayerAdjustments(t *testing.T) {
	ds, _ := newTestStore(t, "coach@example.com")
	ctx := context.Background()

	adj, err := ds.CreatePlayerAdjustment(ctx, types.PlayerAdjustment{PlayerID: "p1", GoalsDelta: 2})
	if err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	list, err := ds.ListPlayerAdjustments(ctx)
	if err != nil {
		t.Fatalf("list adjustments: %v", err)
	}
	if len(list) != 1 || list[0].ID != adj.ID {
		t.Fatalf("unexpected adjustments: %+v", list)
	}
	if err := ds.DeletePlayerAdjustment(ctx, adj.ID); err != nil {
		t.Fatalf("delete adjustment: %v", err)
	}
	if err := ds.DeletePlayerAdjustment(ctx, adj.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}
