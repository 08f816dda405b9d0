// Package integration exercises the full storage stack in-process: session
// manager, partition databases, sync queue, engine, and backup pipeline.
package integration

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldside/rostervault/internal/sqlite"
	"github.com/fieldside/rostervault/internal/store"
	"github.com/fieldside/rostervault/pkg/types"
)

// stack is a fully wired local deployment rooted in a temp directory.
type stack struct {
	DataDir    string
	Partitions *sqlite.Manager
	Queue      *sqlite.Queue
	Sessions   *store.Manager
}

// newStack builds a deployment with sync enabled (operations are queued; a
// test decides whether to drain them).
func newStack(t *testing.T) *stack {
	t.Helper()
	dir := t.TempDir()
	logger := slog.Default()

	partitions := sqlite.NewManager(dir, logger)
	queue, err := sqlite.NewQueue(filepath.Join(dir, sqlite.QueueFileName), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		partitions.CloseActive()
		queue.Close()
	})

	return &stack{
		DataDir:    dir,
		Partitions: partitions,
		Queue:      queue,
		Sessions:   store.NewManager(partitions, queue, true, logger),
	}
}

// signIn opens a session for principalID and fails the test on error.
func (s *stack) signIn(t *testing.T, principalID string) *store.DataStore {
	t.Helper()
	ds, err := s.Sessions.SignIn(context.Background(), principalID)
	require.NoError(t, err)
	return ds
}

// createRoster seeds a team with two rostered players and returns them.
func createRoster(t *testing.T, ds *store.DataStore) (types.Team, types.Player, types.Player) {
	t.Helper()
	ctx := context.Background()

	team, err := ds.CreateTeam(ctx, types.Team{Name: "Falcons", GameType: "outdoor"})
	require.NoError(t, err)
	p1, err := ds.CreatePlayer(ctx, types.Player{Name: "Mia", JerseyNumber: "7"})
	require.NoError(t, err)
	p2, err := ds.CreatePlayer(ctx, types.Player{Name: "Zoe"})
	require.NoError(t, err)
	require.NoError(t, ds.SaveTeamRoster(ctx, types.TeamRoster{
		TeamID:  team.ID,
		Entries: []types.RosterEntry{{PlayerID: p1.ID, JerseyNumber: "7"}, {PlayerID: p2.ID}},
	}))
	return team, p1, p2
}
