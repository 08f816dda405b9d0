package scope

import (
	"strings"
	"testing"
	"time"

	"github.com/fieldside/rostervault/pkg/types"
)

func TestPrefixFor_Deterministic(t *testing.T) {
	a, err := PrefixFor("user-abc")
	if err != nil {
		t.Fatalf("PrefixFor failed: %v", err)
	}
	b, err := PrefixFor("user-abc")
	if err != nil {
		t.Fatalf("PrefixFor failed: %v", err)
	}
	if a != b {
		t.Errorf("prefix not deterministic: %q vs %q", a, b)
	}
	if len(a) != prefixLen {
		t.Errorf("prefix length = %d, want %d", len(a), prefixLen)
	}
}

func TestPrefixFor_DistinctPrincipals(t *testing.T) {
	a, _ := PrefixFor("user-a")
	b, _ := PrefixFor("user-b")
	if a == b {
		t.Errorf("distinct principals produced the same prefix %q", a)
	}
}

func TestPrefixFor_EmptyPrincipal(t *testing.T) {
	if _, err := PrefixFor(""); err != types.ErrMissingPrincipal {
		t.Errorf("expected ErrMissingPrincipal, got %v", err)
	}
}

func TestScopeKey(t *testing.T) {
	key, err := ScopeKey("players", "user-a")
	if err != nil {
		t.Fatalf("ScopeKey failed: %v", err)
	}
	prefix, _ := PrefixFor("user-a")
	if key != prefix+"_players" {
		t.Errorf("ScopeKey = %q, want %q", key, prefix+"_players")
	}

	if _, err := ScopeKey("players", ""); err != types.ErrMissingPrincipal {
		t.Errorf("expected ErrMissingPrincipal, got %v", err)
	}
}

func TestGenerateID_Format(t *testing.T) {
	id, err := GenerateID(types.EntityPlayer, "user-a")
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	tokens := strings.Split(id, "_")
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d in %q", len(tokens), id)
	}
	prefix, _ := PrefixFor("user-a")
	if tokens[0] != prefix {
		t.Errorf("token 0 = %q, want prefix %q", tokens[0], prefix)
	}
	if tokens[1] != types.EntityPlayer {
		t.Errorf("token 1 = %q, want %q", tokens[1], types.EntityPlayer)
	}
	if len(tokens[3]) != randomLen {
		t.Errorf("random suffix length = %d, want %d", len(tokens[3]), randomLen)
	}
}

func TestGenerateID_WithIndex(t *testing.T) {
	id, err := GenerateID(types.EntityEvent, "user-a", 7)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if !strings.HasSuffix(id, "_7") {
		t.Errorf("expected index suffix, got %q", id)
	}
}

func TestGenerateID_Errors(t *testing.T) {
	if _, err := GenerateID(types.EntityPlayer, ""); err != types.ErrMissingPrincipal {
		t.Errorf("expected ErrMissingPrincipal, got %v", err)
	}
	if _, err := GenerateID("widget", "user-a"); err == nil {
		t.Error("expected error for unknown entity type")
	}
}

func TestStripPrefix(t *testing.T) {
	id, _ := GenerateID(types.EntityTeam, "user-a")
	portable := StripPrefix(id)
	if strings.HasPrefix(portable, "team_") != true {
		t.Errorf("stripped id %q does not start with entity type", portable)
	}
	// Idempotent on portable form.
	if again := StripPrefix(portable); again != portable {
		t.Errorf("StripPrefix not idempotent: %q vs %q", again, portable)
	}
	// Unrecognized layout returned unchanged.
	if got := StripPrefix(types.LeagueDefault); got != types.LeagueDefault {
		t.Errorf("constant reference modified: %q", got)
	}
	if got := StripPrefix("not-an-id"); got != "not-an-id" {
		t.Errorf("unrecognized id modified: %q", got)
	}
}

func TestAddPrefix_RoundTrip(t *testing.T) {
	portable, err := GeneratePortableID(types.EntitySeason)
	if err != nil {
		t.Fatalf("GeneratePortableID failed: %v", err)
	}
	namespaced, err := AddPrefix(portable, "user-b")
	if err != nil {
		t.Fatalf("AddPrefix failed: %v", err)
	}
	prefix, _ := PrefixFor("user-b")
	if !strings.HasPrefix(namespaced, prefix+"_season_") {
		t.Errorf("namespaced id %q missing prefix", namespaced)
	}
	if StripPrefix(namespaced) != portable {
		t.Errorf("strip(add(id)) != id: %q", StripPrefix(namespaced))
	}
}

func TestExtractTimestamp(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	namespaced, _ := GenerateID(types.EntityGame, "user-a")
	if ts := ExtractTimestamp(namespaced); ts != fixed.UnixMilli() {
		t.Errorf("namespaced timestamp = %d, want %d", ts, fixed.UnixMilli())
	}

	portable, _ := GeneratePortableID(types.EntityGame)
	if ts := ExtractTimestamp(portable); ts != fixed.UnixMilli() {
		t.Errorf("portable timestamp = %d, want %d", ts, fixed.UnixMilli())
	}

	if ts := ExtractTimestamp("junk_value_here"); ts != 0 {
		t.Errorf("implausible id yielded timestamp %d", ts)
	}
	// A numeric token outside the plausible epoch window is rejected.
	if ts := ExtractTimestamp("game_99_x"); ts != 0 {
		t.Errorf("implausible millis accepted: %d", ts)
	}
}

func TestEphemeralID_NeverNamespaced(t *testing.T) {
	id := EphemeralID()
	if !strings.HasPrefix(id, "eph-") {
		t.Errorf("ephemeral id %q missing marker prefix", id)
	}
	tokens := strings.SplitN(id, "_", 3)
	if types.KnownEntityTypes[tokens[0]] {
		t.Errorf("ephemeral id %q collides with entity-type token", id)
	}
}
