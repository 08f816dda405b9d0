// Package scope derives per-principal namespace prefixes and generates,
// strips, and inspects namespaced entity identifiers.
//
// Namespaced identifiers look like {prefix}_{entityType}_{timestamp}_{random}
// with an optional trailing _{index}; portable identifiers omit the prefix.
// There is no explicit format discriminator: the entity-type token's
// membership in the closed set types.KnownEntityTypes is the sole signal
// used to tell the two layouts apart.
package scope

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldside/rostervault/pkg/types"
)

// prefixLen is the number of hex characters kept from the principal digest.
// Twelve characters (48 bits) keep the collision probability negligible at
// the cardinality of principals a single device ever sees.
const prefixLen = 12

// randomLen is the number of hex characters in the random identifier suffix.
// Eight characters make a same-millisecond collision negligible.
const randomLen = 8

// Plausible millisecond-epoch bounds for timestamps embedded in identifiers:
// 2000-01-01 through 2100-01-01. Values outside this window are treated as
// non-timestamp tokens.
const (
	minPlausibleMillis = 946684800000
	maxPlausibleMillis = 4102444800000
)

// now is replaceable in tests.
var now = time.Now

// PrefixFor derives the deterministic namespace prefix for a principal.
// Distinct principals produce distinct prefixes within the practical
// cardinality of the system; a hash collision is accepted as negligible,
// not eliminated. Returns ErrMissingPrincipal for an empty principal.
func PrefixFor(principalID string) (string, error) {
	if principalID == "" {
		return "", types.ErrMissingPrincipal
	}
	sum := sha256.Sum256([]byte(principalID))
	return hex.EncodeToString(sum[:])[:prefixLen], nil
}

// ScopeKey prepends the principal's namespace prefix to a base storage key.
func ScopeKey(baseKey, principalID string) (string, error) {
	prefix, err := PrefixFor(principalID)
	if err != nil {
		return "", err
	}
	return prefix + "_" + baseKey, nil
}

// GenerateID returns a new namespaced identifier for the given entity type.
// An optional index disambiguates identifiers generated in a tight loop
// (e.g. regenerating a batch of game events during import).
func GenerateID(entityType, principalID string, index ...int) (string, error) {
	if !types.KnownEntityTypes[entityType] {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownEntityType, entityType)
	}
	prefix, err := PrefixFor(principalID)
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("%s_%s_%d_%s", prefix, entityType, now().UnixMilli(), randomHex())
	if len(index) > 0 {
		id = fmt.Sprintf("%s_%d", id, index[0])
	}
	return id, nil
}

// GeneratePortableID returns an identifier without a namespace prefix, as
// used inside exported snapshots.
func GeneratePortableID(entityType string, index ...int) (string, error) {
	if !types.KnownEntityTypes[entityType] {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownEntityType, entityType)
	}
	id := fmt.Sprintf("%s_%d_%s", entityType, now().UnixMilli(), randomHex())
	if len(index) > 0 {
		id = fmt.Sprintf("%s_%d", id, index[0])
	}
	return id, nil
}

// EphemeralID returns an identifier for transient, never-persisted uses
// (optimistic placeholders, notification handles). It deliberately shares
// nothing with the namespaced format so an ephemeral value that leaks into
// storage is immediately recognizable.
func EphemeralID() string {
	return "eph-" + uuid.NewString()
}

// StripPrefix converts a namespaced identifier to portable form. An already
// portable identifier is returned unchanged. An identifier matching neither
// layout is returned unchanged and logged; refusing to guess here is what
// keeps predefined constant references (which are not generated identifiers)
// out of the remap.
func StripPrefix(id string) string {
	tokens := strings.SplitN(id, "_", 3)
	if len(tokens) > 0 && types.KnownEntityTypes[tokens[0]] {
		return id // already portable
	}
	if len(tokens) >= 2 && types.KnownEntityTypes[tokens[1]] {
		return strings.TrimPrefix(id, tokens[0]+"_")
	}
	slog.Warn("identifier matches neither namespaced nor portable layout, leaving unchanged", "id", id)
	return id
}

// AddPrefix prepends the principal's namespace prefix to a portable
// identifier.
func AddPrefix(id, principalID string) (string, error) {
	prefix, err := PrefixFor(principalID)
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}

// ExtractTimestamp returns the millisecond-epoch timestamp embedded in an
// identifier, trying the namespaced layout (token 2) first and the portable
// layout (token 1) second. A parsed value outside the plausible epoch range
// is rejected. Returns 0 when neither layout yields a plausible value.
func ExtractTimestamp(id string) int64 {
	tokens := strings.Split(id, "_")
	for _, idx := range []int{2, 1} {
		if idx >= len(tokens) {
			continue
		}
		ms, err := strconv.ParseInt(tokens[idx], 10, 64)
		if err != nil {
			continue
		}
		if ms >= minPlausibleMillis && ms <= maxPlausibleMillis {
			return ms
		}
	}
	return 0
}

// randomHex returns randomLen hex characters from crypto/rand.
func randomHex() string {
	buf := make([]byte, randomLen/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// UUID-derived suffix rather than panicking.
		return uuid.NewString()[:randomLen]
	}
	return hex.EncodeToString(buf)
}
