// Package identity maps arbitrary external identifiers to the canonical
// fixed-format key that all stored foreign-key references use. Comments and
// likes keyed by provider-specific IDs line up with canonical profile rows
// because every lookup and mutation funnels through Normalize first.
package identity

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Namespace is the fixed derivation namespace. Changing it would orphan every
// derived key already stored, so it is a constant, not configuration.
var Namespace = uuid.MustParse("a4e8f7d2-3b61-4c9a-9f25-7d80c1b5e0aa")

var canonicalShape = regexp.MustCompile(
	`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Normalize converts an external identifier to its canonical form. A value
// already in the canonical hyphenated hexadecimal shape passes through
// unchanged; anything else is deterministically derived from the input under
// the fixed namespace. Pure function: no I/O, no randomness.
func Normalize(id string) string {
	lower := strings.ToLower(id)
	if canonicalShape.MatchString(lower) {
		return lower
	}
	return uuid.NewSHA1(Namespace, []byte(id)).String()
}

// IsCanonical reports whether id is already in the canonical shape.
func IsCanonical(id string) bool {
	return canonicalShape.MatchString(strings.ToLower(id))
}
