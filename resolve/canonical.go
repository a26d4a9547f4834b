package resolve

import (
	"regexp"
	"strings"

	"github.com/hupe1980/ragmesh/registry"
)

// Config carries the project and location that canonical corpus resource
// names are rooted under. Both the canonicalizer and the resolver receive it
// explicitly; neither consults environment state.
type Config struct {
	Project  string
	Location string
}

// Canonicalizer maps loose corpus identifiers to canonical resource names
// under a fixed project/location.
type Canonicalizer struct {
	cfg Config
}

// NewCanonicalizer creates a canonicalizer for the given config.
func NewCanonicalizer(cfg Config) *Canonicalizer { return &Canonicalizer{cfg: cfg} }

var identifierSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeIdentifier reduces an identifier to the registry's safe charset,
// replacing anything outside [a-zA-Z0-9_-] with underscores. Canonicalize
// applies the same rule to the trailing segment; corpus creation applies it
// to display names so typed names and canonical IDs share one charset.
func SanitizeIdentifier(identifier string) string {
	return identifierSanitizer.ReplaceAllString(identifier, "_")
}

// Canonicalize returns the canonical resource name for an identifier:
//
//   - an input that already is a canonical corpus resource name passes
//     through unchanged, even when it points at a different project or
//     location than the configured one
//   - anything else is reduced to its trailing path segment, characters
//     outside [a-zA-Z0-9_-] are replaced by underscores, and the result is
//     spliced into the configured pattern
//
// The mapping is pure (no I/O), total and idempotent. It constructs a
// plausible name for comparison purposes; it makes no claim the corpus
// exists.
func (c *Canonicalizer) Canonicalize(identifier string) string {
	if registry.IsCorpusName(identifier) {
		return identifier
	}
	id := identifier
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	id = SanitizeIdentifier(id)
	return registry.CorpusName(c.cfg.Project, c.cfg.Location, id)
}
