package resolve

import "strings"

// State is the session-backed key/value surface the cache operates on. Both
// *core.Session and *core.ToolContext satisfy it.
type State interface {
	GetState(key string) (any, bool)
	SetState(key string, value any)
	SetStateIfAbsent(key string, value any) bool
}

// State keys. The existence prefix is followed by the literal identifier
// string the caller used; identifiers are never normalized before keying, so
// "eng docs" and "eng_docs" hold independent flags.
const (
	// StateKeyCurrentCorpus holds the identifier of the last successfully
	// resolved or selected corpus, the implicit target of calls that name
	// none.
	StateKeyCurrentCorpus = "current_corpus"

	existencePrefix = "corpus_exists_"
)

// Cache wraps session state with the corpus bookkeeping contract: a current
// (implicit target) corpus plus per-identifier confirmed-existence flags.
// It holds no data of its own; constructing one per call is free.
type Cache struct {
	state State
}

// NewCache wraps the given session state.
func NewCache(state State) *Cache { return &Cache{state: state} }

func existenceKey(identifier string) string { return existencePrefix + identifier }

// HasConfirmedExistence reports whether identifier was previously confirmed
// against the registry and not invalidated since. Absent keys and non-bool
// values read as false.
func (c *Cache) HasConfirmedExistence(identifier string) bool {
	v, ok := c.state.GetState(existenceKey(identifier))
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// RecordExistence marks identifier as registry-confirmed.
//
// Postcondition: when no current corpus is set yet, identifier becomes the
// current corpus, so the first successfully referenced corpus turns into the
// implicit target of later calls. An established current corpus is never
// displaced by this.
func (c *Cache) RecordExistence(identifier string) {
	c.state.SetState(existenceKey(identifier), true)
	c.state.SetStateIfAbsent(StateKeyCurrentCorpus, identifier)
}

// SetCurrent makes identifier the implicit target for subsequent calls.
func (c *Cache) SetCurrent(identifier string) {
	c.state.SetState(StateKeyCurrentCorpus, identifier)
}

// Current returns the implicit target identifier, if a usable one is set.
// Blank and non-string values read as unset.
func (c *Cache) Current() (string, bool) {
	v, ok := c.state.GetState(StateKeyCurrentCorpus)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Invalidate flips the existence flag for identifier to false. The key is
// kept rather than deleted so a later confirmation overwrites it in place.
// The current corpus is left untouched even when it names the invalidated
// identifier: a stale implicit target fails loudly at the next resolution
// instead of silently redirecting follow-up calls to a different corpus.
func (c *Cache) Invalidate(identifier string) {
	c.state.SetState(existenceKey(identifier), false)
}
