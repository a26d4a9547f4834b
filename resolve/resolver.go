package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/registry"
)

var (
	// ErrNoTarget is returned when a call names no corpus and the session
	// has no current corpus to fall back on.
	ErrNoTarget = errors.New("no corpus specified and no current corpus set")

	// ErrNotFound is returned when an identifier matches nothing in the live
	// registry listing.
	ErrNotFound = errors.New("corpus not found")
)

// CorpusLister is the one registry capability resolution needs. The full
// registry.Service satisfies it.
type CorpusLister interface {
	ListCorpora(ctx context.Context) ([]registry.Corpus, error)
}

// Options configures a Resolver. Extend via functional options to preserve
// stability.
type Options struct {
	Logger logging.Logger
}

// Resolver orchestrates corpus resolution: target selection, live registry
// listing, ranked matching and cache bookkeeping. It is stateless apart from
// its configuration; all session-scoped state flows in through the State
// argument of each call.
type Resolver struct {
	cfg    Config
	svc    CorpusLister
	canon  *Canonicalizer
	logger logging.Logger
}

// New creates a Resolver over the given registry gateway.
func New(cfg Config, svc CorpusLister, optFns ...func(o *Options)) *Resolver {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Resolver{
		cfg:    cfg,
		svc:    svc,
		canon:  NewCanonicalizer(cfg),
		logger: opts.Logger,
	}
}

// Canonicalize exposes the resolver's canonicalizer.
func (r *Resolver) Canonicalize(identifier string) string {
	return r.canon.Canonicalize(identifier)
}

// ResolveTarget resolves an explicit identifier, or the session's current
// corpus when identifier is blank, against a live registry listing.
//
// Flow: pick the target identifier (explicit wins, else current corpus, else
// ErrNoTarget without touching the registry), canonicalize it for comparison,
// list live corpora, then run the ranked fuzzy pass with the identifier as
// typed. There is no separate exact-match path: an exact hit is a zero-offset
// containment and already outranks everything else.
//
// On success the match is recorded in the session cache under the literal
// identifier that was resolved, which also makes it the current corpus if
// none was set. On any failure (no target, no match, listing error) the
// cache is left untouched.
func (r *Resolver) ResolveTarget(ctx context.Context, state State, identifier string) (Handle, error) {
	cache := NewCache(state)

	target := strings.TrimSpace(identifier)
	if target == "" {
		current, ok := cache.Current()
		if !ok {
			return Handle{}, ErrNoTarget
		}
		target = current
	}

	canonical := r.canon.Canonicalize(target)
	r.logger.Debug("corpus.resolve.start", "identifier", target, "canonical", canonical)

	corpora, err := r.svc.ListCorpora(ctx)
	if err != nil {
		r.logger.Error("registry.list.error", "error", err)
		return Handle{}, fmt.Errorf("listing corpora: %w", err)
	}

	handle, ok := bestMatch(target, corpora)
	if !ok {
		r.logger.Info("corpus.resolve.miss", "identifier", target)
		return Handle{}, fmt.Errorf("%w: %q", ErrNotFound, target)
	}

	cache.RecordExistence(target)
	r.logger.Info("corpus.resolve.match", "identifier", target, "name", handle.Name, "display_name", handle.DisplayName)

	return handle, nil
}

// CheckExists answers whether identifier names an existing corpus. A cached
// confirmation short-circuits the registry; otherwise a live listing is
// compared exactly: a corpus matches when its resource name equals the
// canonicalized identifier or its display name equals the identifier as
// typed. Exact comparison keeps this safe as a guard for mutating
// operations, where a fuzzy guess could redirect the mutation.
//
// A confirmed hit is recorded in the cache (with the same current-corpus
// postcondition as resolution). A miss reports false without mutating any
// cached state; a listing failure reports the error so callers never mistake
// registry downtime for non-existence.
func (r *Resolver) CheckExists(ctx context.Context, state State, identifier string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false, nil
	}

	cache := NewCache(state)
	if cache.HasConfirmedExistence(identifier) {
		r.logger.Debug("corpus.exists.cache_hit", "identifier", identifier)
		return true, nil
	}

	canonical := r.canon.Canonicalize(identifier)

	corpora, err := r.svc.ListCorpora(ctx)
	if err != nil {
		r.logger.Error("registry.list.error", "error", err)
		return false, fmt.Errorf("listing corpora: %w", err)
	}

	for _, c := range corpora {
		if c.Name == canonical || c.DisplayName == identifier {
			cache.RecordExistence(identifier)
			r.logger.Debug("corpus.exists.confirmed", "identifier", identifier, "name", c.Name)
			return true, nil
		}
	}

	return false, nil
}
