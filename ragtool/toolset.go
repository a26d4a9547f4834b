package ragtool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/registry"
	"github.com/hupe1980/ragmesh/resolve"
	"github.com/hupe1980/ragmesh/tool"
)

const (
	// defaultTopK is the number of chunks rag_query requests when not configured.
	defaultTopK = 10
	// defaultThreshold is the vector distance cutoff for retrieved chunks.
	defaultThreshold = 0.5
)

// Options configures optional Toolset behavior.
type Options struct {
	// TopK bounds how many chunks rag_query retrieves.
	TopK int
	// VectorDistanceThreshold filters retrieved chunks by distance.
	VectorDistanceThreshold float64
	// Logger receives tool and resolution events.
	Logger logging.Logger
}

// Toolset bundles the corpus tools around one registry backend and one
// resolver, so all tools share resolution semantics and session cache keys.
type Toolset struct {
	svc       registry.Service
	resolver  *resolve.Resolver
	topK      int
	threshold float64
	logger    logging.Logger
}

// New constructs the corpus toolset for the given project/location and
// registry backend.
func New(cfg resolve.Config, svc registry.Service, optFns ...func(o *Options)) *Toolset {
	opts := Options{
		TopK:                    defaultTopK,
		VectorDistanceThreshold: defaultThreshold,
		Logger:                  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Toolset{
		svc: svc,
		resolver: resolve.New(cfg, svc, func(o *resolve.Options) {
			o.Logger = opts.Logger
		}),
		topK:      opts.TopK,
		threshold: opts.VectorDistanceThreshold,
		logger:    opts.Logger,
	}
}

// Resolver returns the shared resolver, for callers that resolve corpus
// identifiers outside a tool invocation.
func (ts *Toolset) Resolver() *resolve.Resolver { return ts.resolver }

// Tools returns all corpus tools backed by this toolset.
func (ts *Toolset) Tools() []tool.Tool {
	return []tool.Tool{
		&createCorpusTool{ts: ts},
		&listCorporaTool{ts: ts},
		&addDataTool{ts: ts},
		&corpusInfoTool{ts: ts},
		&deleteDocumentTool{ts: ts},
		&deleteCorpusTool{ts: ts},
		&ragQueryTool{ts: ts},
	}
}

// resolveTarget resolves an identifier (or the session's current corpus when
// blank) and converts each failure class into the structured result map the
// model reads. The second return is nil exactly when resolution succeeded.
func (ts *Toolset) resolveTarget(tc *core.ToolContext, identifier string) (resolve.Handle, map[string]any) {
	handle, err := ts.resolver.ResolveTarget(tc.Context(), tc, identifier)
	if err == nil {
		return handle, nil
	}

	target := identifier
	if target == "" {
		if current, ok := resolve.NewCache(tc).Current(); ok {
			target = current
		}
	}

	switch {
	case errors.Is(err, resolve.ErrNoTarget):
		return resolve.Handle{}, errorResult(
			"No corpus specified and no current corpus is set. Provide corpus_name or create a corpus first.")
	case errors.Is(err, resolve.ErrNotFound):
		return resolve.Handle{}, errorResult(
			fmt.Sprintf("Corpus '%s' was not found. Use list_corpora to see available corpora.", target))
	default:
		return resolve.Handle{}, registryUnavailable(err)
	}
}

// errorResult builds the error-shaped tool outcome.
func errorResult(message string) map[string]any {
	return map[string]any{
		"status":  "error",
		"message": message,
	}
}

// registryUnavailable reports a transport failure without claiming the
// corpus does not exist.
func registryUnavailable(err error) map[string]any {
	return errorResult(fmt.Sprintf("The corpus registry is currently unavailable: %v", err))
}

// stringArg extracts a trimmed string argument, reporting whether it was
// present and non-blank.
func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
