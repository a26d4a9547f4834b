// Package ragmesh provides a high-level façade over the corpus toolset and
// its services (registry gateway, resolver, session storage, logging),
// enabling rapid construction of corpus-managing agents. Most applications
// interact with this package by:
//  1. Creating a RagMesh via New() (optionally overriding the registry
//     backend, session store or logger)
//  2. Handing Tools() to an agent (NewAgent) or an MCP server
//  3. Resolving corpus identifiers directly via Resolver() where needed
//
// The façade only wires; corpus semantics live in the resolve, registry and
// ragtool packages. All defaults are safe for local development and testing:
// an in-memory registry, an in-memory session store and a no-op logger.
// Production deployments supply the Vertex AI registry gateway (see
// registry/vertex), a durable session store (see session/sqlite) and a
// structured logger.
package ragmesh

import (
	"github.com/hupe1980/ragmesh/agent"
	"github.com/hupe1980/ragmesh/config"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/model"
	"github.com/hupe1980/ragmesh/ragtool"
	"github.com/hupe1980/ragmesh/registry"
	"github.com/hupe1980/ragmesh/resolve"
	"github.com/hupe1980/ragmesh/session"
	"github.com/hupe1980/ragmesh/tool"
)

// Options configures the RagMesh instance.
type Options struct {
	// Config carries project/location and retrieval defaults. Defaults to
	// config.FromEnv().
	Config *config.Config

	// Registry is the corpus registry backend. Defaults to an in-memory
	// registry; production wiring passes registry/vertex.New(...).
	Registry registry.Service

	// SessionStore persists sessions (defaults to in-memory).
	SessionStore core.SessionStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// RagMesh is the high-level façade aggregating the toolset and its services.
type RagMesh struct {
	cfg      *config.Config
	svc      registry.Service
	store    core.SessionStore
	logger   logging.Logger
	toolset  *ragtool.Toolset
	resolver *resolve.Resolver
}

// New creates a new RagMesh instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *RagMesh {
	opts := Options{
		Config:       config.FromEnv(),
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = registry.NewInMemory(opts.Config.Project, opts.Config.Location)
	}

	resolveCfg := resolve.Config{
		Project:  opts.Config.Project,
		Location: opts.Config.Location,
	}

	toolset := ragtool.New(resolveCfg, opts.Registry, func(o *ragtool.Options) {
		o.TopK = opts.Config.Retrieval.TopK
		o.VectorDistanceThreshold = opts.Config.Retrieval.VectorDistanceThreshold
		o.Logger = opts.Logger
	})

	return &RagMesh{
		cfg:      opts.Config,
		svc:      opts.Registry,
		store:    opts.SessionStore,
		logger:   opts.Logger,
		toolset:  toolset,
		resolver: toolset.Resolver(),
	}
}

// Tools returns the corpus toolset, ready for agent or MCP registration.
func (rm *RagMesh) Tools() []tool.Tool { return rm.toolset.Tools() }

// Resolver returns the shared corpus resolver.
func (rm *RagMesh) Resolver() *resolve.Resolver { return rm.resolver }

// Registry returns the configured registry backend.
func (rm *RagMesh) Registry() registry.Service { return rm.svc }

// SessionStore returns the configured session store.
func (rm *RagMesh) SessionStore() core.SessionStore { return rm.store }

// Config returns the effective configuration.
func (rm *RagMesh) Config() *config.Config { return rm.cfg }

// NewAgent builds a function-calling agent over the corpus toolset and this
// instance's session store. The default instruction tells the model about
// the current corpus convention; override it via the agent options.
func (rm *RagMesh) NewAgent(name string, m model.Model, optFns ...func(o *agent.Options)) *agent.Agent {
	base := func(o *agent.Options) {
		o.SessionStore = rm.store
		o.Logger = rm.logger
		o.Instruction = agent.NewInstructionFromTemplate(
			"You manage document corpora for the user. " +
				"Use the corpus tools to create, inspect, populate, query and delete corpora. " +
				`Current corpus: {{default "none selected" .current_corpus}}. ` +
				"When the user does not name a corpus, tools target the current corpus.",
		)
	}
	return agent.New(name, m, rm.toolset.Tools(), append([]func(o *agent.Options){base}, optFns...)...)
}
