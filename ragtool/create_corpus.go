package ragtool

import (
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/resolve"
	"github.com/hupe1980/ragmesh/tool"
)

// createCorpusTool creates a new corpus in the registry.
type createCorpusTool struct {
	ts *Toolset
}

func (t *createCorpusTool) Name() string { return "create_corpus" }

func (t *createCorpusTool) Description() string {
	return "Create a new corpus to store documents. Use this before add_data when no suitable corpus exists yet."
}

func (t *createCorpusTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"corpus_name": map[string]any{
				"type":        "string",
				"description": "Name for the new corpus",
			},
		},
		"required": []string{"corpus_name"},
	}
}

// Call checks for an existing corpus first: re-creating an existing corpus
// is reported as an already-exists outcome, not a failure. On creation the
// corpus becomes the session's current corpus.
func (t *createCorpusTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	name, ok := stringArg(args, "corpus_name")
	if !ok {
		return nil, tool.NewToolError(t.Name(), "corpus_name parameter is required", "VALIDATION_ERROR")
	}

	exists, err := t.ts.resolver.CheckExists(tc.Context(), tc, name)
	if err != nil {
		return registryUnavailable(err), nil
	}
	if exists {
		return map[string]any{
			"status":         "info",
			"message":        fmt.Sprintf("Corpus '%s' already exists.", name),
			"corpus_name":    name,
			"corpus_created": false,
		}, nil
	}

	displayName := resolve.SanitizeIdentifier(name)

	corpus, err := t.ts.svc.CreateCorpus(tc.Context(), displayName, fmt.Sprintf("Corpus created for %s", name))
	if err != nil {
		return errorResult(fmt.Sprintf("Error creating corpus '%s': %v", name, err)), nil
	}

	cache := resolve.NewCache(tc)
	cache.RecordExistence(name)
	cache.SetCurrent(name)

	return map[string]any{
		"status":         "success",
		"message":        fmt.Sprintf("Corpus '%s' created.", name),
		"corpus_name":    corpus.Name,
		"display_name":   corpus.DisplayName,
		"corpus_created": true,
	}, nil
}
