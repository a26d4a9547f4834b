package ragtool

import (
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/resolve"
	"github.com/hupe1980/ragmesh/tool"
)

// deleteCorpusTool removes an entire corpus. Destructive; gated behind an
// explicit confirm flag so a model cannot trigger it from a vague request.
type deleteCorpusTool struct {
	ts *Toolset
}

func (t *deleteCorpusTool) Name() string { return "delete_corpus" }

func (t *deleteCorpusTool) Description() string {
	return "Permanently delete a corpus and all its documents. Requires confirm=true. " +
		"Ask the user for confirmation before calling this."
}

func (t *deleteCorpusTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"corpus_name": map[string]any{
				"type":        "string",
				"description": "Corpus to delete",
			},
			"confirm": map[string]any{
				"type":        "boolean",
				"description": "Must be true to proceed with deletion",
			},
		},
		"required": []string{"corpus_name", "confirm"},
	}
}

// Call deletes the corpus and invalidates its cached existence so later
// operations re-consult the registry. The current corpus marker is left
// alone: a later resolution of a stale marker fails loudly against the live
// listing instead of silently retargeting.
func (t *deleteCorpusTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	corpusName, ok := stringArg(args, "corpus_name")
	if !ok {
		return nil, tool.NewToolError(t.Name(), "corpus_name parameter is required", "VALIDATION_ERROR")
	}

	if confirmed, _ := args["confirm"].(bool); !confirmed {
		return map[string]any{
			"status":      "info",
			"message":     fmt.Sprintf("Deletion of corpus '%s' requires confirm=true.", corpusName),
			"corpus_name": corpusName,
		}, nil
	}

	handle, failure := t.ts.resolveTarget(tc, corpusName)
	if failure != nil {
		return failure, nil
	}

	if err := t.ts.svc.DeleteCorpus(tc.Context(), handle.Name); err != nil {
		return errorResult(fmt.Sprintf("Error deleting corpus '%s': %v", handle.DisplayName, err)), nil
	}

	resolve.NewCache(tc).Invalidate(corpusName)

	return map[string]any{
		"status":      "success",
		"message":     fmt.Sprintf("Corpus '%s' deleted.", handle.DisplayName),
		"corpus_name": handle.Name,
	}, nil
}
