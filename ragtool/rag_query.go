package ragtool

import (
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/tool"
)

// ragQueryTool retrieves relevant passages from a corpus.
type ragQueryTool struct {
	ts *Toolset
}

func (t *ragQueryTool) Name() string { return "rag_query" }

func (t *ragQueryTool) Description() string {
	return "Query a corpus for passages relevant to a question. " +
		"Targets the current corpus when corpus_name is omitted."
}

func (t *ragQueryTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"corpus_name": map[string]any{
				"type":        "string",
				"description": "Corpus to query. Leave empty for the current corpus.",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Question or search text",
			},
		},
		"required": []string{"query"},
	}
}

func (t *ragQueryTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return nil, tool.NewToolError(t.Name(), "query parameter is required", "VALIDATION_ERROR")
	}

	corpusName, _ := stringArg(args, "corpus_name")
	handle, failure := t.ts.resolveTarget(tc, corpusName)
	if failure != nil {
		return failure, nil
	}

	chunks, err := t.ts.svc.Query(tc.Context(), handle.Name, query, t.ts.topK, t.ts.threshold)
	if err != nil {
		return errorResult(fmt.Sprintf("Error querying corpus '%s': %v", handle.DisplayName, err)), nil
	}

	if len(chunks) == 0 {
		return map[string]any{
			"status":        "warning",
			"message":       fmt.Sprintf("No results found in corpus '%s' for this query.", handle.DisplayName),
			"corpus_name":   handle.Name,
			"query":         query,
			"results":       []map[string]any{},
			"results_count": 0,
		}, nil
	}

	results := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		entry := map[string]any{
			"text":  c.Text,
			"score": c.Score,
		}
		if c.Source != "" {
			entry["source"] = c.Source
		}
		results = append(results, entry)
	}

	return map[string]any{
		"status":        "success",
		"message":       fmt.Sprintf("Found %d result(s) in corpus '%s'.", len(results), handle.DisplayName),
		"corpus_name":   handle.Name,
		"query":         query,
		"results":       results,
		"results_count": len(results),
	}, nil
}
