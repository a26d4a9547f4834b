package ragtool

import (
	"fmt"
	"time"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/registry"
)

// corpusInfoTool reports corpus metadata and its document listing.
type corpusInfoTool struct {
	ts *Toolset
}

func (t *corpusInfoTool) Name() string { return "get_corpus_info" }

func (t *corpusInfoTool) Description() string {
	return "Get detailed information about a corpus, including its documents. " +
		"Targets the current corpus when corpus_name is omitted."
}

func (t *corpusInfoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"corpus_name": map[string]any{
				"type":        "string",
				"description": "Corpus to inspect. Leave empty for the current corpus.",
			},
		},
	}
}

func (t *corpusInfoTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	corpusName, _ := stringArg(args, "corpus_name")

	handle, failure := t.ts.resolveTarget(tc, corpusName)
	if failure != nil {
		return failure, nil
	}

	corpus, err := t.ts.svc.GetCorpus(tc.Context(), handle.Name)
	if err != nil {
		return errorResult(fmt.Sprintf("Error fetching corpus '%s': %v", handle.DisplayName, err)), nil
	}

	files, err := t.ts.svc.ListFiles(tc.Context(), handle.Name)
	if err != nil {
		return errorResult(fmt.Sprintf("Error listing documents of corpus '%s': %v", handle.DisplayName, err)), nil
	}

	return map[string]any{
		"status":       "success",
		"message":      fmt.Sprintf("Corpus '%s' contains %d document(s).", corpus.DisplayName, len(files)),
		"corpus_name":  corpus.Name,
		"display_name": corpus.DisplayName,
		"description":  corpus.Description,
		"file_count":   len(files),
		"files":        fileEntries(files),
	}, nil
}

func fileEntries(files []registry.File) []map[string]any {
	entries := make([]map[string]any, 0, len(files))
	for _, f := range files {
		entry := map[string]any{
			"name":         f.Name,
			"display_name": f.DisplayName,
			"document_id":  registry.CorpusID(f.Name),
		}
		if f.Source != "" {
			entry["source"] = f.Source
		}
		if f.SizeBytes > 0 {
			entry["size_bytes"] = f.SizeBytes
		}
		if !f.CreateTime.IsZero() {
			entry["create_time"] = f.CreateTime.Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}
	return entries
}
